package source

import (
	"fmt"

	"github.com/handiism/everygarf/internal/model"
)

// GoComics scrapes the daily strip pages of gocomics.com.
//
// The strip page embeds the image URL in several attributes (og:image, the
// picture element, JSON-LD), all starting with the feature-assets host. The
// first occurrence is taken and read up to its closing quote; the asset id
// length has changed before, so no fixed width is assumed.
type GoComics struct{}

// GoComicsImagePrefix is the host every strip image is served from.
const GoComicsImagePrefix = "https://featureassets.gocomics.com"

func (GoComics) Name() string { return "gocomics" }

// PageURL returns e.g. https://www.gocomics.com/garfield/2023/05/01
func (GoComics) PageURL(date model.Date) string {
	return fmt.Sprintf("https://www.gocomics.com/garfield/%s", date.Format("/", true))
}

func (GoComics) ExtractImageURL(body string) (string, bool) {
	return extractPrefixed(body, GoComicsImagePrefix)
}
