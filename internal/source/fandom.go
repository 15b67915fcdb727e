package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/handiism/everygarf/internal/model"
)

// Fandom uses the Lightbox media API of the Garfield fandom wiki, which
// answers with JSON describing the uploaded strip file.
//
// Strips are uploaded as "YYYY-MM-DD.gif"; the response carries the file URL
// under the "imageUrl" key.
type Fandom struct{}

const fandomImageKey = `"imageUrl":"`

func (Fandom) Name() string { return "fandom" }

func (Fandom) PageURL(date model.Date) string {
	return "https://garfield.fandom.com/wikia.php?controller=Lightbox&method=getMediaDetail&fileTitle=" +
		url.QueryEscape(date.String()+".gif")
}

func (Fandom) ExtractImageURL(body string) (string, bool) {
	start := strings.Index(body, fandomImageKey)
	if start == -1 {
		return "", false
	}
	value := scanToQuote(body, start+len(fandomImageKey))
	// JSON escapes forward slashes.
	value = strings.ReplaceAll(value, `\/`, "/")
	if value == "" {
		return "", false
	}
	return value, true
}

// FandomWiki scrapes the monthly gallery pages of the fandom wiki, e.g.
// "Garfield,_May_2023_comic_strips". The first image hosted on the wiki CDN
// is taken, which the ?file= parameter makes the requested strip.
type FandomWiki struct{}

// FandomImagePrefix is the CDN host of every image uploaded to the wiki.
const FandomImagePrefix = "https://static.wikia.nocookie.net"

func (FandomWiki) Name() string { return "fandom-wiki" }

func (FandomWiki) PageURL(date model.Date) string {
	return fmt.Sprintf(
		"https://garfield.fandom.com/wiki/Garfield,_%s_%d_comic_strips?file=%s.gif",
		date.Month, date.Year, date.String(),
	)
}

func (FandomWiki) ExtractImageURL(body string) (string, bool) {
	return extractPrefixed(body, FandomImagePrefix)
}
