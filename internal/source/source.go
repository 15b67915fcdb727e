package source

import (
	"fmt"
	"sort"
	"strings"

	"github.com/handiism/everygarf/internal/model"
)

// Adapter knows how to find the strip of a given date on one site.
//
// Implementations are immutable and safe for concurrent use; a single
// Adapter is selected at startup and shared by every job.
type Adapter interface {
	// Name returns the identifier used on the command line.
	Name() string

	// PageURL returns the page (or API endpoint) that references the image
	// of the given date.
	PageURL(date model.Date) string

	// ExtractImageURL scans a fetched page body for the image URL. It
	// returns false when the marker is absent or the match is empty; this
	// is not a programming error, callers treat it as a failed scrape.
	ExtractImageURL(body string) (string, bool)
}

// DefaultName is the adapter used when none is configured.
const DefaultName = "gocomics"

var registry = map[string]Adapter{
	"gocomics":    GoComics{},
	"fandom":      Fandom{},
	"fandom-wiki": FandomWiki{},
}

// Lookup returns the adapter registered under name.
func Lookup(name string) (Adapter, error) {
	adapter, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return adapter, nil
}

// Names returns the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scanToQuote returns the text starting at from and ending before the next
// '"' (or the end of body).
func scanToQuote(body string, from int) string {
	rest := body[from:]
	if end := strings.IndexByte(rest, '"'); end >= 0 {
		return rest[:end]
	}
	return rest
}

// extractPrefixed finds the first occurrence of prefix and returns the URL
// that starts there, up to the closing quote.
func extractPrefixed(body, prefix string) (string, bool) {
	start := strings.Index(body, prefix)
	if start == -1 {
		return "", false
	}
	url := scanToQuote(body, start)
	if url == prefix {
		return "", false
	}
	return url, true
}
