// Package source locates strip images on the supported comic sites.
//
// Each site is an Adapter with two capabilities: building the page URL for
// a date, and scanning a fetched page body for the image URL.
//
//	adapter, err := source.Lookup("gocomics")
//	page := adapter.PageURL(date)
//	// fetch page...
//	imageURL, ok := adapter.ExtractImageURL(body)
//	if !ok {
//	    // marker not found: retry later
//	}
//
// # Scraping Strategy
//
// Pages are not parsed as HTML. Adapters search for a known marker (an
// image host prefix or a JSON key) and read forward to the terminating
// quote, which survives changes in the length of image ids.
//
// # Proxy
//
// Proxy prefixes every outgoing URL with a CORS relay address when one is
// configured, and offers a pre-flight Ping.
package source
