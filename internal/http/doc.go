// Package http provides the HTTP client shared by every request of a run.
//
// The Client in this package handles:
//   - Browser User-Agent headers, since the comic sites block bots
//   - Timeout handling
//   - Optional rate limiting (golang.org/x/time/rate)
//   - gzip and Brotli encoded responses
//   - Non-2xx statuses reported as *StatusError
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{Timeout: 15 * time.Second})
//
//	// Fetch HTML page
//	html, err := client.GetString(ctx, pageURL)
//
//	// Fetch image bytes
//	data, err := client.DownloadBytes(ctx, imageURL)
//
// # Errors
//
// Describe turns any request error into a one-line explanation suitable for
// the terminal, recognizing timeouts, connection failures, rate limiting and
// a few well-known server statuses.
package http
