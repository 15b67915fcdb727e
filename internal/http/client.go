package http

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with every request. The comic sites reject
// obviously automated user agents, so a desktop browser string is used.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// Options configures a Client.
type Options struct {
	// Timeout bounds each request, including reading the body.
	// Zero means 15 seconds.
	Timeout time.Duration

	// UserAgent overrides DefaultUserAgent when non-empty.
	UserAgent string

	// RateLimit caps outgoing requests per second across all goroutines
	// sharing the client. Zero disables limiting.
	RateLimit float64
}

// Client wraps HTTP operations with the configuration shared by every
// request of a run.
//
// Client provides:
//   - Browser User-Agent header
//   - Per-request timeout
//   - Optional request rate limiting
//   - Transparent gzip and Brotli response decoding
//   - Non-2xx responses turned into *StatusError
//
// A Client is safe for concurrent use.
//
// Example usage:
//
//	client := NewClient(Options{Timeout: 15 * time.Second})
//
//	// Fetch HTML content
//	html, err := client.GetString(ctx, "https://www.gocomics.com/garfield/2023/05/01")
//
//	// Fetch image bytes
//	data, err := client.DownloadBytes(ctx, imageURL)
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a new HTTP client from opts.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// StatusError is returned when a server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// IsRateLimited reports whether the server rejected the request because too
// many requests were made.
func (e *StatusError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// do sends a GET request and returns the response once its status was
// checked. The caller must close the body.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// Get performs a GET request and returns the decoded response body.
//
// Returns an error if:
//   - The request fails or times out
//   - The response status is not 2xx (*StatusError)
//   - Reading or decompressing the body fails
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decoding body of %s: %w", url, err)
	}
	return io.ReadAll(body)
}

// GetString performs a GET request and returns the response body as a string.
//
// This is a convenience wrapper around Get for fetching text content like
// HTML pages and the remote URL cache.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DownloadBytes downloads an image and returns its bytes in memory.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}

// Ping issues a bare GET and only checks that the status is 2xx. The body
// is discarded.
func (c *Client) Ping(ctx context.Context, url string) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// decodeBody wraps the response body in a decompressor matching its
// Content-Encoding. Setting Accept-Encoding by hand disables net/http's own
// gzip handling, so both encodings are handled here.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// Describe turns a request error into a short human-readable explanation,
// with a hint when the cause is recognizable.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.IsRateLimited():
			return fmt.Sprintf("%d Rate limited. Try again in a few minutes, or route requests through a proxy.", statusErr.StatusCode)
		case statusErr.StatusCode == 525:
			return "525 SSL handshake failed with Cloudflare."
		case statusErr.StatusCode == http.StatusInternalServerError:
			return "500 Server error. Try again later."
		}
		return fmt.Sprintf("Uncommon error: %v", err)
	}

	if IsTimeout(err) {
		return "Request timed out. If this happens often, check your connection or raise the timeout."
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return "Bad connection. Check your internet access."
	}

	return fmt.Sprintf("Unknown error: %v", err)
}

// IsTimeout reports whether err was caused by a request deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
