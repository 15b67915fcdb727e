package source

import (
	"context"
	"fmt"
)

// DefaultProxy is the CORS relay used when the proxy is enabled without an
// explicit address.
const DefaultProxy = "https://proxy.darcy-700.workers.dev/cors-proxy"

// Pinger is the part of the HTTP client the proxy check needs.
type Pinger interface {
	Ping(ctx context.Context, url string) error
}

// Proxy routes outgoing URLs through a CORS relay, which fetches the target
// on our behalf and gets around anti-bot blocking of the source sites.
//
// The zero value routes nothing.
type Proxy struct {
	Base string
}

// Enabled reports whether a relay is configured.
func (p Proxy) Enabled() bool {
	return p.Base != ""
}

// Route returns the URL to request in place of url: "<base>?<url>" when a
// relay is configured, url unchanged otherwise.
func (p Proxy) Route(url string) string {
	if !p.Enabled() {
		return url
	}
	return p.Base + "?" + url
}

// Ping checks that the relay answers a bare GET with a success status.
func (p Proxy) Ping(ctx context.Context, client Pinger) error {
	if !p.Enabled() {
		return nil
	}
	if err := client.Ping(ctx, p.Base); err != nil {
		return fmt.Errorf("proxy service unavailable (%s): %w", p.Base, err)
	}
	return nil
}

// ShouldPing decides whether the pre-flight check is worth a round trip.
// Small batches skip it: a dead relay shows up on the first job anyway.
func (p Proxy) ShouldPing(jobCount, threshold int, always bool) bool {
	if !p.Enabled() || jobCount == 0 {
		return false
	}
	return always || jobCount >= threshold
}
