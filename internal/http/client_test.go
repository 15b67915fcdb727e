package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestClient_GetString(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	client := NewClient(Options{Timeout: 5 * time.Second})
	body, err := client.GetString(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
	if body != "<html>hello</html>" {
		t.Errorf("body = %q, want %q", body, "<html>hello</html>")
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		wantHint    string
	}{
		{"rate limited", http.StatusTooManyRequests, true, "Rate limited"},
		{"server error", http.StatusInternalServerError, false, "Server error"},
		{"cloudflare ssl", 525, false, "SSL handshake"},
		{"not found", http.StatusNotFound, false, "Uncommon error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewClient(Options{}).Get(context.Background(), srv.URL)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if statusErr.IsRateLimited() != tt.rateLimited {
				t.Errorf("IsRateLimited() = %v, want %v", statusErr.IsRateLimited(), tt.rateLimited)
			}
			if hint := Describe(err); !strings.Contains(hint, tt.wantHint) {
				t.Errorf("Describe() = %q, want it to contain %q", hint, tt.wantHint)
			}
		})
	}
}

func TestClient_DecodesCompressedBodies(t *testing.T) {
	const payload = `{"imageUrl":"https://static.example.com/strip.gif"}`

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write([]byte(payload))
	zw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write([]byte(payload))
	bw.Close()

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"gzip", gz.Bytes()},
		{"br", br.Bytes()},
		{"", []byte(payload)},
	}

	for _, tt := range tests {
		t.Run("encoding="+tt.encoding, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body)
			}))
			defer srv.Close()

			got, err := NewClient(Options{}).GetString(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("GetString failed: %v", err)
			}
			if got != payload {
				t.Errorf("body = %q, want %q", got, payload)
			}
		})
	}
}

func TestClient_Ping(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("proxy alive"))
	}))
	defer ok.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	client := NewClient(Options{})
	if err := client.Ping(context.Background(), ok.URL); err != nil {
		t.Errorf("Ping(ok) = %v, want nil", err)
	}
	if err := client.Ping(context.Background(), down.URL); err == nil {
		t.Error("Ping(down) = nil, want error")
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(Options{Timeout: 50 * time.Millisecond}).Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false, want true", err)
	}
	if hint := Describe(err); !strings.Contains(hint, "timed out") {
		t.Errorf("Describe() = %q, want timeout hint", hint)
	}
}

func TestClient_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(Options{RateLimit: 20})
	start := time.Now()
	for i := 0; i < 25; i++ {
		if _, err := client.Get(context.Background(), srv.URL); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	// 20 requests fit in the initial burst, the remaining 5 wait 50ms each.
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("25 requests at 20/s took %v, expected rate limiting", elapsed)
	}
}

func TestDescribe_Connection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{Timeout: time.Second}).Get(context.Background(), url)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if hint := Describe(err); !strings.Contains(hint, "Bad connection") {
		t.Errorf("Describe() = %q, want connection hint", hint)
	}
}
