package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/everygarf/internal/model"
)

var now = time.Date(2023, time.May, 2, 8, 0, 0, 0, time.UTC)

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(now); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if s.Concurrency != 20 || s.Attempts != 10 || s.Timeout() != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if start, _ := s.Start(now); start != model.FirstComic {
		t.Errorf("Start() = %v, want %v", start, model.FirstComic)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
	}{
		{"zero concurrency", func(s *Settings) { s.Concurrency = 0 }, ErrInvalidSettings},
		{"zero attempts", func(s *Settings) { s.Attempts = 0 }, ErrInvalidSettings},
		{"zero timeout", func(s *Settings) { s.RequestTimeout = 0 }, ErrInvalidSettings},
		{"negative max", func(s *Settings) { s.MaxCount = -1 }, ErrInvalidSettings},
		{"bad format", func(s *Settings) { s.Format = "svg" }, ErrInvalidSettings},
		{"bad layout", func(s *Settings) { s.Layout = "spiral" }, ErrInvalidSettings},
		{"bad source", func(s *Settings) { s.Source = "comicsrus" }, ErrInvalidSettings},
		{"garbled start", func(s *Settings) { s.StartDate = "2023-13-01" }, ErrBadStartDate},
		{"start before first comic", func(s *Settings) { s.StartDate = "1978-06-18" }, ErrBadStartDate},
		{"start after latest", func(s *Settings) { s.StartDate = "2023-05-03" }, ErrBadStartDate},
		{"start on latest", func(s *Settings) { s.StartDate = "2023-05-02" }, nil},
		{"jpeg alias", func(s *Settings) { s.Format = "jpeg" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate(now)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCooldown(t *testing.T) {
	s := DefaultSettings()
	s.RetryCooldown = 0.5
	s.RetryExponent = 2
	s.RetryMaxCooldown = 3

	tests := []struct {
		tries int
		want  time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{30, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := s.Cooldown(tt.tries); got != tt.want {
			t.Errorf("Cooldown(%d) = %v, want %v", tt.tries, got, tt.want)
		}
	}
}

func TestProxyAndCacheSwitches(t *testing.T) {
	s := DefaultSettings()
	if !s.Proxy().Enabled() || s.CacheSource() == "" {
		t.Fatal("proxy and cache should be on by default")
	}
	s.UseProxy = false
	s.UseCache = false
	if s.Proxy().Enabled() {
		t.Error("proxy enabled with UseProxy false")
	}
	if s.CacheSource() != "" {
		t.Error("cache source set with UseCache false")
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "everygarf.json")

	missing, err := Load(path)
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if missing.Concurrency != DefaultSettings().Concurrency {
		t.Errorf("missing file did not yield defaults")
	}

	s := DefaultSettings()
	s.Folder = "/comics"
	s.Format = "jpg"
	s.QueryOnly = true
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Folder != "/comics" || loaded.Format != "jpg" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.QueryOnly {
		t.Error("QueryOnly should not be persisted")
	}

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed file")
	}
}
