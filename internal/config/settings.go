package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/handiism/everygarf/internal/cache"
	"github.com/handiism/everygarf/internal/model"
	"github.com/handiism/everygarf/internal/source"
)

var (
	// ErrInvalidSettings is wrapped by every validation failure.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrBadStartDate is returned when the start date is unparseable or
	// outside the range of published strips.
	ErrBadStartDate = errors.New("invalid start date")
)

// Settings holds all configuration options.
type Settings struct {
	// Output settings
	Folder    string `json:"folder"`
	Format    string `json:"format"` // png, jpg, gif, bmp, tiff
	Layout    string `json:"layout"` // flat, tree
	RemoveAll bool   `json:"remove_all"`

	// Range settings
	StartDate string `json:"start_date"` // YYYY-MM-DD, empty for the first strip
	MaxCount  int    `json:"max_count"`  // 0 for no limit

	// Download settings
	Source                string  `json:"source"`
	Concurrency           int     `json:"concurrency"`
	Attempts              int     `json:"attempts"`
	RequestTimeout        float64 `json:"request_timeout"` // seconds
	InitialTimeout        float64 `json:"initial_timeout"` // seconds, proxy ping and cache download
	RetryCooldown         float64 `json:"retry_cooldown"`  // seconds
	RetryExponent         float64 `json:"retry_exponent"`
	RetryMaxCooldown      float64 `json:"retry_max_cooldown"` // seconds
	RateLimit             float64 `json:"rate_limit"`         // requests per second, 0 for none
	UserAgent             string  `json:"user_agent"`
	FailFast              bool    `json:"fail_fast"`
	ProgressBarMultiplier int     `json:"progress_bar_multiplier"`

	// Proxy settings
	UseProxy      bool   `json:"use_proxy"`
	ProxyURL      string `json:"proxy_url"`
	ProxyImages   bool   `json:"proxy_images"`
	AlwaysPing    bool   `json:"always_ping"`
	PingThreshold int    `json:"ping_threshold"`

	// Cache settings
	UseCache      bool   `json:"use_cache"`
	CacheURL      string `json:"cache_url"`
	CacheSavePath string `json:"cache_save_path"`
	CacheBase     string `json:"cache_base"`

	// Reporting
	Notify  bool `json:"notify"`
	Verbose bool `json:"verbose"`

	// QueryOnly counts missing strips without downloading. Command line only.
	QueryOnly bool `json:"-"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Folder: "",
		Format: string(model.FormatPNG),
		Layout: model.LayoutFlat.String(),

		Source:                source.DefaultName,
		Concurrency:           20,
		Attempts:              10,
		RequestTimeout:        15,
		InitialTimeout:        10,
		RetryCooldown:         0.5,
		RetryExponent:         2.0,
		RetryMaxCooldown:      10,
		ProgressBarMultiplier: 20,

		UseProxy:      true,
		ProxyURL:      source.DefaultProxy,
		PingThreshold: 10,

		UseCache:  true,
		CacheURL:  cache.DefaultSource,
		CacheBase: cache.DefaultBase,

		Notify: true,
	}
}

// Load reads settings from a JSON file. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks every option. now is used to bound the start date.
func (s *Settings) Validate(now time.Time) error {
	if s.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidSettings, s.Concurrency)
	}
	if s.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1, got %d", ErrInvalidSettings, s.Attempts)
	}
	if s.RequestTimeout <= 0 || s.InitialTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidSettings)
	}
	if s.MaxCount < 0 {
		return fmt.Errorf("%w: max count cannot be negative", ErrInvalidSettings)
	}
	if s.RetryCooldown < 0 || s.RetryExponent < 0 || s.RateLimit < 0 {
		return fmt.Errorf("%w: retry and rate options cannot be negative", ErrInvalidSettings)
	}
	if _, err := model.ParseImageFormat(s.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, err := model.ParseLayout(s.Layout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, err := source.Lookup(s.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, err := s.Start(now); err != nil {
		return err
	}
	return nil
}

// Start returns the first date to download, validated against the first
// published strip and the latest available one at now.
func (s *Settings) Start(now time.Time) (model.Date, error) {
	if s.StartDate == "" {
		return model.FirstComic, nil
	}
	start, err := model.ParseDate(s.StartDate)
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: %v", ErrBadStartDate, err)
	}
	latest := model.Latest(now)
	if start.Before(model.FirstComic) || start.After(latest) {
		return model.Date{}, fmt.Errorf("%w: %s is outside %s..%s", ErrBadStartDate, start, model.FirstComic, latest)
	}
	return start, nil
}

// ImageFormat returns the parsed output format, PNG when invalid.
func (s *Settings) ImageFormat() model.ImageFormat {
	f, err := model.ParseImageFormat(s.Format)
	if err != nil {
		return model.FormatPNG
	}
	return f
}

// OutputLayout returns the parsed output layout, flat when invalid.
func (s *Settings) OutputLayout() model.Layout {
	l, _ := model.ParseLayout(s.Layout)
	return l
}

// Proxy returns the proxy gateway, disabled unless UseProxy is set.
func (s *Settings) Proxy() source.Proxy {
	if !s.UseProxy {
		return source.Proxy{}
	}
	return source.Proxy{Base: s.ProxyURL}
}

// CacheSource returns where to load cached URLs from, or "" when caching is
// disabled.
func (s *Settings) CacheSource() string {
	if !s.UseCache {
		return ""
	}
	return s.CacheURL
}

// Cooldown returns the wait before retry number tries (0-based):
// RetryCooldown * RetryExponent^tries, capped at RetryMaxCooldown.
func (s *Settings) Cooldown(tries int) time.Duration {
	seconds := s.RetryCooldown
	for i := 0; i < tries; i++ {
		seconds *= s.RetryExponent
		if s.RetryMaxCooldown > 0 && seconds > s.RetryMaxCooldown {
			break
		}
	}
	if s.RetryMaxCooldown > 0 && seconds > s.RetryMaxCooldown {
		seconds = s.RetryMaxCooldown
	}
	return time.Duration(seconds * float64(time.Second))
}

// Timeout returns RequestTimeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout * float64(time.Second))
}

// ProbeTimeout returns InitialTimeout as a duration.
func (s *Settings) ProbeTimeout() time.Duration {
	return time.Duration(s.InitialTimeout * float64(time.Second))
}
