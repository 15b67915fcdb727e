package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/handiism/everygarf/internal/model"
	"github.com/spf13/afero"
)

const (
	// DefaultSource is the community-maintained remote cache.
	DefaultSource = "https://raw.githubusercontent.com/darccyy/everygarf-cache/master/cache"

	// DefaultBase is the prefix stripped from image URLs when they are
	// written to the cache, and restored when read back.
	DefaultBase = "https://assets.amuniversal.com/"
)

// ErrParse is returned when a cache file contains a malformed line.
var ErrParse = errors.New("malformed cache file")

// Map holds one image URL per date.
type Map map[model.Date]string

// Lookup returns the cached image URL of a date.
func (m Map) Lookup(date model.Date) (string, bool) {
	url, ok := m[date]
	return url, ok
}

// Fetcher downloads a remote text resource.
type Fetcher interface {
	GetString(ctx context.Context, url string) (string, error)
}

// Store reads and writes cache files on a filesystem.
//
// Appends from concurrent jobs are serialized by the Store, so a single
// Store must be shared by all jobs of a run. Each append still opens the
// file, writes one complete line and closes it again, leaving the file
// consistent if the process dies mid-run.
type Store struct {
	fs   afero.Fs
	base string
	mu   sync.Mutex
}

// NewStore creates a Store on fs. An empty base uses DefaultBase.
func NewStore(fs afero.Fs, base string) *Store {
	if base == "" {
		base = DefaultBase
	}
	return &Store{fs: fs, base: base}
}

// IsRemote reports whether source is an http(s) URL rather than a local path.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the cache from source, which is either an http(s) URL fetched
// with fetcher or a path on the Store's filesystem.
func (s *Store) Load(ctx context.Context, fetcher Fetcher, source string) (Map, error) {
	var text string
	if IsRemote(source) {
		body, err := fetcher.GetString(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("downloading remote cache %s: %w", source, err)
		}
		text = body
	} else {
		data, err := afero.ReadFile(s.fs, source)
		if err != nil {
			return nil, fmt.Errorf("reading local cache file: %w", err)
		}
		text = string(data)
	}
	return Parse(text, s.base)
}

// Parse reads cache text: one "date url" row per line, blank lines ignored.
// Minified URLs are expanded against base. When a date appears more than
// once the last row wins.
func Parse(text, base string) (Map, error) {
	rows := make(Map)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		dateToken, url, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: line %d has no space: %q", ErrParse, i+1, line)
		}
		date, err := model.ParseDate(strings.TrimSpace(dateToken))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, i+1, err)
		}
		url = strings.TrimSpace(url)
		if url == "" {
			return nil, fmt.Errorf("%w: line %d has no url", ErrParse, i+1)
		}

		rows[date] = Expand(url, base)
	}
	return rows, nil
}

// Append adds a "date url" row to the cache file at path, creating the file
// if needed. The URL is minified before writing.
func (s *Store) Append(path string, date model.Date, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening cache file: %w", err)
	}

	line := date.String() + " " + Minify(url, s.base) + "\n"
	if _, err := file.Write([]byte(line)); err != nil {
		file.Close()
		return fmt.Errorf("writing to cache file: %w", err)
	}
	return file.Close()
}

// Normalize rewrites the cache file at path with one row per date, keeping
// the last row written for each date, sorted by date. Dates are written back
// zero-padded, so "2023-5-1" and "2023-05-01" count as the same day. Lines
// without a space or with an invalid date are dropped. A missing file is left
// alone.
func (s *Store) Normalize(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	type row struct {
		date model.Date
		url  string
	}

	lines := strings.Split(string(data), "\n")
	seen := make(map[model.Date]struct{}, len(lines))
	rows := make([]row, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		dateToken, url, ok := strings.Cut(strings.TrimSpace(lines[i]), " ")
		if !ok {
			continue
		}
		date, err := model.ParseDate(strings.TrimSpace(dateToken))
		if err != nil {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		rows = append(rows, row{date: date, url: strings.TrimSpace(url)})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r.date.String())
		b.WriteByte(' ')
		b.WriteString(r.url)
		b.WriteByte('\n')
	}
	return afero.WriteFile(s.fs, path, []byte(b.String()), 0644)
}

// Minify strips base from url, if present.
func Minify(url, base string) string {
	return strings.TrimPrefix(url, base)
}

// Expand restores a minified URL. URLs that already start with base, or
// carry their own scheme, are returned unchanged.
func Expand(url, base string) string {
	if strings.HasPrefix(url, base) || IsRemote(url) {
		return url
	}
	return base + url
}
