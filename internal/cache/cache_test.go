package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/handiism/everygarf/internal/model"
	"github.com/spf13/afero"
)

const testBase = "https://example/"

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "full url",
			text: "2022-03-01 https://example/x.jpg",
			want: map[string]string{"2022-03-01": "https://example/x.jpg"},
		},
		{
			name: "minified url expands",
			text: "2022-03-01 x.jpg",
			want: map[string]string{"2022-03-01": "https://example/x.jpg"},
		},
		{
			name: "foreign host left unchanged",
			text: "2022-03-01 https://featureassets.gocomics.com/assets/abc",
			want: map[string]string{"2022-03-01": "https://featureassets.gocomics.com/assets/abc"},
		},
		{
			name: "blank lines and whitespace ignored",
			text: "\n  2022-03-01 a.gif  \r\n\n2022-03-02 b.gif\n\n",
			want: map[string]string{
				"2022-03-01": "https://example/a.gif",
				"2022-03-02": "https://example/b.gif",
			},
		},
		{
			name: "later row wins",
			text: "2022-03-01 a.gif\n2022-03-01 b.gif",
			want: map[string]string{"2022-03-01": "https://example/b.gif"},
		},
		{
			name: "empty file",
			text: "",
			want: map[string]string{},
		},
		{
			name:    "missing space",
			text:    "2022-03-01 a.gif\n2022-03-02",
			wantErr: true,
		},
		{
			name:    "bad date",
			text:    "2022-13-01 a.gif",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, testBase)
			if tt.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Errorf("Parse() error = %v, want ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() returned %d rows, want %d: %v", len(got), len(tt.want), got)
			}
			for ds, url := range tt.want {
				if got[date(t, ds)] != url {
					t.Errorf("row %s = %q, want %q", ds, got[date(t, ds)], url)
				}
			}
		})
	}
}

func TestMinifyExpand(t *testing.T) {
	if got := Minify("https://example/x.jpg", testBase); got != "x.jpg" {
		t.Errorf("Minify() = %q, want %q", got, "x.jpg")
	}
	if got := Minify("https://other/x.jpg", testBase); got != "https://other/x.jpg" {
		t.Errorf("Minify() should keep foreign URLs, got %q", got)
	}
	if got := Expand("x.jpg", testBase); got != "https://example/x.jpg" {
		t.Errorf("Expand() = %q", got)
	}
	if got := Expand("https://example/x.jpg", testBase); got != "https://example/x.jpg" {
		t.Errorf("Expand() should keep prefixed URLs, got %q", got)
	}
}

func TestStore_AppendNormalize_LastWriteWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, testBase)
	d := date(t, "2023-05-01")

	if err := store.Append("cache", d, "https://example/first.gif"); err != nil {
		t.Fatal(err)
	}
	if err := store.Append("cache", d, "https://example/second.gif"); err != nil {
		t.Fatal(err)
	}

	raw, _ := afero.ReadFile(fs, "cache")
	if string(raw) != "2023-05-01 first.gif\n2023-05-01 second.gif\n" {
		t.Fatalf("appended file = %q", raw)
	}

	if err := store.Normalize("cache"); err != nil {
		t.Fatal(err)
	}
	raw, _ = afero.ReadFile(fs, "cache")
	if string(raw) != "2023-05-01 second.gif\n" {
		t.Errorf("normalized file = %q, want single row with second.gif", raw)
	}
}

func TestStore_Normalize_SortsAndDedupes(t *testing.T) {
	fs := afero.NewMemMapFs()
	input := strings.Join([]string{
		"2023-05-03 c1.gif",
		"2023-05-01 a1.gif",
		"",
		"garbage-without-space",
		"2023-05-02 b1.gif",
		"2023-05-01 a2.gif",
		"2023-05-03 c2.gif",
		"2023-05-01 a3.gif",
	}, "\n")
	afero.WriteFile(fs, "cache", []byte(input), 0644)

	if err := NewStore(fs, testBase).Normalize("cache"); err != nil {
		t.Fatal(err)
	}

	raw, _ := afero.ReadFile(fs, "cache")
	want := "2023-05-01 a3.gif\n2023-05-02 b1.gif\n2023-05-03 c2.gif\n"
	if string(raw) != want {
		t.Errorf("Normalize() wrote %q, want %q", raw, want)
	}

	parsed, err := Parse(string(raw), testBase)
	if err != nil {
		t.Fatalf("normalized file does not parse: %v", err)
	}
	if len(parsed) != 3 {
		t.Errorf("normalized file has %d dates, want 3", len(parsed))
	}
}

func TestStore_Normalize_UnpaddedDates(t *testing.T) {
	fs := afero.NewMemMapFs()
	input := strings.Join([]string{
		"2023-10-1 oct.gif",
		"2023-05-01 old.gif",
		"2023-9-30 sep.gif",
		"2023-5-1 new.gif",
		"2023-02-30 bad-day.gif",
	}, "\n")
	afero.WriteFile(fs, "cache", []byte(input), 0644)

	if err := NewStore(fs, testBase).Normalize("cache"); err != nil {
		t.Fatal(err)
	}

	raw, _ := afero.ReadFile(fs, "cache")
	want := "2023-05-01 new.gif\n2023-09-30 sep.gif\n2023-10-01 oct.gif\n"
	if string(raw) != want {
		t.Errorf("Normalize() wrote %q, want %q", raw, want)
	}
}

func TestStore_Normalize_MissingFile(t *testing.T) {
	if err := NewStore(afero.NewMemMapFs(), "").Normalize("nope"); err != nil {
		t.Errorf("Normalize(missing) = %v, want nil", err)
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, testBase)
	start := date(t, "2020-01-01")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := start.AddDays(i)
			if err := store.Append("cache", d, fmt.Sprintf("https://example/%d.gif", i)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	raw, _ := afero.ReadFile(fs, "cache")
	parsed, err := Parse(string(raw), testBase)
	if err != nil {
		t.Fatalf("Parse after concurrent appends: %v", err)
	}
	if len(parsed) != 50 {
		t.Errorf("got %d rows, want 50", len(parsed))
	}
	if got := parsed[start.AddDays(7)]; got != "https://example/7.gif" {
		t.Errorf("row 7 = %q", got)
	}
}

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) GetString(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.body, f.err
}

func TestStore_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/data/cache", []byte("2023-05-01 local.gif\n"), 0644)
	store := NewStore(fs, testBase)
	ctx := context.Background()

	t.Run("local file", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		m, err := store.Load(ctx, fetcher, "/data/cache")
		if err != nil {
			t.Fatal(err)
		}
		if url, ok := m.Lookup(date(t, "2023-05-01")); !ok || url != "https://example/local.gif" {
			t.Errorf("Lookup() = %q, %v", url, ok)
		}
		if len(fetcher.urls) != 0 {
			t.Errorf("local load should not fetch, fetched %v", fetcher.urls)
		}
	})

	t.Run("remote url", func(t *testing.T) {
		fetcher := &fakeFetcher{body: "2023-05-02 remote.gif"}
		m, err := store.Load(ctx, fetcher, "https://cache.example/cache")
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := m.Lookup(date(t, "2023-05-02")); !ok {
			t.Error("remote row missing")
		}
		if len(fetcher.urls) != 1 || fetcher.urls[0] != "https://cache.example/cache" {
			t.Errorf("fetched %v", fetcher.urls)
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.New("503")}
		if _, err := store.Load(ctx, fetcher, "http://cache.example/cache"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing local file", func(t *testing.T) {
		if _, err := store.Load(ctx, &fakeFetcher{}, "/data/none"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		fetcher := &fakeFetcher{body: "no-space-here"}
		if _, err := store.Load(ctx, fetcher, "https://cache.example/cache"); !errors.Is(err, ErrParse) {
			t.Errorf("error = %v, want ErrParse", err)
		}
	})
}

func TestMap_LookupDoesNotMatchOtherDates(t *testing.T) {
	m := Map{model.Date{Year: 2023, Month: time.May, Day: 1}: "u"}
	if _, ok := m.Lookup(model.Date{Year: 2023, Month: time.May, Day: 2}); ok {
		t.Error("unexpected hit")
	}
}
