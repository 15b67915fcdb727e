package model

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseImageFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    ImageFormat
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{"jpeg", FormatJPEG, false},
		{".jpg", FormatJPEG, false},
		{"gif", FormatGIF, false},
		{"tif", FormatTIFF, false},
		{"bmp", FormatBMP, false},
		{"webp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseImageFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseImageFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseImageFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLayout_Path(t *testing.T) {
	d := Date{2023, time.May, 1}

	if got, want := LayoutFlat.Path("/pics", d, FormatPNG), filepath.Join("/pics", "2023-05-01.png"); got != want {
		t.Errorf("flat Path = %q, want %q", got, want)
	}
	if got, want := LayoutTree.Path("/pics", d, FormatJPEG), filepath.Join("/pics", "2023", "05", "01.jpg"); got != want {
		t.Errorf("tree Path = %q, want %q", got, want)
	}
}

func TestLayout_DateFromPath(t *testing.T) {
	tests := []struct {
		layout Layout
		rel    string
		want   string
		wantOK bool
	}{
		{LayoutFlat, "2023-05-01.png", "2023-05-01", true},
		{LayoutFlat, "2023/05/01.png", "", false},
		{LayoutFlat, "notes.txt", "", false},
		{LayoutTree, "2023/05/01.png", "2023-05-01", true},
		{LayoutTree, "2023/5/1.gif", "2023-05-01", true},
		{LayoutTree, "2023/02/30.png", "", false},
		{LayoutTree, "2023/05", "", false},
		{LayoutTree, "2023-05-01.png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.layout.String()+" "+tt.rel, func(t *testing.T) {
			got, ok := tt.layout.DateFromPath(tt.rel)
			if ok != tt.wantOK {
				t.Fatalf("DateFromPath(%q) ok = %v, want %v", tt.rel, ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("DateFromPath(%q) = %v, want %s", tt.rel, got, tt.want)
			}
		})
	}
}

func TestLayout_RoundTrip(t *testing.T) {
	for _, layout := range []Layout{LayoutFlat, LayoutTree} {
		for _, d := range Range(Date{2020, time.February, 27}, Date{2020, time.March, 2}) {
			p := layout.Path("out", d, FormatGIF)
			rel, err := filepath.Rel("out", p)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := layout.DateFromPath(rel)
			if !ok || got != d {
				t.Errorf("%s: DateFromPath(Path(%v)) = %v, %v", layout, d, got, ok)
			}
		}
	}
}

func TestNewJobs(t *testing.T) {
	dates := Range(Date{2023, time.May, 1}, Date{2023, time.May, 5})
	cached := map[Date]string{dates[2]: "https://example.com/x.gif"}

	jobs := NewJobs(dates, cached, 2)
	if len(jobs) != len(dates) {
		t.Fatalf("len(jobs) = %d, want %d", len(jobs), len(dates))
	}
	for i, job := range jobs {
		if job.Index != i || job.Slot != i%2 || job.Date != dates[i] {
			t.Errorf("job %d = %+v", i, job)
		}
		if job.Cached() != (i == 2) {
			t.Errorf("job %d Cached() = %v", i, job.Cached())
		}
	}

	if jobs := NewJobs(dates, nil, 0); jobs[4].Slot != 0 {
		t.Errorf("concurrency 0 should be treated as 1, got slot %d", jobs[4].Slot)
	}
}
