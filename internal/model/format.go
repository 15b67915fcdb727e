package model

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ImageFormat is the encoding used for saved strips. It is fixed for a run
// and only decides the file extension and the encoder.
type ImageFormat string

const (
	// FormatPNG saves lossless .png files (the default).
	FormatPNG ImageFormat = "png"

	// FormatJPEG saves .jpg files.
	FormatJPEG ImageFormat = "jpg"

	// FormatGIF saves .gif files, the format most strips are served in.
	FormatGIF ImageFormat = "gif"

	// FormatBMP saves uncompressed .bmp files.
	FormatBMP ImageFormat = "bmp"

	// FormatTIFF saves .tiff files.
	FormatTIFF ImageFormat = "tiff"
)

// ImageFormats lists every supported output format.
var ImageFormats = []ImageFormat{FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF}

// ParseImageFormat parses a format name, case-insensitively. "jpeg" and
// "tif" are accepted as aliases.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// Extension returns the file extension without the dot.
func (f ImageFormat) Extension() string {
	if f == "" {
		return string(FormatPNG)
	}
	return string(f)
}

// Layout decides where a date's file lives below the output folder.
type Layout int

const (
	// LayoutFlat stores every file directly in the folder: 2023-05-01.png
	LayoutFlat Layout = iota

	// LayoutTree nests files by year and month: 2023/05/01.png
	LayoutTree
)

// ParseLayout parses "flat" or "tree".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "", "flat":
		return LayoutFlat, nil
	case "tree", "nested":
		return LayoutTree, nil
	}
	return LayoutFlat, fmt.Errorf("unknown layout %q", s)
}

func (l Layout) String() string {
	if l == LayoutTree {
		return "tree"
	}
	return "flat"
}

// Path returns the output file path of a date below dir.
//
// Example:
//
//	LayoutFlat.Path("/pics", d, FormatPNG) // "/pics/2023-05-01.png"
//	LayoutTree.Path("/pics", d, FormatPNG) // "/pics/2023/05/01.png"
func (l Layout) Path(dir string, d Date, f ImageFormat) string {
	ext := "." + f.Extension()
	if l == LayoutTree {
		return filepath.Join(dir,
			fmt.Sprintf("%04d", d.Year),
			fmt.Sprintf("%02d", int(d.Month)),
			fmt.Sprintf("%02d", d.Day)+ext)
	}
	return filepath.Join(dir, d.String()+ext)
}

// DateFromPath recovers the date from a path relative to the output folder,
// reporting false for paths that do not follow the layout.
func (l Layout) DateFromPath(rel string) (Date, bool) {
	rel = filepath.ToSlash(rel)
	if l == LayoutFlat {
		if strings.Contains(strings.Trim(rel, "/"), "/") {
			return Date{}, false
		}
		return DateFromFilename(rel)
	}

	parts := strings.Split(strings.Trim(rel, "/"), "/")
	if len(parts) < 3 {
		return Date{}, false
	}
	parts = parts[len(parts)-3:]
	day := path.Base(parts[2])
	if i := strings.Index(day, "."); i >= 0 {
		day = day[:i]
	}
	d, err := ParseDate(parts[0] + "-" + parts[1] + "-" + day)
	if err != nil {
		return Date{}, false
	}
	return d, true
}
