package ioutils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/handiism/everygarf/internal/model"
	"github.com/spf13/afero"

	// Decoders for formats the comic CDNs occasionally serve.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when downloaded bytes are not a readable image.
var ErrDecode = errors.New("cannot decode image")

// ImageService decodes downloaded strips and writes them in the configured
// output format.
//
// Example usage:
//
//	svc := NewImageService(afero.NewOsFs())
//
//	img, err := svc.Decode(data)
//	if err != nil {
//	    // corrupt or truncated download: retry
//	}
//	err = svc.Save(img, "/pics/2023-05-01.png", model.FormatPNG)
type ImageService struct {
	fs afero.Fs
}

// NewImageService creates a new ImageService writing to fsys.
func NewImageService(fsys afero.Fs) *ImageService {
	return &ImageService{fs: fsys}
}

// DetectFormat reads the magic bytes of data and returns the container
// format it was served in ("jpeg", "png", "gif", "webp" or "bmp").
func DetectFormat(data []byte) (string, error) {
	if len(data) < 12 {
		return "", errors.New("data too short to determine format")
	}

	switch {
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpeg", nil
	case data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "png", nil
	case string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a":
		return "gif", nil
	case string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp", nil
	case data[0] == 'B' && data[1] == 'M':
		return "bmp", nil
	}
	return "", errors.New("unknown image format")
}

// Decode parses data in whatever container format it was served in.
//
// Returns an error wrapping ErrDecode for empty, truncated or unknown data.
func (s *ImageService) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		if format, ferr := DetectFormat(data); ferr == nil {
			return nil, fmt.Errorf("%w: %s data: %v", ErrDecode, format, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Save encodes img in format and writes it to path, replacing any existing
// file. Parent directories are created as needed.
//
// The image is written to a temporary file in the same directory and then
// renamed, so a failed save never leaves a partial file at path.
func (s *ImageService) Save(img image.Image, path string, format model.ImageFormat) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encoderFormat(format), imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("encoding %s: %w", format.Extension(), err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".everygarf-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}

func encoderFormat(format model.ImageFormat) imaging.Format {
	switch format {
	case model.FormatJPEG:
		return imaging.JPEG
	case model.FormatGIF:
		return imaging.GIF
	case model.FormatBMP:
		return imaging.BMP
	case model.FormatTIFF:
		return imaging.TIFF
	default:
		return imaging.PNG
	}
}
