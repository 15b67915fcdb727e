// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Preparing the output folder (CreateTargetDir)
//   - Finding strips already on disk (ExistingDates)
//   - Decoding downloaded images and saving them in the chosen format
//
// # Existing Files
//
//	dates, err := ioutils.ExistingDates(fs, "/pics/garfield", model.LayoutFlat)
//	// "2023-05-01.png" -> 2023-05-01, "notes.txt" -> skipped
//
// # Image Processing
//
// The ImageService handles strip conversion:
//
//	svc := ioutils.NewImageService(fs)
//	img, _ := svc.Decode(gifData)
//	_ = svc.Save(img, "/pics/garfield/2023-05-01.png", model.FormatPNG)
package ioutils
