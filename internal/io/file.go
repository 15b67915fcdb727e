// Package ioutils provides file system and image utilities for everygarf.
//
// All functions operate on an afero.Fs so the whole output tree can be
// exercised in memory.
package ioutils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/handiism/everygarf/internal/model"
	"github.com/spf13/afero"
)

// ErrNotDir is returned when the output path exists but is a regular file.
var ErrNotDir = errors.New("output path exists and is not a directory")

// CreateTargetDir makes sure path is an existing directory.
//
// When removeExisting is true an existing directory is deleted first, with
// everything inside it. Directories are created with mode 0755.
//
// Returns ErrNotDir if a file is in the way.
func CreateTargetDir(fsys afero.Fs, path string, removeExisting bool) error {
	info, err := fsys.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotDir, path)
	case err == nil && !removeExisting:
		return nil
	case err == nil:
		if err := fsys.RemoveAll(path); err != nil {
			return err
		}
	case !errors.Is(err, os.ErrNotExist):
		return err
	}
	return fsys.MkdirAll(path, 0755)
}

// ExistingDates returns the dates of files already present in dir.
//
// With LayoutFlat only direct children are considered; with LayoutTree the
// YYYY/MM/DD.ext hierarchy is walked. Files whose names do not follow the
// layout are skipped silently, so stray user files never fail a run. The
// image format is ignored: a strip saved as gif counts when downloading png.
func ExistingDates(fsys afero.Fs, dir string, layout model.Layout) ([]model.Date, error) {
	if layout == model.LayoutFlat {
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return nil, err
		}
		dates := make([]model.Date, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if d, ok := layout.DateFromPath(entry.Name()); ok {
				dates = append(dates, d)
			}
		}
		return dates, nil
	}

	var dates []model.Date
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		if d, ok := layout.DateFromPath(rel); ok {
			dates = append(dates, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// DefaultFolder returns the folder used when none is given: a "garfield"
// directory inside the user's pictures folder, falling back to documents
// and then the home directory.
func DefaultFolder() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot automatically find an appropriate folder location, please enter a folder manually")
	}
	for _, parent := range []string{"Pictures", "Documents"} {
		candidate := filepath.Join(home, parent)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Join(candidate, "garfield"), nil
		}
	}
	return filepath.Join(home, "garfield"), nil
}
