package main

import (
	"errors"

	"github.com/handiism/everygarf/internal/config"
	"github.com/handiism/everygarf/internal/download"
	ioutils "github.com/handiism/everygarf/internal/io"
)

// Process exit codes.
const (
	exitOK          = 0
	exitDownload    = 1
	exitNotDir      = 2
	exitCreateDir   = 3
	exitProxy       = 4
	exitCacheLoad   = 5
	exitCacheClean  = 6
	exitReadDir     = 7
	exitConfig      = 8
	exitMissing     = 10
	exitInterrupted = 130
)

// exitCode picks the process exit code for a failed run.
func exitCode(err error) int {
	if errors.Is(err, ioutils.ErrNotDir) {
		return exitNotDir
	}
	if errors.Is(err, config.ErrInvalidSettings) || errors.Is(err, config.ErrBadStartDate) {
		return exitConfig
	}

	var de *download.Error
	if errors.As(err, &de) {
		switch de.Op {
		case download.OpTargetDir:
			return exitCreateDir
		case download.OpExistingDates:
			return exitReadDir
		case download.OpProxyPing:
			return exitProxy
		case download.OpLoadCache:
			return exitCacheLoad
		case download.OpNormalizeCache:
			return exitCacheClean
		case download.OpStartDate, download.OpSource:
			return exitConfig
		}
	}
	return exitDownload
}

// queryExitCode is the exit code of count mode: exitMissing when any strip is
// missing, exitOK otherwise.
func queryExitCode(missing int) int {
	if missing > 0 {
		return exitMissing
	}
	return exitOK
}
