package download

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/everygarf/internal/cache"
	"github.com/handiism/everygarf/internal/http"
	ioutils "github.com/handiism/everygarf/internal/io"
	"github.com/handiism/everygarf/internal/model"
)

// Kind classifies a failure. Network, status, extraction and decode failures
// are transient and retried; the rest stop the job or the run.
type Kind int

const (
	KindNetwork Kind = iota
	KindStatus
	KindExtraction
	KindDecode
	KindIO
	KindParse
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "http status"
	case KindExtraction:
		return "extraction"
	case KindDecode:
		return "decode"
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Operation names carried by Error.Op.
const (
	OpFetchPage      = "fetch page"
	OpExtractURL     = "extract image url"
	OpRecordCache    = "record cache"
	OpFetchImage     = "fetch image"
	OpDecode         = "decode image"
	OpSave           = "save image"
	OpStartDate      = "start date"
	OpSource         = "source"
	OpTargetDir      = "target directory"
	OpExistingDates  = "existing dates"
	OpProxyPing      = "proxy ping"
	OpLoadCache      = "load cache"
	OpNormalizeCache = "normalize cache"
)

var (
	// ErrNoImageURL is returned when a source page carries no image URL.
	ErrNoImageURL = errors.New("no image url found in page")

	// ErrJobsFailed is returned by Run when at least one job failed for good.
	ErrJobsFailed = errors.New("some images failed to download")
)

// Error is a classified failure of one step.
type Error struct {
	Kind Kind
	Op   string
	Date model.Date // zero outside of jobs
	Err  error
}

func (e *Error) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Date, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindStatus, KindExtraction, KindDecode:
		return true
	default:
		return false
	}
}

// Classify returns the Kind of err. Unclassified errors count as network
// failures.
func Classify(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var se *http.StatusError
	switch {
	case errors.As(err, &se):
		return KindStatus
	case errors.Is(err, ioutils.ErrDecode):
		return KindDecode
	case errors.Is(err, cache.ErrParse):
		return KindParse
	default:
		return KindNetwork
	}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable()
	}
	return true
}

func fetchError(op string, date model.Date, err error) *Error {
	kind := KindNetwork
	var se *http.StatusError
	if errors.As(err, &se) {
		kind = KindStatus
	}
	return &Error{Kind: kind, Op: op, Date: date, Err: err}
}
