package download

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/handiism/everygarf/internal/model"
	"github.com/handiism/everygarf/internal/source"
)

// Client is the part of the HTTP client a job needs.
type Client interface {
	GetString(ctx context.Context, url string) (string, error)
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}

// CacheRecorder appends resolved image URLs to the cache file.
type CacheRecorder interface {
	Append(path string, date model.Date, url string) error
}

// ImageStore decodes downloaded bytes and writes the re-encoded image.
type ImageStore interface {
	Decode(data []byte) (image.Image, error)
	Save(img image.Image, path string, format model.ImageFormat) error
}

// Steps reported through ProgressEvent.Step.
const (
	StepPage  = "page"
	StepImage = "image"
	StepSaved = "saved"
)

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Client      Client
	Adapter     source.Adapter
	Proxy       source.Proxy
	ProxyImages bool
	Images      ImageStore

	// Cache and CachePath are optional; resolved URLs are recorded only
	// when both are set.
	Cache     CacheRecorder
	CachePath string

	Dir    string
	Layout model.Layout
	Format model.ImageFormat

	Attempts int
	// Cooldown returns the wait before retry number tries (0-based).
	// Nil retries immediately.
	Cooldown func(tries int) time.Duration
	// Percent reports overall run progress for step events. May be nil.
	Percent func() float64

	OnProgress func(ProgressEvent)
}

// Pipeline runs a single job through ResolveURL, RecordCache, FetchBytes,
// Decode and Save, retrying transient failures.
type Pipeline struct {
	cfg   PipelineConfig
	bytes atomic.Int64
}

// Outcome is the result of one job.
type Outcome struct {
	Job      model.Job
	Path     string
	URL      string
	Bytes    int
	Attempts int
	Err      error
}

// OK reports whether the image was saved.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// NewPipeline creates a Pipeline. Attempts below 1 are treated as 1.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Pipeline{cfg: cfg}
}

// Bytes returns the number of image bytes downloaded so far.
func (p *Pipeline) Bytes() int64 {
	return p.bytes.Load()
}

// Run downloads the image for job and returns once it is saved, the attempt
// budget is spent, a fatal error occurs or ctx is done.
//
// Every attempt of an uncached job scrapes the page again. A resolved URL is
// appended to the cache whenever it differs from the last one recorded for
// the job, so the newest URL wins on normalize; a failure to record it is
// fatal. A job never leaves a partial file behind.
func (p *Pipeline) Run(ctx context.Context, job model.Job) Outcome {
	out := Outcome{
		Job:  job,
		Path: p.cfg.Layout.Path(p.cfg.Dir, job.Date, p.cfg.Format),
		URL:  job.URL,
	}

	recorded := ""
	var lastErr error
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		out.Attempts = attempt

		err := p.attempt(ctx, job, &out, &recorded)
		if err == nil {
			p.progress(ProgressEvent{
				Message: fmt.Sprintf("%s saved to %s", job.Date, out.Path),
				Level:   LevelSuccess,
				Date:    job.Date,
				Slot:    job.Slot,
				Attempt: attempt,
				Step:    StepSaved,
				Percent: p.percent(),
			})
			return out
		}

		if ctx.Err() != nil {
			out.Err = ctx.Err()
			return out
		}
		if !IsRetryable(err) {
			out.Err = err
			p.progress(ProgressEvent{
				Message: fmt.Sprintf("%s %v", job.Date, err),
				Level:   LevelError,
				Date:    job.Date,
				Slot:    job.Slot,
				Attempt: attempt,
			})
			return out
		}

		lastErr = err
		p.progress(ProgressEvent{
			Message: fmt.Sprintf("[Attempt %d] #%d %s: %v", attempt, job.Slot, job.Date, err),
			Level:   LevelWarning,
			Date:    job.Date,
			Slot:    job.Slot,
			Attempt: attempt,
		})

		if attempt < p.cfg.Attempts {
			p.waitForRetry(ctx, attempt-1)
		}
	}

	out.Err = fmt.Errorf("%s failed after %d attempts: %w", job.Date, p.cfg.Attempts, lastErr)
	p.progress(ProgressEvent{
		Message: out.Err.Error(),
		Level:   LevelError,
		Date:    job.Date,
		Slot:    job.Slot,
		Attempt: p.cfg.Attempts,
	})
	return out
}

func (p *Pipeline) attempt(ctx context.Context, job model.Job, out *Outcome, recorded *string) error {
	out.URL = job.URL
	if out.URL == "" {
		p.step(job, StepPage)
		url, err := p.resolveURL(ctx, job.Date)
		if err != nil {
			return err
		}
		out.URL = url
	}

	if out.URL != *recorded && p.cfg.Cache != nil && p.cfg.CachePath != "" {
		if err := p.cfg.Cache.Append(p.cfg.CachePath, job.Date, out.URL); err != nil {
			return &Error{Kind: KindIO, Op: OpRecordCache, Date: job.Date, Err: err}
		}
		*recorded = out.URL
	}

	p.step(job, StepImage)
	imageURL := out.URL
	if p.cfg.ProxyImages {
		imageURL = p.cfg.Proxy.Route(imageURL)
	}
	data, err := p.cfg.Client.DownloadBytes(ctx, imageURL)
	if err != nil {
		return fetchError(OpFetchImage, job.Date, err)
	}
	p.bytes.Add(int64(len(data)))
	out.Bytes = len(data)

	img, err := p.cfg.Images.Decode(data)
	if err != nil {
		return &Error{Kind: KindDecode, Op: OpDecode, Date: job.Date, Err: err}
	}

	if err := p.cfg.Images.Save(img, out.Path, p.cfg.Format); err != nil {
		return &Error{Kind: KindIO, Op: OpSave, Date: job.Date, Err: err}
	}
	return nil
}

func (p *Pipeline) resolveURL(ctx context.Context, date model.Date) (string, error) {
	page := p.cfg.Proxy.Route(p.cfg.Adapter.PageURL(date))
	body, err := p.cfg.Client.GetString(ctx, page)
	if err != nil {
		return "", fetchError(OpFetchPage, date, err)
	}
	url, ok := p.cfg.Adapter.ExtractImageURL(body)
	if !ok {
		return "", &Error{Kind: KindExtraction, Op: OpExtractURL, Date: date, Err: ErrNoImageURL}
	}
	return url, nil
}

func (p *Pipeline) step(job model.Job, step string) {
	p.progress(ProgressEvent{
		Message: fmt.Sprintf("%s #%d [%s]", job.Date, job.Slot, step),
		Level:   LevelVerbose,
		Date:    job.Date,
		Slot:    job.Slot,
		Step:    step,
		Percent: p.percent(),
	})
}

func (p *Pipeline) percent() float64 {
	if p.cfg.Percent == nil {
		return 0
	}
	return p.cfg.Percent()
}

func (p *Pipeline) waitForRetry(ctx context.Context, tries int) {
	if p.cfg.Cooldown == nil {
		return
	}
	cooldown := p.cfg.Cooldown(tries)
	if cooldown <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(cooldown):
	}
}

func (p *Pipeline) progress(event ProgressEvent) {
	if p.cfg.OnProgress != nil {
		p.cfg.OnProgress(event)
	}
}

// isCanceled reports whether err comes from the run being stopped rather
// than from the job itself.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
