package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/handiism/everygarf/internal/cache"
	"github.com/handiism/everygarf/internal/config"
	"github.com/handiism/everygarf/internal/http"
	ioutils "github.com/handiism/everygarf/internal/io"
	"github.com/handiism/everygarf/internal/model"
	"github.com/handiism/everygarf/internal/source"
	"github.com/spf13/afero"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update. Job events carry the
// date, worker slot and attempt; step events also carry the step name and
// overall completion percentage.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	Date    model.Date
	Slot    int
	Attempt int
	Step    string
	Percent float64
}

// Prober is used for the pre-flight requests: proxy ping and remote cache
// download. It normally has a shorter timeout than the job client.
type Prober interface {
	source.Pinger
	cache.Fetcher
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClient replaces the HTTP client used by jobs.
func WithClient(c Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithProber replaces the HTTP client used for pre-flight requests.
func WithProber(p Prober) Option {
	return func(m *Manager) { m.prober = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Plan is what Prepare found out about the run.
type Plan struct {
	Start    model.Date
	Latest   model.Date
	Existing int
	Missing  []model.Date
	Jobs     []model.Job
	Cached   int  // jobs with a known image URL
	Pinged   bool // whether the proxy was checked
}

// Summary describes a finished run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int // never started or stopped by cancellation
	Bytes     int64
	Elapsed   time.Duration
	Failures  []Outcome
}

// Manager coordinates a download run.
type Manager struct {
	settings *config.Settings
	fs       afero.Fs
	client   Client
	prober   Prober
	adapter  source.Adapter
	cache    *cache.Store
	images   *ioutils.ImageService
	now      func() time.Time

	plan      *Plan
	scheduler *Scheduler
	pipeline  *Pipeline

	onProgress func(ProgressEvent)
	mu         sync.Mutex
}

// NewManager creates a new download Manager writing to fs. Settings must
// have been validated.
func NewManager(settings *config.Settings, fs afero.Fs, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings:   settings,
		fs:         fs,
		cache:      cache.NewStore(fs, settings.CacheBase),
		images:     ioutils.NewImageService(fs),
		now:        time.Now,
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.client == nil {
		m.client = http.NewClient(http.Options{
			Timeout:   settings.Timeout(),
			UserAgent: settings.UserAgent,
			RateLimit: settings.RateLimit,
		})
	}
	if m.prober == nil {
		m.prober = http.NewClient(http.Options{
			Timeout:   settings.ProbeTimeout(),
			UserAgent: settings.UserAgent,
		})
	}
	return m
}

// Prepare works out which dates are missing and builds the jobs for them.
// In query-only mode it stops after counting, without touching the network.
func (m *Manager) Prepare(ctx context.Context) (*Plan, error) {
	s := m.settings

	adapter, err := source.Lookup(s.Source)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: OpSource, Err: err}
	}
	m.adapter = adapter

	now := m.now()
	start, err := s.Start(now)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: OpStartDate, Err: err}
	}
	plan := &Plan{Start: start, Latest: model.Latest(now)}

	if err := ioutils.CreateTargetDir(m.fs, s.Folder, s.RemoveAll && !s.QueryOnly); err != nil {
		return nil, &Error{Kind: KindIO, Op: OpTargetDir, Err: err}
	}

	existing, err := ioutils.ExistingDates(m.fs, s.Folder, s.OutputLayout())
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: OpExistingDates, Err: err}
	}
	plan.Existing = len(existing)

	plan.Missing = model.Missing(model.Range(plan.Start, plan.Latest), existing)
	if s.MaxCount > 0 && len(plan.Missing) > s.MaxCount {
		plan.Missing = plan.Missing[:s.MaxCount]
	}

	m.progress(ProgressEvent{
		Message: fmt.Sprintf("%d images missing (%d already downloaded, %s to %s)", len(plan.Missing), plan.Existing, plan.Start, plan.Latest),
		Level:   LevelInfo,
	})

	m.plan = plan
	if s.QueryOnly || len(plan.Missing) == 0 {
		return plan, nil
	}

	proxy := s.Proxy()
	if proxy.ShouldPing(len(plan.Missing), s.PingThreshold, s.AlwaysPing) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Pinging proxy server at %s", proxy.Base), Level: LevelVerbose})
		if err := proxy.Ping(ctx, m.prober); err != nil {
			return nil, &Error{Kind: KindNetwork, Op: OpProxyPing, Err: err}
		}
		plan.Pinged = true
	}

	var cached cache.Map
	if src := s.CacheSource(); src != "" {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Loading cached image URLs from %s", src), Level: LevelVerbose})
		cached, err = m.cache.Load(ctx, m.prober, src)
		if err != nil {
			return nil, &Error{Kind: Classify(err), Op: OpLoadCache, Err: err}
		}
	}

	plan.Jobs = model.NewJobs(plan.Missing, cached, s.Concurrency)
	for _, job := range plan.Jobs {
		if job.Cached() {
			plan.Cached++
		}
	}
	if plan.Cached > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%d of %d image URLs found in cache", plan.Cached, len(plan.Jobs)), Level: LevelInfo})
	}

	return plan, nil
}

// Run downloads every job built by Prepare.
//
// A job that fails after all its attempts is collected into the summary and
// the run goes on, unless FailFast is set. An IO failure (cache file, image
// file) stops the run either way. The cache file, when saving is enabled, is
// normalized at the end even after a failure.
func (m *Manager) Run(ctx context.Context) (Summary, error) {
	if m.plan == nil {
		return Summary{}, errors.New("download: Run called before Prepare")
	}
	s := m.settings
	jobs := m.plan.Jobs
	summary := Summary{Total: len(jobs)}
	started := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler := NewScheduler(s.Concurrency)
	m.mu.Lock()
	m.scheduler = scheduler
	m.mu.Unlock()

	pipeline := NewPipeline(PipelineConfig{
		Client:      m.client,
		Adapter:     m.adapter,
		Proxy:       s.Proxy(),
		ProxyImages: s.ProxyImages,
		Images:      m.images,
		Cache:       m.cache,
		CachePath:   s.CacheSavePath,
		Dir:         s.Folder,
		Layout:      s.OutputLayout(),
		Format:      s.ImageFormat(),
		Attempts:    s.Attempts,
		Cooldown:    s.Cooldown,
		Percent: func() float64 {
			if len(jobs) == 0 {
				return 100
			}
			return float64(scheduler.Completed()) * 100 / float64(len(jobs))
		},
		OnProgress: m.onProgress,
	})
	m.mu.Lock()
	m.pipeline = pipeline
	m.mu.Unlock()

	var fatal error
	for outcome := range scheduler.Run(ctx, jobs, pipeline.Run) {
		if outcome.OK() {
			summary.Succeeded++
			continue
		}
		if isCanceled(outcome.Err) {
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, outcome)

		if fatal == nil && (s.FailFast || Classify(outcome.Err) == KindIO) {
			fatal = outcome.Err
			cancel()
		}
	}

	summary.Skipped = summary.Total - summary.Succeeded - summary.Failed
	summary.Bytes = pipeline.Bytes()
	summary.Elapsed = time.Since(started)

	if s.CacheSavePath != "" {
		if err := m.cache.Normalize(s.CacheSavePath); err != nil {
			return summary, &Error{Kind: KindIO, Op: OpNormalizeCache, Err: err}
		}
	}

	switch {
	case fatal != nil:
		return summary, fatal
	case summary.Failed > 0:
		return summary, fmt.Errorf("%w: %d of %d", ErrJobsFailed, summary.Failed, summary.Total)
	case summary.Skipped > 0:
		if err := context.Cause(ctx); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// Plan returns the result of the last Prepare, or nil.
func (m *Manager) Plan() *Plan {
	return m.plan
}

// GetProgress returns how many jobs have finished out of the total.
func (m *Manager) GetProgress() (completed, total int) {
	if m.plan == nil {
		return 0, 0
	}
	m.mu.Lock()
	scheduler := m.scheduler
	m.mu.Unlock()
	if scheduler == nil {
		return 0, len(m.plan.Jobs)
	}
	return int(scheduler.Completed()), len(m.plan.Jobs)
}

// Received returns the number of image bytes downloaded so far.
func (m *Manager) Received() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pipeline == nil {
		return 0
	}
	return m.pipeline.Bytes()
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
