package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/lipgloss"
	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gen2brain/beeep"
	"github.com/handiism/everygarf/internal/download"
	"github.com/handiism/everygarf/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AppName is used as the notification title and fatal block heading.
const AppName = "everygarf"

var (
	pageColor  = color.New(color.FgYellow)
	imageColor = color.New(color.FgCyan)
	savedColor = color.New(color.FgGreen, color.Bold)
	dimColor   = color.New(color.Faint)

	fatalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 2)

	fatalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
)

// SetupLogging routes the global zerolog logger to standard error through a
// console writer. verbose enables debug output.
func SetupLogging(verbose bool) {
	logLevel := zerolog.InfoLevel
	if verbose {
		logLevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	})
}

// StepLine formats one pipeline step: date, worker slot, overall percentage
// and the step name, coloured by step.
func StepLine(date model.Date, slot int, percent float64, step string) string {
	c := dimColor
	switch step {
	case download.StepPage:
		c = pageColor
	case download.StepImage:
		c = imageColor
	case download.StepSaved:
		c = savedColor
	}
	return fmt.Sprintf("%s  %s  %s  %s",
		date,
		dimColor.Sprintf("#%-2d", slot),
		fmt.Sprintf("%5.1f%%", percent),
		c.Sprintf("[%s]", step),
	)
}

// Summary formats the end-of-run line.
func Summary(s download.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Downloaded %s of %s images", humanize.Comma(int64(s.Succeeded)), humanize.Comma(int64(s.Total)))
	if s.Failed > 0 || s.Skipped > 0 {
		fmt.Fprintf(&b, " (%d failed, %d skipped)", s.Failed, s.Skipped)
	}
	fmt.Fprintf(&b, ", %s in %s", humanize.Bytes(uint64(s.Bytes)), s.Elapsed.Round(time.Millisecond))
	return b.String()
}

// FatalBlock renders msg in a bordered block.
func FatalBlock(msg string) string {
	return fatalStyle.Render(fatalTitleStyle.Render(AppName+" failed") + "\n\n" + msg)
}

// Notify shows a desktop notification with styling stripped from msg.
func Notify(msg string) error {
	return beeep.Notify(AppName, stripansi.Strip(msg), "")
}

// Fatal prints msg in a bordered block to standard error, optionally sends a
// desktop notification, and exits with code.
func Fatal(code int, msg string, notify bool) {
	fmt.Fprintln(os.Stderr, FatalBlock(msg))
	if notify {
		if err := Notify(msg); err != nil {
			log.Debug().Err(err).Msg("Desktop notification failed")
		}
	}
	os.Exit(code)
}

// Reporter turns download progress events into terminal output: a progress
// bar for large batches, one coloured line per step otherwise. Log messages
// go through zerolog.
type Reporter struct {
	out io.Writer
	bar *pb.ProgressBar
	mu  sync.Mutex
}

// NewReporter creates a Reporter writing step lines to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// UseBar reports whether a batch of jobCount jobs at the given concurrency
// should show a progress bar instead of step lines.
func UseBar(jobCount, concurrency, multiplier int) bool {
	return multiplier > 0 && jobCount >= concurrency*multiplier
}

// StartBar switches the Reporter to a progress bar over total jobs.
func (r *Reporter) StartBar(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bar := pb.New(total)
	bar.SetTemplate(`{{ string . "prefix" }} {{ counters . }} {{ bar . }} {{ percent . }} {{ rtime . "ETA %s"}}`)
	bar.Set("prefix", "Downloading")
	bar.SetWriter(r.out)
	bar.SetMaxWidth(100)
	bar.SetRefreshRate(time.Second)
	bar.Start()
	r.bar = bar
}

// Finish stops the progress bar, if any.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
}

// Handle is a download.Manager progress callback.
func (r *Reporter) Handle(e download.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Level {
	case download.LevelInfo:
		log.Info().Msg(e.Message)

	case download.LevelVerbose:
		if e.Step != "" {
			if r.bar == nil {
				fmt.Fprintln(r.out, StepLine(e.Date, e.Slot, e.Percent, e.Step))
			}
			return
		}
		log.Debug().Msg(e.Message)

	case download.LevelWarning:
		log.Warn().Str("date", e.Date.String()).Int("slot", e.Slot).Int("attempt", e.Attempt).Msg(e.Message)

	case download.LevelError:
		ev := log.Error()
		if !e.Date.IsZero() {
			ev = ev.Str("date", e.Date.String())
			if r.bar != nil {
				r.bar.Increment()
			}
		}
		ev.Msg(e.Message)

	case download.LevelSuccess:
		if e.Step == "" {
			log.Info().Msg(e.Message)
			return
		}
		if r.bar != nil {
			r.bar.Increment()
			return
		}
		fmt.Fprintln(r.out, StepLine(e.Date, e.Slot, e.Percent, e.Step))
	}
}
