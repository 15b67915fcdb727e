// Package tui provides a Bubble Tea terminal user interface for everygarf.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/everygarf/internal/config"
	"github.com/handiism/everygarf/internal/download"
	ioutils "github.com/handiism/everygarf/internal/io"
	"github.com/handiism/everygarf/internal/model"
	"github.com/handiism/everygarf/internal/report"
	"github.com/spf13/afero"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// logBuffer keeps the latest progress events. Jobs report from many
// goroutines while the UI reads on each tick.
type logBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	verbose bool
}

func (l *logBuffer) add(e download.ProgressEvent) {
	if e.Level == download.LevelVerbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Step != "" && e.Level == download.LevelSuccess && !l.verbose {
		return
	}
	l.entries = append(l.entries, LogEntry{Message: e.Message, Level: e.Level})
	if len(l.entries) > maxLogs {
		l.entries = l.entries[len(l.entries)-maxLogs:]
	}
}

func (l *logBuffer) setVerbose(v bool) {
	l.mu.Lock()
	l.verbose = v
	l.mu.Unlock()
}

func (l *logBuffer) snapshot() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	fs        afero.Fs
	logs      *logBuffer
	plan      *download.Plan
	summary   download.Summary
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Download manager reference
	manager *download.Manager

	// Download progress
	completed int
	total     int
	received  int64

	width  int
	height int
}

// NewModel creates a new TUI model starting from settings.
func NewModel(settings *config.Settings, fs afero.Fs) Model {
	ti := textinput.New()
	ti.Placeholder = settings.Folder
	if ti.Placeholder == "" {
		if folder, err := ioutils.DefaultFolder(); err == nil {
			ti.Placeholder = folder
		}
	}
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8B500"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		fs:        fs,
		logs:      &logBuffer{verbose: settings.Verbose},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when the missing dates have been worked out.
	InitDoneMsg struct {
		Plan    *download.Plan
		Manager *download.Manager
		Err     error
	}

	// DownloadDoneMsg is sent when all downloads complete.
	DownloadDoneMsg struct {
		Summary download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput {
				if folder := strings.TrimSpace(m.textInput.Value()); folder != "" {
					m.settings.Folder = folder
				} else {
					m.settings.Folder = m.textInput.Placeholder
				}
				if err := m.settings.Validate(time.Now()); err != nil {
					m.state = StateError
					m.err = err
					return m, nil
				}
				m.state = StateInitializing
				return m, tea.Batch(m.initializeDownload(), m.spinner.Tick)
			}

		case "ctrl+t":
			if m.state == StateInput {
				if m.settings.OutputLayout() == model.LayoutTree {
					m.settings.Layout = model.LayoutFlat.String()
				} else {
					m.settings.Layout = model.LayoutTree.String()
				}
				return m, nil
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.settings.UseProxy = !m.settings.UseProxy
				return m, nil
			}

		case "ctrl+e":
			if m.state == StateInput {
				m.settings.UseCache = !m.settings.UseCache
				return m, nil
			}

		case "ctrl+l":
			if m.state == StateInput {
				m.settings.Verbose = !m.settings.Verbose
				m.logs.setVerbose(m.settings.Verbose)
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = &logBuffer{verbose: m.settings.Verbose}
				m.plan = nil
				m.summary = download.Summary{}
				m.err = nil
				m.completed = 0
				m.total = 0
				m.received = 0
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		switch {
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case len(msg.Plan.Jobs) == 0:
			m.plan = msg.Plan
			m.state = StateComplete
		default:
			m.plan = msg.Plan
			m.manager = msg.Manager
			m.total = len(msg.Plan.Jobs)
			m.state = StateDownloading
			// Start the actual download and tick for progress updates
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m.summary = msg.Summary
		m.completed = msg.Summary.Succeeded + msg.Summary.Failed
		m.received = msg.Summary.Bytes
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		// Update progress from manager
		if m.manager != nil && m.state == StateDownloading {
			m.completed, m.total = m.manager.GetProgress()
			m.received = m.manager.Received()

			// Calculate percentage and animate progress bar
			var percent float64
			if m.total > 0 {
				percent = float64(m.completed) / float64(m.total)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("everygarf"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download every Garfield comic, to date"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Output folder:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Year/month folders (ctrl+t)\n", checkbox(m.settings.OutputLayout() == model.LayoutTree)))
	b.WriteString(fmt.Sprintf("  %s Use proxy (ctrl+p)\n", checkbox(m.settings.UseProxy)))
	b.WriteString(fmt.Sprintf("  %s Use URL cache (ctrl+e)\n", checkbox(m.settings.UseCache)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+l)\n", checkbox(m.settings.Verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Source: %s | Format: %s | Jobs: %d", m.settings.Source, m.settings.Format, m.settings.Concurrency)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking for missing strips..."))
	b.WriteString("\n\n")

	// Show logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.plan != nil {
		b.WriteString(successStyle.Render(fmt.Sprintf("%d strip(s) missing, %d URL(s) cached", len(m.plan.Jobs), m.plan.Cached)))
		b.WriteString("\n\n")
	}

	// Progress bar
	var percent float64
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Strips: %d/%d | Downloaded: %s",
		m.completed,
		m.total,
		humanize.Bytes(uint64(m.received)),
	)))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	if m.summary.Total == 0 {
		return boxStyle.Render("Everything is up to date")
	}
	return boxStyle.Render("Download complete!\n\n" + report.Summary(m.summary))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	if m.summary.Total > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(report.Summary(m.summary)))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs.snapshot() {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+t: layout • ctrl+p: proxy • ctrl+e: cache • ctrl+l: verbose • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// initializeDownload works out the missing dates and creates the manager.
func (m *Model) initializeDownload() tea.Cmd {
	ctx, settings, fs, logs := m.ctx, m.settings, m.fs, m.logs
	return func() tea.Msg {
		manager := download.NewManager(settings, fs, logs.add)

		plan, err := manager.Prepare(ctx)
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{
			Plan:    plan,
			Manager: manager,
		}
	}
}

// startDownload starts the actual download in background.
func (m *Model) startDownload() tea.Cmd {
	ctx, manager := m.ctx, m.manager
	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}

		summary, err := manager.Run(ctx)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application with the default settings.
func Run() error {
	p := tea.NewProgram(NewModel(config.DefaultSettings(), afero.NewOsFs()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
