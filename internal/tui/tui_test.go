package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/everygarf/internal/config"
	"github.com/handiism/everygarf/internal/download"
	"github.com/handiism/everygarf/internal/model"
	"github.com/spf13/afero"
)

func newTestModel() Model {
	s := config.DefaultSettings()
	s.Folder = "/comics"
	return NewModel(s, afero.NewMemMapFs())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestToggles(t *testing.T) {
	m := newTestModel()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.settings.OutputLayout() != model.LayoutTree {
		t.Errorf("layout = %s, want tree", m.settings.Layout)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.settings.UseProxy {
		t.Error("proxy still enabled")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	if m.settings.UseCache {
		t.Error("cache still enabled")
	}
	if m.textInput.Value() != "" {
		t.Errorf("toggle leaked into input: %q", m.textInput.Value())
	}
}

func TestInitDone(t *testing.T) {
	m := newTestModel()
	m.state = StateInitializing

	failed := update(t, m, InitDoneMsg{Err: errors.New("proxy service unavailable")})
	if failed.state != StateError || !strings.Contains(failed.View(), "proxy service unavailable") {
		t.Errorf("state = %v, view:\n%s", failed.state, failed.View())
	}

	upToDate := update(t, m, InitDoneMsg{Plan: &download.Plan{}})
	if upToDate.state != StateComplete || !strings.Contains(upToDate.View(), "up to date") {
		t.Errorf("state = %v, view:\n%s", upToDate.state, upToDate.View())
	}
}

func TestDownloadDone(t *testing.T) {
	m := newTestModel()
	m.state = StateDownloading

	done := update(t, m, DownloadDoneMsg{Summary: download.Summary{Total: 3, Succeeded: 3, Bytes: 3000}})
	if done.state != StateComplete {
		t.Fatalf("state = %v, want complete", done.state)
	}
	if !strings.Contains(done.View(), "Downloaded 3 of 3 images") {
		t.Errorf("view:\n%s", done.View())
	}

	again := update(t, done, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if again.state != StateInput || again.summary.Total != 0 {
		t.Errorf("reset failed: state %v", again.state)
	}
}

func TestLogBuffer(t *testing.T) {
	l := &logBuffer{}
	for i := 0; i < maxLogs+5; i++ {
		l.add(download.ProgressEvent{Message: "warn", Level: download.LevelWarning})
	}
	l.add(download.ProgressEvent{Message: "step", Level: download.LevelVerbose, Step: download.StepPage})
	l.add(download.ProgressEvent{Message: "saved", Level: download.LevelSuccess, Step: download.StepSaved})

	if got := len(l.snapshot()); got != maxLogs {
		t.Errorf("entries = %d, want %d", got, maxLogs)
	}
	for _, e := range l.snapshot() {
		if e.Message != "warn" {
			t.Errorf("unexpected entry %q", e.Message)
		}
	}
}
