package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Refragg/LoadlessUnleashed/internal/cut"
	"github.com/Refragg/LoadlessUnleashed/internal/media"
	"github.com/Refragg/LoadlessUnleashed/internal/stats"
	"github.com/Refragg/LoadlessUnleashed/internal/timeseries"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to refresh the segment snapshot.
type TickMsg time.Time

// StageMsg announces a pipeline stage change.
type StageMsg cut.Stage

// ConcatProgressMsg carries concatenation progress.
type ConcatProgressMsg media.Progress

// DoneMsg signals the recut finished (or failed).
type DoneMsg struct {
	Result cut.Result
	Err    error
}

// =============================================================================
// Model
// =============================================================================

// Model is the dashboard state. The cutter pushes stage changes and the
// final result through the tea.Program; segment detail is pulled from
// the tracker on every tick.
type Model struct {
	// Run identity
	timesFile string
	videoFile string
	output    string

	// Report digest shown in the header block
	summary stats.Summary

	// Live sources. The tracker does not exist until the cutter has
	// probed and planned, so it may also arrive later via source.
	source     RecutSource
	tracker    *cut.Tracker
	throughput *timeseries.ThroughputTracker

	// Current state
	stage    cut.Stage
	segments []cut.SegmentStatus
	rates    timeseries.ThroughputStats
	concat   media.Progress
	result   *cut.Result
	err      error

	// Display
	bar     progress.Model
	spin    spinner.Model
	width   int
	height  int
	started time.Time

	// Cancel aborts the cutter's context when the user quits early.
	cancel func()

	quitting bool
}

// RecutSource exposes the cutter's live state to the dashboard.
type RecutSource interface {
	Tracker() *cut.Tracker
	Throughput() *timeseries.ThroughputTracker
}

// Config holds the dashboard configuration. Either Source or the
// Tracker/Throughput pair feeds the live sections.
type Config struct {
	TimesFile  string
	VideoFile  string
	Output     string
	Summary    stats.Summary
	Source     RecutSource
	Tracker    *cut.Tracker
	Throughput *timeseries.ThroughputTracker
	Cancel     func()
}

// New creates a dashboard model.
func New(cfg Config) Model {
	bar := progress.New(progress.WithDefaultGradient())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtitleStyle

	return Model{
		timesFile:  cfg.TimesFile,
		videoFile:  cfg.VideoFile,
		output:     cfg.Output,
		summary:    cfg.Summary,
		source:     cfg.Source,
		tracker:    cfg.Tracker,
		throughput: cfg.Throughput,
		cancel:     cfg.Cancel,
		bar:        bar,
		spin:       sp,
		started:    time.Now(),
		width:      80,
		height:     24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init starts the tick loop and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spin.Tick)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 12
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case TickMsg:
		if m.source != nil {
			if m.tracker == nil {
				m.tracker = m.source.Tracker()
			}
			if m.throughput == nil {
				m.throughput = m.source.Throughput()
			}
		}
		if m.tracker != nil {
			m.segments = m.tracker.Snapshot()
		}
		if m.throughput != nil {
			m.rates = m.throughput.Stats()
		}
		return m, tickCmd()

	case StageMsg:
		m.stage = cut.Stage(msg)
		return m, nil

	case ConcatProgressMsg:
		m.concat = media.Progress(msg)
		return m, nil

	case DoneMsg:
		m.result = &msg.Result
		m.err = msg.Err
		if m.tracker != nil {
			m.segments = m.tracker.Snapshot()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.result != nil || m.err != nil {
		return m.renderFinished()
	}
	return m.renderRunning()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd schedules the next snapshot refresh.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the dashboard started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.started)
}

// OverallFraction returns the weighted extraction progress, or the
// concat progress once that stage has begun.
func (m Model) OverallFraction() float64 {
	if m.stage == cut.StageConcat {
		return m.concat.Fraction
	}
	if m.tracker == nil {
		return 0
	}
	return m.tracker.OverallFraction()
}

// =============================================================================
// Helpers for the cutter side
// =============================================================================

// Callbacks returns cutter callbacks that feed this dashboard through
// the program. Safe to invoke from worker goroutines.
func Callbacks(p *tea.Program) cut.Callbacks {
	return cut.Callbacks{
		OnStage: func(s cut.Stage) {
			p.Send(StageMsg(s))
		},
		OnConcatProgress: func(prog media.Progress) {
			p.Send(ConcatProgressMsg(prog))
		},
	}
}

// SendDone delivers the final result to the dashboard.
func SendDone(p *tea.Program, res cut.Result, err error) {
	if p != nil {
		p.Send(DoneMsg{Result: res, Err: err})
	}
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, mm, s)
}

// formatRate formats a byte rate with unit suffixes.
func formatRate(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1_000_000:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/1_000_000)
	case bytesPerSec >= 1_000:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1_000)
	}
	return fmt.Sprintf("%.0f B/s", bytesPerSec)
}
