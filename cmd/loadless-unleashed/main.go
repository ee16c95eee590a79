// Package main provides the loadless-unleashed CLI entry point.
//
// loadless-unleashed turns a Sonic Unleashed load-times log into a load
// statistics report and, optionally, recuts the run recording into a
// loadless video with ffmpeg.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/Refragg/LoadlessUnleashed/internal/config"
	"github.com/Refragg/LoadlessUnleashed/internal/cut"
	"github.com/Refragg/LoadlessUnleashed/internal/logging"
	"github.com/Refragg/LoadlessUnleashed/internal/media"
	"github.com/Refragg/LoadlessUnleashed/internal/metrics"
	"github.com/Refragg/LoadlessUnleashed/internal/preflight"
	"github.com/Refragg/LoadlessUnleashed/internal/stats"
	"github.com/Refragg/LoadlessUnleashed/internal/timeline"
	"github.com/Refragg/LoadlessUnleashed/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/loadless-unleashed
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("loadless-unleashed %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// The dashboard takes over the terminal when the recut runs
	// interactively; everything else gets the normal logger.
	useTUI := cfg.CreateVideo && cfg.TUIEnabled && isatty.IsTerminal(os.Stdout.Fd())
	var logger *slog.Logger
	if useTUI {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	logger.Info("starting",
		"version", version,
		"times_file", cfg.TimesPath,
		"video_file", cfg.VideoPath,
		"create_video", cfg.CreateVideo,
		"double_encode", cfg.DoubleEncode,
		"skip_split", cfg.SkipSplit,
	)

	if !cfg.SkipPreflight {
		result := preflight.RunAll(cfg)
		if !result.Passed || !useTUI {
			preflight.PrintResults(result)
		}
		if !result.Passed {
			return 1
		}
	}

	collector := metrics.NewCollector(metrics.CollectorConfig{
		Version:   version,
		TimesFile: cfg.TimesPath,
	})

	// Parse and validate the timeline. Any bad record is fatal before a
	// single byte of report or video exists.
	tl, err := loadTimeline(cfg.TimesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", cfg.TimesPath, err)
		return 1
	}
	collector.RecordParsedEvents(len(tl.Events))
	if !tl.HasStart {
		logger.Warn("run_start_missing", "times_file", cfg.TimesPath)
	}

	sum := stats.Aggregate(tl)
	report := stats.FormatReport(tl, sum)
	reportPath := cfg.ReportFile()
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		return 1
	}
	logger.Info("report_written", "path", reportPath, "loads", len(tl.Loads()))
	collector.RecordReport(categoryUpdates(tl, sum), sum.TotalLoads, sum.RTA, sum.Loadless)

	if !useTUI {
		fmt.Print(report)
	}

	exit := 0
	if cfg.CreateVideo {
		exit = recut(cfg, logger, collector, tl, sum, useTUI)
	}

	// The textfile export happens last so it captures the whole run.
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile, nil); err != nil {
			logger.Error("metrics_textfile_failed", "path", cfg.MetricsTextfile, "error", err)
		} else {
			logger.Info("metrics_textfile_written", "path", cfg.MetricsTextfile)
		}
	}

	return exit
}

// loadTimeline reads and parses the load times log into a timeline.
func loadTimeline(path string) (timeline.Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return timeline.Timeline{}, err
	}
	defer f.Close()

	events, err := timeline.ReadLog(f)
	if err != nil {
		return timeline.Timeline{}, err
	}
	return timeline.Build(events)
}

// recut runs the video pipeline and returns the process exit code.
func recut(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector, tl timeline.Timeline, sum stats.Summary, useTUI bool) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr, logger)
		if err := server.Start(); err != nil {
			logger.Error("metrics_server_failed", "error", err)
			return 1
		}
		defer server.Shutdown(context.Background())
	}

	encoder := media.NewFFmpegEncoder(cfg.FFmpegPath, cfg.FFprobePath, logger)
	encoder.LogLevel = cfg.FFmpegLogLevel
	cutter := cut.NewCutter(cfg, encoder, logger, collector)

	if useTUI {
		return recutWithDashboard(ctx, cancel, cfg, cutter, tl, sum)
	}

	console := cut.NewConsole(os.Stdout, cfg.NoColor)
	cutter.SetCallbacks(console.Callbacks())
	res, err := cutter.Run(ctx, tl)
	if err != nil {
		console.Fail(err)
		return 1
	}
	console.PrintSummary(res)
	return 0
}

// recutWithDashboard drives the cutter under the live TUI. The cutter
// runs in its own goroutine and reports back through the program.
func recutWithDashboard(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, cutter *cut.Cutter, tl timeline.Timeline, sum stats.Summary) int {
	model := tui.New(tui.Config{
		TimesFile: cfg.TimesPath,
		VideoFile: cfg.VideoPath,
		Output:    cfg.OutputFile(),
		Summary:   sum,
		Source:    cutter,
		Cancel:    cancel,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	cutter.SetCallbacks(tui.Callbacks(p))

	var res cut.Result
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, runErr = cutter.Run(ctx, tl)
		tui.SendDone(p, res, runErr)
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Dashboard error: %v\n", err)
		cancel()
	}
	cancel()
	<-done

	// Repeat the outcome on the plain terminal; the alt screen is gone.
	console := cut.NewConsole(os.Stdout, cfg.NoColor)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Println("Recut cancelled.")
		} else {
			console.Fail(runErr)
		}
		return 1
	}
	console.PrintSummary(res)
	return 0
}

// categoryUpdates flattens the summary for the metrics layer. Per-category
// totals come from the timeline because the summary only averages categories
// with two or more loads.
func categoryUpdates(tl timeline.Timeline, sum stats.Summary) []metrics.CategoryUpdate {
	totals := make(map[timeline.Category]time.Duration)
	for _, ev := range tl.Loads() {
		totals[ev.Category] += ev.Load
	}

	updates := make([]metrics.CategoryUpdate, 0, len(sum.Categories))
	for _, cs := range sum.Categories {
		updates = append(updates, metrics.CategoryUpdate{
			Label:   cs.Category.Label(),
			Count:   cs.Count,
			Seconds: totals[cs.Category].Seconds(),
		})
	}
	return updates
}
