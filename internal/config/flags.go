package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
// Returns an error if a config file or environment value is invalid.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	// The config file sits below environment and flags, so its path has to
	// be known before either layer is applied.
	path := configFilePath(os.Args[1:])
	if path == "" {
		path = os.Getenv("LOADLESS_CONFIG")
	}
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `loadless-unleashed - load time reports and loadless recuts for Sonic Unleashed runs

Usage:
  loadless-unleashed [flags] <times-file> [video-file]

Input Flags:
`)
		// Print flags by category
		printFlagCategory([]string{"times", "video", "config"})

		fmt.Fprintf(os.Stderr, "\nRecut:\n")
		printFlagCategory([]string{"create-video", "double-encode", "skip-split", "parallel"})

		fmt.Fprintf(os.Stderr, "\nOutputs:\n")
		printFlagCategory([]string{"report", "output", "workdir"})

		fmt.Fprintf(os.Stderr, "\nFFmpeg:\n")
		printFlagCategory([]string{"ffmpeg", "ffprobe", "ffmpeg-loglevel"})

		fmt.Fprintf(os.Stderr, "\nDisplay:\n")
		printFlagCategory([]string{"tui", "no-color"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "metrics-textfile", "v", "log-format"})

		fmt.Fprintf(os.Stderr, "\nSafety & Diagnostics:\n")
		printFlagCategory([]string{"skip-preflight"})

		fmt.Fprintf(os.Stderr, `
Environment:
  LOADLESS_TIMES_FILE, LOADLESS_VIDEO_FILE, LOADLESS_CREATE_VIDEO,
  LOADLESS_DOUBLE_ENCODE, LOADLESS_SKIP_SPLIT and LOADLESS_CONFIG seed
  defaults before flags are applied. Flags win.

Examples:
  # Report only
  loadless-unleashed unleashed_times.csv

  # Report plus a loadless recut with the live dashboard
  loadless-unleashed -create-video unleashed_times.csv run.mp4

  # Redo the concatenation from existing segments, re-encoding the joins
  loadless-unleashed -create-video -skip-split -double-encode unleashed_times.csv run.mp4

`)
	}

	// Inputs
	flag.StringVar(&cfg.TimesPath, "times", cfg.TimesPath, "Load times log file")
	flag.StringVar(&cfg.VideoPath, "video", cfg.VideoPath, "Source run recording")
	flag.String("config", "", "TOML config file (applied below environment and flags)")

	// Recut
	flag.BoolVar(&cfg.CreateVideo, "create-video", cfg.CreateVideo, "Cut the loads out of the recording after writing the report")
	flag.BoolVar(&cfg.DoubleEncode, "double-encode", cfg.DoubleEncode, "Re-encode the concatenation pass as well (slower, cleaner joins)")
	flag.BoolVar(&cfg.SkipSplit, "skip-split", cfg.SkipSplit, "Reuse segment files from a previous run and only concatenate")
	flag.IntVar(&cfg.Parallel, "parallel", cfg.Parallel, "Concurrent segment extractions")

	// Outputs
	flag.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "Report destination (default <times>_report.txt)")
	flag.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Recut video destination (default <video>_loadless.<ext>)")
	flag.StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "Segment working directory (default <video>_segments)")

	// FFmpeg
	flag.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to FFmpeg binary")
	flag.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to ffprobe binary (default: next to ffmpeg)")
	flag.StringVar(&cfg.FFmpegLogLevel, "ffmpeg-loglevel", cfg.FFmpegLogLevel, "FFmpeg -loglevel value")

	// Display
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Live dashboard during the recut (use -tui=false to disable)")
	flag.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored console output")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	flag.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write final metrics to this file in text exposition format")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Safety & Diagnostics
	flag.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	// Parse
	flag.Parse()

	// Positional arguments: times file, then video file
	args := flag.Args()
	if len(args) >= 1 {
		cfg.TimesPath = args[0]
	}
	if len(args) >= 2 {
		cfg.VideoPath = args[1]
	}

	return cfg, nil
}

// applyEnv overlays LOADLESS_* environment variables onto cfg. Wrapper
// scripts and launchers configure the tool this way; flags still win
// because env is applied before flag registration.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("LOADLESS_TIMES_FILE"); v != "" {
		cfg.TimesPath = v
	}
	if v := os.Getenv("LOADLESS_VIDEO_FILE"); v != "" {
		cfg.VideoPath = v
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"LOADLESS_CREATE_VIDEO", &cfg.CreateVideo},
		{"LOADLESS_DOUBLE_ENCODE", &cfg.DoubleEncode},
		{"LOADLESS_SKIP_SPLIT", &cfg.SkipSplit},
	}
	for _, b := range bools {
		raw := os.Getenv(b.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		*b.dst = v
	}

	return nil
}

// configFilePath scans args for the -config flag ahead of flag.Parse.
func configFilePath(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return ""
		}
		name, value, hasValue := strings.Cut(args[i], "=")
		if name != "-config" && name != "--config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" && f.DefValue != "[]" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	// Infer type from default value format
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
