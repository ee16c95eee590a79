package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify critical defaults
	if cfg.Parallel != 2 {
		t.Errorf("Parallel = %d, want 2", cfg.Parallel)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want %q", cfg.FFmpegPath, "ffmpeg")
	}
	if cfg.FFmpegLogLevel != "error" {
		t.Errorf("FFmpegLogLevel = %q, want %q", cfg.FFmpegLogLevel, "error")
	}
	if cfg.TUIEnabled != true {
		t.Error("TUIEnabled should be true by default")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr = %q, metrics should be disabled by default", cfg.MetricsAddr)
	}
	if cfg.CreateVideo || cfg.DoubleEncode || cfg.SkipSplit {
		t.Error("recut switches should all be off by default")
	}
}

func TestReportFile(t *testing.T) {
	t.Run("derived_from_times", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TimesPath = "runs/unleashed_times.csv"

		got := cfg.ReportFile()
		if got != "runs/unleashed_times_report.txt" {
			t.Errorf("ReportFile() = %q, want %q", got, "runs/unleashed_times_report.txt")
		}
	})

	t.Run("explicit_wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TimesPath = "runs/unleashed_times.csv"
		cfg.ReportPath = "out/report.txt"

		if got := cfg.ReportFile(); got != "out/report.txt" {
			t.Errorf("ReportFile() = %q, want explicit path", got)
		}
	})
}

func TestOutputFile(t *testing.T) {
	t.Run("keeps_container_extension", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.VideoPath = "runs/sonic.mkv"

		got := cfg.OutputFile()
		if got != "runs/sonic_loadless.mkv" {
			t.Errorf("OutputFile() = %q, want %q", got, "runs/sonic_loadless.mkv")
		}
	})

	t.Run("explicit_wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.VideoPath = "runs/sonic.mkv"
		cfg.OutputPath = "final.mp4"

		if got := cfg.OutputFile(); got != "final.mp4" {
			t.Errorf("OutputFile() = %q, want explicit path", got)
		}
	})
}

func TestSegmentPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VideoPath = "runs/sonic.mp4"

	if got := cfg.SegmentDir(); got != "runs/sonic_segments" {
		t.Errorf("SegmentDir() = %q, want %q", got, "runs/sonic_segments")
	}

	want := filepath.Join("runs/sonic_segments", "segment_007.mp4")
	if got := cfg.SegmentFile(7); got != want {
		t.Errorf("SegmentFile(7) = %q, want %q", got, want)
	}

	// Index padding stops mattering past 999 but names must stay unique
	want = filepath.Join("runs/sonic_segments", "segment_1234.mp4")
	if got := cfg.SegmentFile(1234); got != want {
		t.Errorf("SegmentFile(1234) = %q, want %q", got, want)
	}

	cfg.WorkDir = "scratch"
	want = filepath.Join("scratch", "segment_000.mp4")
	if got := cfg.SegmentFile(0); got != want {
		t.Errorf("SegmentFile(0) with explicit workdir = %q, want %q", got, want)
	}
}

func TestConfigFilePath(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected string
	}{
		{"absent", []string{"-create-video", "times.csv"}, ""},
		{"equals_form", []string{"-config=loadless.toml"}, "loadless.toml"},
		{"space_form", []string{"-config", "loadless.toml"}, "loadless.toml"},
		{"double_dash_flag", []string{"--config=loadless.toml"}, "loadless.toml"},
		{"missing_value", []string{"-config"}, ""},
		{"after_terminator", []string{"--", "-config=loadless.toml"}, ""},
		{"mixed", []string{"-v", "-config", "a.toml", "times.csv"}, "a.toml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := configFilePath(tc.args)
			if result != tc.expected {
				t.Errorf("configFilePath(%v) = %q, want %q", tc.args, result, tc.expected)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("paths", func(t *testing.T) {
		t.Setenv("LOADLESS_TIMES_FILE", "env_times.csv")
		t.Setenv("LOADLESS_VIDEO_FILE", "env_run.mp4")

		cfg := DefaultConfig()
		if err := applyEnv(cfg); err != nil {
			t.Fatalf("applyEnv returned error: %v", err)
		}
		if cfg.TimesPath != "env_times.csv" {
			t.Errorf("TimesPath = %q, want env value", cfg.TimesPath)
		}
		if cfg.VideoPath != "env_run.mp4" {
			t.Errorf("VideoPath = %q, want env value", cfg.VideoPath)
		}
	})

	t.Run("bools", func(t *testing.T) {
		t.Setenv("LOADLESS_CREATE_VIDEO", "1")
		t.Setenv("LOADLESS_DOUBLE_ENCODE", "true")
		t.Setenv("LOADLESS_SKIP_SPLIT", "FALSE")

		cfg := DefaultConfig()
		if err := applyEnv(cfg); err != nil {
			t.Fatalf("applyEnv returned error: %v", err)
		}
		if !cfg.CreateVideo {
			t.Error("LOADLESS_CREATE_VIDEO=1 should enable the recut")
		}
		if !cfg.DoubleEncode {
			t.Error("LOADLESS_DOUBLE_ENCODE=true should enable double encoding")
		}
		if cfg.SkipSplit {
			t.Error("LOADLESS_SKIP_SPLIT=FALSE should stay off")
		}
	})

	t.Run("invalid_bool", func(t *testing.T) {
		t.Setenv("LOADLESS_CREATE_VIDEO", "yes")

		cfg := DefaultConfig()
		err := applyEnv(cfg)
		if err == nil {
			t.Fatal("Expected error for unparsable bool")
		}
		if !strings.Contains(err.Error(), "LOADLESS_CREATE_VIDEO") {
			t.Errorf("Error should name the variable: %v", err)
		}
	})

	t.Run("empty_is_unset", func(t *testing.T) {
		t.Setenv("LOADLESS_TIMES_FILE", "")
		t.Setenv("LOADLESS_SKIP_SPLIT", "")

		cfg := DefaultConfig()
		cfg.TimesPath = "keep.csv"
		if err := applyEnv(cfg); err != nil {
			t.Fatalf("applyEnv returned error: %v", err)
		}
		if cfg.TimesPath != "keep.csv" {
			t.Errorf("empty env var should not clear TimesPath, got %q", cfg.TimesPath)
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("overlay_semantics", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "loadless.toml")
		content := `
video_path = "run.mp4"
create_video = true
parallel = 4
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg := DefaultConfig()
		cfg.TimesPath = "keep.csv"
		if err := LoadFile(cfg, path); err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}

		if cfg.TimesPath != "keep.csv" {
			t.Errorf("keys absent from the file must not reset fields, TimesPath = %q", cfg.TimesPath)
		}
		if cfg.VideoPath != "run.mp4" {
			t.Errorf("VideoPath = %q, want %q", cfg.VideoPath, "run.mp4")
		}
		if !cfg.CreateVideo {
			t.Error("CreateVideo should be set from the file")
		}
		if cfg.Parallel != 4 {
			t.Errorf("Parallel = %d, want 4", cfg.Parallel)
		}
		if !cfg.TUIEnabled {
			t.Error("defaults not named in the file should survive")
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := LoadFile(cfg, filepath.Join(t.TempDir(), "nope.toml"))
		if err == nil {
			t.Fatal("Expected error for missing file")
		}
	})

	t.Run("malformed_toml", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "broken.toml")
		if err := os.WriteFile(path, []byte("parallel = [\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg := DefaultConfig()
		err := LoadFile(cfg, path)
		if err == nil {
			t.Fatal("Expected error for malformed TOML")
		}
		if !strings.Contains(err.Error(), "config file") {
			t.Errorf("Error should mention the config file: %v", err)
		}
	})
}

func TestFlagType(t *testing.T) {
	testCases := []struct {
		name     string
		defValue string
		expected string
	}{
		{"bool true", "true", ""},
		{"bool false", "false", ""},
		{"int", "42", "int"},
		{"string", "hello", "string"},
		{"duration seconds", "5s", "duration"},
		{"duration minutes", "5m", "duration"},
		{"duration hours", "1h", "duration"},
		{"float", "3.14", "int"}, // Sscanf parses "3" then stops at decimal
		{"empty", "", "string"},
		{"zero", "0", "int"},
		{"negative int", "-1", "int"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Create a mock flag
			f := &flag.Flag{
				Name:     "test",
				DefValue: tc.defValue,
			}
			result := flagType(f)
			if result != tc.expected {
				t.Errorf("flagType(%q) = %q, want %q", tc.defValue, result, tc.expected)
			}
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimesPath = "unleashed_times.csv"

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Valid config should not error: %v", err)
	}
}

func TestValidate_MissingTimesPath(t *testing.T) {
	cfg := DefaultConfig()

	err := Validate(cfg)
	if err == nil {
		t.Error("Expected error for missing times file")
	}
	if !strings.Contains(err.Error(), "times_path") {
		t.Errorf("Error should mention times_path: %v", err)
	}
}

func TestValidate_CreateVideoRequiresSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimesPath = "unleashed_times.csv"
	cfg.CreateVideo = true

	err := Validate(cfg)
	if err == nil {
		t.Error("Expected error for -create-video without a video")
	}
	if !strings.Contains(err.Error(), "video_path") {
		t.Errorf("Error should mention video_path: %v", err)
	}
}

func TestValidate_ReportOnlyNeedsNoVideo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimesPath = "unleashed_times.csv"
	cfg.VideoPath = ""

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Report-only run should not need a video: %v", err)
	}
}

func TestValidate_InvalidParallel(t *testing.T) {
	testCases := []int{0, -1, -100}

	for _, parallel := range testCases {
		t.Run("", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TimesPath = "unleashed_times.csv"
			cfg.Parallel = parallel

			err := Validate(cfg)
			if err == nil {
				t.Errorf("Expected error for parallel=%d", parallel)
			}
			if !strings.Contains(err.Error(), "parallel") {
				t.Errorf("Error should mention parallel: %v", err)
			}
		})
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimesPath = "unleashed_times.csv"
	cfg.LogFormat = "yaml"

	err := Validate(cfg)
	if err == nil {
		t.Error("Expected error for invalid log_format")
	}
}

func TestValidate_FFmpegLogLevels(t *testing.T) {
	valid := []string{"quiet", "error", "warning", "info", "debug", "trace"}
	for _, level := range valid {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TimesPath = "unleashed_times.csv"
			cfg.FFmpegLogLevel = level

			if err := Validate(cfg); err != nil {
				t.Errorf("loglevel %q should be valid: %v", level, err)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TimesPath = "unleashed_times.csv"
		cfg.FFmpegLogLevel = "chatty"

		err := Validate(cfg)
		if err == nil {
			t.Error("Expected error for made-up loglevel")
		}
		if !strings.Contains(err.Error(), "ffmpeg_log_level") {
			t.Errorf("Error should mention ffmpeg_log_level: %v", err)
		}
	})
}

func TestValidate_OutputCollision(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimesPath = "unleashed_times.csv"
	cfg.VideoPath = "run.mp4"
	cfg.CreateVideo = true
	cfg.OutputPath = "run.mp4"

	err := Validate(cfg)
	if err == nil {
		t.Error("Expected error when the output would overwrite the source")
	}
	if !strings.Contains(err.Error(), "output_path") {
		t.Errorf("Error should mention output_path: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimesPath = ""
	cfg.Parallel = 0
	cfg.LogFormat = "yaml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected multiple errors")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "times_path") {
		t.Error("Error should mention times_path")
	}
	if !strings.Contains(errStr, "parallel") {
		t.Error("Error should mention parallel")
	}
	if !strings.Contains(errStr, "log_format") {
		t.Error("Error should mention log_format")
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test_field",
		Message: "test message",
	}

	errStr := err.Error()
	if errStr != "test_field: test message" {
		t.Errorf("Error string = %q, want %q", errStr, "test_field: test message")
	}
}
