// Package config provides configuration management for loadless-unleashed.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds all configuration options for the report and the recut
// pipeline. Layering, lowest to highest: defaults, TOML config file,
// LOADLESS_* environment variables, command-line flags.
type Config struct {
	// Inputs
	TimesPath string `json:"times_path" toml:"times_path"`
	VideoPath string `json:"video_path" toml:"video_path"`

	// Recut
	CreateVideo  bool `json:"create_video" toml:"create_video"`
	DoubleEncode bool `json:"double_encode" toml:"double_encode"`
	SkipSplit    bool `json:"skip_split" toml:"skip_split"`

	// Outputs (empty = derived from the inputs)
	ReportPath string `json:"report_path" toml:"report_path"`
	OutputPath string `json:"output_path" toml:"output_path"`
	WorkDir    string `json:"work_dir" toml:"work_dir"`

	// Encoding
	Parallel       int    `json:"parallel" toml:"parallel"`
	FFmpegPath     string `json:"ffmpeg_path" toml:"ffmpeg_path"`
	FFprobePath    string `json:"ffprobe_path" toml:"ffprobe_path"`
	FFmpegLogLevel string `json:"ffmpeg_log_level" toml:"ffmpeg_log_level"`

	// Display
	TUIEnabled bool `json:"tui" toml:"tui"`
	NoColor    bool `json:"no_color" toml:"no_color"`

	// Observability
	MetricsAddr     string `json:"metrics_addr" toml:"metrics_addr"`
	MetricsTextfile string `json:"metrics_textfile" toml:"metrics_textfile"`
	Verbose         bool   `json:"verbose" toml:"verbose"`
	LogFormat       string `json:"log_format" toml:"log_format"` // json, text

	// Diagnostic modes
	SkipPreflight bool `json:"skip_preflight" toml:"skip_preflight"`

	// ConfigFile records which TOML file was loaded, if any.
	ConfigFile string `json:"-" toml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Encoding
		Parallel:       2,
		FFmpegPath:     "ffmpeg",
		FFmpegLogLevel: "error",

		// Display
		TUIEnabled: true,

		// Observability
		MetricsAddr: "", // Disabled unless asked for
		Verbose:     false,
		LogFormat:   "text",
	}
}

// ReportFile returns the report destination, derived from the times file
// unless set explicitly.
func (c *Config) ReportFile() string {
	if c.ReportPath != "" {
		return c.ReportPath
	}
	return stem(c.TimesPath) + "_report.txt"
}

// OutputFile returns the recut video destination, derived from the source
// video unless set explicitly. The source's container extension is kept so
// ffmpeg picks the same muxer.
func (c *Config) OutputFile() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return stem(c.VideoPath) + "_loadless" + filepath.Ext(c.VideoPath)
}

// SegmentDir returns the working directory for extracted segments. Its name
// is stable across runs so -skip-split can find the previous run's files.
func (c *Config) SegmentDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return stem(c.VideoPath) + "_segments"
}

// SegmentFile returns the path of the extracted segment with the given
// index inside the working directory. Names are deterministic so
// -skip-split can resolve them again on a later run.
func (c *Config) SegmentFile(index int) string {
	name := fmt.Sprintf("segment_%03d%s", index, filepath.Ext(c.VideoPath))
	return filepath.Join(c.SegmentDir(), name)
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
