package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// The times file is the one mandatory input
	if cfg.TimesPath == "" {
		errs = append(errs, ValidationError{
			Field:   "times_path",
			Message: "load times log file is required",
		})
	}

	// Recutting needs a source
	if cfg.CreateVideo && cfg.VideoPath == "" {
		errs = append(errs, ValidationError{
			Field:   "video_path",
			Message: "source video is required with -create-video",
		})
	}

	// Parallelism must be positive
	if cfg.Parallel < 1 {
		errs = append(errs, ValidationError{
			Field:   "parallel",
			Message: "must be at least 1",
		})
	}

	if cfg.FFmpegPath == "" {
		errs = append(errs, ValidationError{
			Field:   "ffmpeg_path",
			Message: "must not be empty",
		})
	}

	// FFmpeg loglevel must be one ffmpeg accepts
	validLevels := map[string]bool{
		"quiet": true, "panic": true, "fatal": true, "error": true,
		"warning": true, "info": true, "verbose": true, "debug": true,
		"trace": true,
	}
	if !validLevels[cfg.FFmpegLogLevel] {
		errs = append(errs, ValidationError{
			Field:   "ffmpeg_log_level",
			Message: fmt.Sprintf("not an ffmpeg loglevel (got %q)", cfg.FFmpegLogLevel),
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// The recut must never clobber its own source
	if cfg.CreateVideo && cfg.VideoPath != "" && cfg.OutputFile() == cfg.VideoPath {
		errs = append(errs, ValidationError{
			Field:   "output_path",
			Message: "recut output would overwrite the source video",
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
