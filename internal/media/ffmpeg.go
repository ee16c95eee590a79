package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Refragg/LoadlessUnleashed/internal/logging"
)

// audioBitrate is the fixed audio target for re-encode passes. Video
// gets the probed bitrate; audio does not need to track the source.
const audioBitrate = "160k"

// interruptGrace is how long ffmpeg gets to finalize its output after an
// interrupt before it is killed. A killed ffmpeg leaves a truncated,
// unreadable file behind.
const interruptGrace = 3 * time.Second

// FFmpegEncoder implements Encoder by running ffmpeg and ffprobe.
type FFmpegEncoder struct {
	// FFmpegPath and FFprobePath name the binaries. Empty FFprobePath
	// means "next to ffmpeg, else PATH".
	FFmpegPath  string
	FFprobePath string

	// LogLevel is passed to ffmpeg's -loglevel. Progress still arrives
	// on stdout regardless.
	LogLevel string

	logger *slog.Logger
}

// NewFFmpegEncoder returns an encoder running the given binaries.
func NewFFmpegEncoder(ffmpegPath, ffprobePath string, logger *slog.Logger) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegEncoder{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		LogLevel:    "error",
		logger:      logger,
	}
}

// ExtractSegment implements Encoder.
func (e *FFmpegEncoder) ExtractSegment(ctx context.Context, req ExtractRequest) (Unit, error) {
	if err := os.MkdirAll(filepath.Dir(req.OutPath), 0o755); err != nil {
		return Unit{}, fmt.Errorf("create segment dir: %w", err)
	}

	args := e.buildExtractArgs(req)
	e.logger.Debug("ffmpeg_extract",
		"segment", req.Index,
		"command", e.FFmpegPath+" "+strings.Join(args, " "),
	)

	job := fmt.Sprintf("segment_%03d", req.Index)
	if err := e.run(ctx, job, args, req.Length, req.Progress); err != nil {
		return Unit{}, fmt.Errorf("extract segment %d: %w", req.Index, err)
	}

	unit := Unit{Index: req.Index, Path: req.OutPath}
	if fi, err := os.Stat(req.OutPath); err == nil {
		unit.Bytes = fi.Size()
	}
	return unit, nil
}

// buildExtractArgs constructs the ffmpeg arguments for one segment.
//
// -ss and -to are input options so ffmpeg seeks before decoding; with a
// re-encode on the output side the cut is frame-accurate rather than
// snapped to a keyframe. Open segments omit -to and run to EOF.
func (e *FFmpegEncoder) buildExtractArgs(req ExtractRequest) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", e.logLevel(),
		"-progress", "pipe:1",
		"-stats_period", "1",
		"-ss", formatOffset(req.Start),
	}
	if !req.Open {
		args = append(args, "-to", formatOffset(req.End))
	}
	args = append(args, "-i", req.Source)
	args = append(args,
		"-b:v", strconv.FormatInt(req.VideoBitrate, 10),
		"-b:a", audioBitrate,
	)
	args = append(args, req.OutPath)
	return args
}

// Concatenate implements Encoder.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, req ConcatRequest) (string, error) {
	if len(req.Units) == 0 {
		return "", fmt.Errorf("concatenate: no units")
	}

	listPath, err := writeConcatList(req.Units)
	if err != nil {
		return "", err
	}
	defer os.Remove(listPath)

	args := e.buildConcatArgs(listPath, req)
	e.logger.Debug("ffmpeg_concat",
		"units", len(req.Units),
		"re_encode", req.ReEncode,
		"command", e.FFmpegPath+" "+strings.Join(args, " "),
	)

	if err := e.run(ctx, "concat", args, req.Length, req.Progress); err != nil {
		return "", fmt.Errorf("concatenate %d units: %w", len(req.Units), err)
	}
	return req.OutPath, nil
}

// buildConcatArgs constructs the ffmpeg arguments for the join pass,
// using the concat demuxer over the list file.
func (e *FFmpegEncoder) buildConcatArgs(listPath string, req ConcatRequest) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", e.logLevel(),
		"-progress", "pipe:1",
		"-stats_period", "1",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}
	if req.ReEncode {
		args = append(args,
			"-b:v", strconv.FormatInt(req.VideoBitrate, 10),
			"-b:a", audioBitrate,
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, req.OutPath)
	return args
}

// writeConcatList writes the concat demuxer input next to the units.
// The units are listed in index order no matter how they arrived.
func writeConcatList(units []Unit) (string, error) {
	ordered := make([]Unit, len(units))
	copy(ordered, units)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var b strings.Builder
	for _, u := range ordered {
		abs, err := filepath.Abs(u.Path)
		if err != nil {
			return "", fmt.Errorf("concat list: %w", err)
		}
		// Single quotes in the path must be closed, escaped, reopened.
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	listPath := filepath.Join(filepath.Dir(units[0].Path), "concat.txt")
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("concat list: %w", err)
	}
	return listPath, nil
}

// run starts ffmpeg, pumps its progress output, and waits.
//
// Cancellation interrupts the process first so ffmpeg can finalize the
// file, then kills it after interruptGrace.
func (e *FFmpegEncoder) run(ctx context.Context, job string, args []string, length time.Duration, fn ProgressFunc) error {
	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = interruptGrace

	stderr := logging.NewStderrHandler(job, e.logger, e.logger.Enabled(ctx, slog.LevelDebug))
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.FFmpegPath, err)
	}

	readErr := ReadProgress(stdout, monotonicSink(length, fn))

	waitErr := cmd.Wait()
	stderr.Flush()
	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if tail := stderr.RecentLines(5); len(tail) > 0 {
			return fmt.Errorf("%w: %s", waitErr, strings.Join(tail, "\n"))
		}
		return waitErr
	}
	if readErr != nil {
		e.logger.Warn("progress_read_failed", "error", readErr)
	}
	return nil
}

// monotonicSink cooks raw progress blocks into Progress values whose
// Fraction never goes backwards and lands on 1 at the end block.
func monotonicSink(length time.Duration, fn ProgressFunc) func(*ProgressUpdate) {
	if fn == nil {
		return nil
	}
	last := 0.0
	return func(u *ProgressUpdate) {
		frac := 0.0
		if length > 0 {
			frac = float64(u.OutTime()) / float64(length)
			if frac > 1 {
				frac = 1
			}
		}
		if u.End() {
			frac = 1
		}
		if frac < last {
			frac = last
		}
		last = frac
		fn(Progress{
			Fraction: frac,
			OutTime:  u.OutTime(),
			Speed:    u.Speed,
			Bytes:    u.TotalSize,
			FPS:      u.FPS,
		})
	}
}

func (e *FFmpegEncoder) logLevel() string {
	if e.LogLevel == "" {
		return "error"
	}
	return e.LogLevel
}

// formatOffset renders a duration as fractional seconds for -ss/-to.
func formatOffset(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
