package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// probeResult mirrors the ffprobe -show_format JSON document. ffprobe
// reports numbers as strings.
type probeResult struct {
	Format probeFormat `json:"format"`
}

type probeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

// Probe implements Encoder.
func (e *FFmpegEncoder) Probe(ctx context.Context, path string) (SourceInfo, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	}
	cmd := exec.CommandContext(ctx, e.ffprobePath(), args...)
	out, err := cmd.Output()
	if err != nil {
		return SourceInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput(path, out)
}

// parseProbeOutput converts the JSON document into a SourceInfo. Some
// containers carry no bit_rate tag; the bitrate then derives from size
// over duration, which is what the re-encode target needs anyway.
func parseProbeOutput(path string, out []byte) (SourceInfo, error) {
	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return SourceInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	secs, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil || secs <= 0 {
		return SourceInfo{}, fmt.Errorf("ffprobe reported no duration for %s", path)
	}

	info := SourceInfo{
		Path:     path,
		Duration: time.Duration(secs * float64(time.Second)),
	}
	info.Size, _ = strconv.ParseInt(result.Format.Size, 10, 64)
	info.Bitrate, _ = strconv.ParseInt(result.Format.BitRate, 10, 64)
	if info.Bitrate == 0 && info.Size > 0 {
		info.Bitrate = int64(float64(info.Size*8) / secs)
	}
	if info.Bitrate == 0 {
		return SourceInfo{}, fmt.Errorf("could not determine bitrate of %s", path)
	}
	return info, nil
}

// ffprobePath resolves the ffprobe binary: explicit path first, then a
// sibling of the ffmpeg binary, then PATH.
func (e *FFmpegEncoder) ffprobePath() string {
	if e.FFprobePath != "" {
		return e.FFprobePath
	}
	const suffix = "ffmpeg"
	if strings.HasSuffix(e.FFmpegPath, suffix) && len(e.FFmpegPath) > len(suffix) {
		sibling := e.FFmpegPath[:len(e.FFmpegPath)-len(suffix)] + "ffprobe"
		if _, err := exec.LookPath(sibling); err == nil {
			return sibling
		}
	}
	return "ffprobe"
}
