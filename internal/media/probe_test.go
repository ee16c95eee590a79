package media

import (
	"testing"
	"time"
)

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{
		"format": {
			"filename": "run.mp4",
			"duration": "4512.960000",
			"size": "3456789012",
			"bit_rate": "6127584"
		}
	}`)

	info, err := parseProbeOutput("run.mp4", out)
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}
	if info.Path != "run.mp4" {
		t.Errorf("Path = %q, want run.mp4", info.Path)
	}
	wantDur := time.Duration(4512.96 * float64(time.Second))
	if info.Duration != wantDur {
		t.Errorf("Duration = %v, want %v", info.Duration, wantDur)
	}
	if info.Bitrate != 6127584 {
		t.Errorf("Bitrate = %d, want 6127584", info.Bitrate)
	}
	if info.Size != 3456789012 {
		t.Errorf("Size = %d, want 3456789012", info.Size)
	}
}

func TestParseProbeOutput_BitrateDerivedFromSize(t *testing.T) {
	// Some containers report no bit_rate. 1000 bytes over 2 seconds is
	// 4000 bits per second.
	out := []byte(`{"format": {"duration": "2.000000", "size": "1000"}}`)

	info, err := parseProbeOutput("run.mkv", out)
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}
	if info.Bitrate != 4000 {
		t.Errorf("Bitrate = %d, want 4000 (derived)", info.Bitrate)
	}
}

func TestParseProbeOutput_Invalid(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"not json", "ffprobe: command not found"},
		{"no duration", `{"format": {"size": "1000"}}`},
		{"zero duration", `{"format": {"duration": "0.000000", "size": "1000"}}`},
		{"no bitrate and no size", `{"format": {"duration": "2.000000"}}`},
		{"empty document", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if info, err := parseProbeOutput("x.mp4", []byte(tt.out)); err == nil {
				t.Errorf("parseProbeOutput accepted %q: %+v", tt.out, info)
			}
		})
	}
}

func TestFFprobePath(t *testing.T) {
	tests := []struct {
		name    string
		ffmpeg  string
		ffprobe string
		want    string
	}{
		{"explicit ffprobe wins", "/opt/ffmpeg/ffmpeg", "/usr/bin/ffprobe", "/usr/bin/ffprobe"},
		{"bare ffmpeg falls back to PATH", "ffmpeg", "", "ffprobe"},
		// A sibling lookup only holds when the sibling exists, which it
		// does not here, so PATH wins.
		{"missing sibling falls back", "/nonexistent/dir/ffmpeg", "", "ffprobe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewFFmpegEncoder(tt.ffmpeg, tt.ffprobe, nil)
			if got := e.ffprobePath(); got != tt.want {
				t.Errorf("ffprobePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
