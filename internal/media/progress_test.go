package media

import (
	"strings"
	"testing"
	"time"
)

const sampleProgress = `frame=60
fps=30.00
bitrate= 512.0kbits/s
total_size=51324
out_time_us=2000000
out_time_ms=2000000
out_time=00:00:02.000000
dup_frames=0
drop_frames=0
speed=1.25x
progress=continue
frame=120
fps=29.97
bitrate= 498.2kbits/s
total_size=102648
out_time_us=4000000
speed=1.10x
progress=end
`

func TestReadProgress_Blocks(t *testing.T) {
	var updates []ProgressUpdate
	err := ReadProgress(strings.NewReader(sampleProgress), func(u *ProgressUpdate) {
		updates = append(updates, *u)
	})
	if err != nil {
		t.Fatalf("ReadProgress error: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}

	first := updates[0]
	if first.Frame != 60 {
		t.Errorf("Frame = %d, want 60", first.Frame)
	}
	if first.FPS != 30.0 {
		t.Errorf("FPS = %v, want 30", first.FPS)
	}
	if first.TotalSize != 51324 {
		t.Errorf("TotalSize = %d, want 51324", first.TotalSize)
	}
	if first.OutTime() != 2*time.Second {
		t.Errorf("OutTime() = %v, want 2s", first.OutTime())
	}
	if first.Speed != 1.25 {
		t.Errorf("Speed = %v, want 1.25", first.Speed)
	}
	if first.End() {
		t.Error("first block is not the end")
	}

	last := updates[1]
	if !last.End() {
		t.Error("last block must report end")
	}
	if last.OutTime() != 4*time.Second {
		t.Errorf("OutTime() = %v, want 4s", last.OutTime())
	}
}

func TestReadProgress_SkipsNoise(t *testing.T) {
	input := "garbage line without equals\n" +
		"unknown_key=whatever\n" +
		"out_time_us=1000000\n" +
		"progress=end\n"

	var updates []ProgressUpdate
	if err := ReadProgress(strings.NewReader(input), func(u *ProgressUpdate) {
		updates = append(updates, *u)
	}); err != nil {
		t.Fatalf("ReadProgress error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	if updates[0].OutTimeUS != 1000000 {
		t.Errorf("OutTimeUS = %d, want 1000000", updates[0].OutTimeUS)
	}
}

func TestReadProgress_TotalSizeNA(t *testing.T) {
	input := "total_size=N/A\nout_time_us=1000000\nprogress=continue\n"

	var got ProgressUpdate
	if err := ReadProgress(strings.NewReader(input), func(u *ProgressUpdate) {
		got = *u
	}); err != nil {
		t.Fatalf("ReadProgress error: %v", err)
	}
	if got.TotalSize != 0 {
		t.Errorf("TotalSize = %d, want 0 for N/A", got.TotalSize)
	}
}

func TestReadProgress_NilCallback(t *testing.T) {
	if err := ReadProgress(strings.NewReader(sampleProgress), nil); err != nil {
		t.Fatalf("ReadProgress error: %v", err)
	}
}

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		line      string
		wantKey   string
		wantValue string
		wantOK    bool
	}{
		{"speed=1.00x", "speed", "1.00x", true},
		{"out_time=00:00:02.000000", "out_time", "00:00:02.000000", true},
		{"bare line", "", "", false},
		{"", "", "", false},
		{"=value", "", "value", true},
	}

	for _, tt := range tests {
		key, value, ok := parseKeyValue(tt.line)
		if key != tt.wantKey || value != tt.wantValue || ok != tt.wantOK {
			t.Errorf("parseKeyValue(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.line, key, value, ok, tt.wantKey, tt.wantValue, tt.wantOK)
		}
	}
}

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.00x", 1.0},
		{"0.95x", 0.95},
		{"12.3x", 12.3},
		{"N/A", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseSpeed(tt.input); got != tt.want {
			t.Errorf("parseSpeed(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func BenchmarkReadProgress(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ReadProgress(strings.NewReader(sampleProgress), func(*ProgressUpdate) {})
	}
}
