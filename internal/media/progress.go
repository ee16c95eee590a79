package media

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// ProgressUpdate is one block of ffmpeg -progress output.
//
// With -progress pipe:1 ffmpeg writes key=value lines to stdout, one
// block per stats period, each block closed by a "progress=continue" or
// "progress=end" line. Values are cumulative for the run.
type ProgressUpdate struct {
	Frame     int64
	FPS       float64
	Bitrate   string
	TotalSize int64
	OutTimeUS int64
	Speed     float64
	Progress  string
}

// OutTime returns the output position as a duration.
func (u *ProgressUpdate) OutTime() time.Duration {
	return time.Duration(u.OutTimeUS) * time.Microsecond
}

// End reports whether this was the final block of the run.
func (u *ProgressUpdate) End() bool {
	return u.Progress == "end"
}

// ReadProgress consumes -progress output from r until EOF, invoking fn
// with a copy of each completed block. Unknown keys are skipped so new
// ffmpeg versions do not break the reader.
func ReadProgress(r io.Reader, fn func(*ProgressUpdate)) error {
	sc := bufio.NewScanner(r)
	current := &ProgressUpdate{}
	for sc.Scan() {
		key, value, ok := parseKeyValue(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "frame":
			current.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			current.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			current.Bitrate = value
		case "total_size":
			// ffmpeg reports N/A before the muxer knows.
			if value != "N/A" && value != "" {
				current.TotalSize, _ = strconv.ParseInt(value, 10, 64)
			}
		case "out_time_us":
			current.OutTimeUS, _ = strconv.ParseInt(value, 10, 64)
		case "speed":
			current.Speed = parseSpeed(value)
		case "progress":
			current.Progress = value
			if fn != nil {
				update := *current
				fn(&update)
			}
			current = &ProgressUpdate{}
		}
	}
	return sc.Err()
}

// parseKeyValue splits "key=value", reporting false for lines without
// an '='.
func parseKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return line[:idx], line[idx+1:], true
}

// parseSpeed converts ffmpeg's speed string ("1.00x", "N/A") to a
// float. Unknown speeds come back as 0.
func parseSpeed(s string) float64 {
	s = strings.TrimSuffix(s, "x")
	if s == "N/A" || s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
