package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single stderr line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the number of recent lines kept per encode job.
	MaxBufferedLines = 100
)

// StderrHandler collects stderr output from an ffmpeg process. It keeps a
// ring of recent lines for error reporting and logs anything that looks
// like trouble.
//
// It implements io.Writer so it can sit directly on exec.Cmd.Stderr.
type StderrHandler struct {
	job     string
	logger  *slog.Logger
	verbose bool

	mu      sync.Mutex
	pending []byte
	buffer  []string
	bufIdx  int
}

// NewStderrHandler creates a stderr handler for one encode job.
func NewStderrHandler(job string, logger *slog.Logger, verbose bool) *StderrHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StderrHandler{
		job:     job,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// Write splits the stream into lines and processes each one. FFmpeg
// separates its status updates with carriage returns, so both \r and \n
// terminate a line. A partial line is held until its terminator arrives.
func (h *StderrHandler) Write(p []byte) (int, error) {
	h.mu.Lock()
	h.pending = append(h.pending, p...)

	var lines []string
	for {
		idx := bytes.IndexAny(h.pending, "\r\n")
		if idx < 0 {
			break
		}
		line := string(h.pending[:idx])
		h.pending = h.pending[idx+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}

	// A stream with no terminator must not grow without bound
	if len(h.pending) > MaxLineLength {
		lines = append(lines, string(h.pending[:MaxLineLength])+"...(truncated)")
		h.pending = h.pending[:0]
	}
	h.mu.Unlock()

	for _, line := range lines {
		h.handleLine(line)
	}

	return len(p), nil
}

// Flush processes any unterminated final line. Call it once the process
// has exited.
func (h *StderrHandler) Flush() {
	h.mu.Lock()
	line := string(h.pending)
	h.pending = h.pending[:0]
	h.mu.Unlock()

	if line != "" {
		h.handleLine(line)
	}
}

// handleLine stores a single line and logs it at a level matching its content.
func (h *StderrHandler) handleLine(line string) {
	// Truncate if too long
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	// Store in circular buffer
	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.mu.Unlock()

	level := classifyLine(line)

	// In non-verbose mode, only log warnings and errors
	if !h.verbose && level == slog.LevelDebug {
		return
	}

	h.logger.Log(nil, level, "ffmpeg_stderr",
		"job", h.job,
		"line", line,
	)
}

// classifyLine determines the log level for a line based on content.
func classifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	// Encode failure patterns
	if strings.Contains(lower, "error") ||
		strings.Contains(lower, "invalid") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "no such file") ||
		strings.Contains(lower, "permission denied") {
		return slog.LevelWarn
	}

	// Warning patterns
	if strings.Contains(lower, "[warning]") ||
		strings.Contains(lower, "deprecated") {
		return slog.LevelWarn
	}

	// Encode progress chatter
	if strings.Contains(lower, "frame=") ||
		strings.Contains(lower, "speed=") ||
		strings.Contains(lower, "time=") {
		return slog.LevelDebug
	}

	// Default to debug
	return slog.LevelDebug
}

// RecentLines returns the most recent lines from the buffer.
func (h *StderrHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)

	// Read from circular buffer in order
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if h.buffer[idx] != "" {
			lines = append(lines, h.buffer[idx])
		}
	}

	return lines
}
