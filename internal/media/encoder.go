// Package media drives ffmpeg and ffprobe for the video recut.
//
// The cut pipeline never shells out on its own; it talks to the Encoder
// interface and this package provides the real implementation. Keeping
// the boundary here means the whole recut flow can run under test with a
// fake encoder and no ffmpeg on the machine.
package media

import (
	"context"
	"time"
)

// SourceInfo describes a probed video file.
type SourceInfo struct {
	Path string

	// Duration is the container duration.
	Duration time.Duration

	// Bitrate is the overall container bitrate in bits per second. When
	// the container does not carry one it is derived from size and
	// duration. This is the value the re-encode passes target.
	Bitrate int64

	// Size is the file size in bytes.
	Size int64
}

// Progress is a cooked progress report for one encoder operation.
// Fraction runs 0..1 and never decreases within an operation.
type Progress struct {
	Fraction float64

	// OutTime is how much output has been produced.
	OutTime time.Duration

	// Speed is the encode speed relative to realtime (1.0 = realtime,
	// 0 = not reported yet).
	Speed float64

	// Bytes is the output size so far.
	Bytes int64

	// FPS is the current encode frame rate.
	FPS float64
}

// ProgressFunc receives progress reports. Callbacks run on the goroutine
// that reads ffmpeg output, so they should return quickly.
type ProgressFunc func(Progress)

// ExtractRequest asks for one segment of the source to be cut out and
// re-encoded into its own file.
type ExtractRequest struct {
	// Source is the video to cut from.
	Source string

	// Index is the segment's position in the cut plan. Concatenation
	// later joins units in Index order.
	Index int

	// Start and End bound the segment. End is meaningless when Open is
	// set: an open segment runs to the end of the source.
	Start time.Duration
	End   time.Duration
	Open  bool

	// Length is the expected output duration, used to turn encode
	// position into a progress fraction. For open segments the caller
	// derives it from the probed source duration.
	Length time.Duration

	// VideoBitrate is the target video bitrate in bits per second,
	// normally the probed bitrate of the source.
	VideoBitrate int64

	// OutPath is where the unit is written.
	OutPath string

	// Progress is optional.
	Progress ProgressFunc
}

// Unit is one extracted segment on disk.
type Unit struct {
	Index int
	Path  string
	Bytes int64
}

// ConcatRequest asks for ordered units to be joined into the final
// video.
type ConcatRequest struct {
	// Units must already be sorted by Index.
	Units []Unit

	// OutPath is the final video path.
	OutPath string

	// ReEncode selects the second encode pass. Off means the streams
	// are copied as-is; on means the output is encoded again at
	// VideoBitrate, which smooths the joins at the cost of time.
	ReEncode     bool
	VideoBitrate int64

	// Length is the expected output duration, used for progress.
	Length time.Duration

	// Progress is optional.
	Progress ProgressFunc
}

// Encoder cuts segments out of a source video and joins them back
// together.
type Encoder interface {
	// Probe measures a video file.
	Probe(ctx context.Context, path string) (SourceInfo, error)

	// ExtractSegment produces the unit for one planned segment. The
	// output is re-encoded so the cut lands on the requested times
	// rather than the nearest keyframe.
	ExtractSegment(ctx context.Context, req ExtractRequest) (Unit, error)

	// Concatenate joins the units in index order and returns the output
	// path.
	Concatenate(ctx context.Context, req ConcatRequest) (string, error)
}
