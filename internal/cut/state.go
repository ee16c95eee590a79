package cut

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/Refragg/LoadlessUnleashed/internal/media"
)

// SegmentState is the lifecycle of one extraction.
type SegmentState int

const (
	SegmentPending SegmentState = iota
	SegmentExtracting
	SegmentDone
	SegmentFailed

	// SegmentReused marks a segment found on disk by -skip-split.
	SegmentReused
)

func (s SegmentState) String() string {
	switch s {
	case SegmentPending:
		return "pending"
	case SegmentExtracting:
		return "extracting"
	case SegmentDone:
		return "done"
	case SegmentFailed:
		return "failed"
	case SegmentReused:
		return "reused"
	}
	return "unknown"
}

// SegmentStatus is a point-in-time view of one segment's extraction.
type SegmentStatus struct {
	Index  int
	Length time.Duration
	State  SegmentState

	// Fraction is the encode progress, 0..1.
	Fraction float64

	// Speed is the encode speed relative to realtime.
	Speed float64

	// Bytes written so far (final size once done).
	Bytes int64

	// Wall is the extraction wall time, set when the segment finishes.
	Wall time.Duration

	Err error
}

// Tracker holds the live extraction state for every planned segment.
//
// The cutter writes it from its worker goroutines; the dashboard and the
// console renderer read snapshots. Wall times additionally feed a t-digest
// so the exit summary can report P50/P90/P99 without keeping every sample.
type Tracker struct {
	mu       sync.Mutex
	segments []SegmentStatus
	digest   *tdigest.TDigest
	started  time.Time
}

// NewTracker creates a tracker covering the planned segments. Lengths come
// from the plan so overall progress can weight each segment by its share of
// the output.
func NewTracker(segments []Segment, source time.Duration) *Tracker {
	t := &Tracker{
		segments: make([]SegmentStatus, len(segments)),
		digest:   tdigest.NewWithCompression(100),
		started:  time.Now(),
	}
	for i, seg := range segments {
		t.segments[i] = SegmentStatus{Index: seg.Index, Length: seg.Length(source)}
	}
	return t
}

// Start marks a segment as extracting.
func (t *Tracker) Start(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segments[index].State = SegmentExtracting
}

// Progress records an encoder progress report for a segment.
func (t *Tracker) Progress(index int, p media.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.segments[index]
	if p.Fraction > s.Fraction {
		s.Fraction = p.Fraction
	}
	if p.Speed > 0 {
		s.Speed = p.Speed
	}
	if p.Bytes > 0 {
		s.Bytes = p.Bytes
	}
}

// Finish marks a segment done and feeds its wall time into the digest.
func (t *Tracker) Finish(index int, bytes int64, wall time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.segments[index]
	s.State = SegmentDone
	s.Fraction = 1
	s.Bytes = bytes
	s.Wall = wall
	t.digest.Add(wall.Seconds(), 1)
}

// Reuse marks a segment as satisfied by a file from a previous run.
func (t *Tracker) Reuse(index int, bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.segments[index]
	s.State = SegmentReused
	s.Fraction = 1
	s.Bytes = bytes
}

// Fail marks a segment failed.
func (t *Tracker) Fail(index int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.segments[index]
	s.State = SegmentFailed
	s.Err = err
}

// Snapshot returns a copy of every segment's status in index order.
func (t *Tracker) Snapshot() []SegmentStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SegmentStatus, len(t.segments))
	copy(out, t.segments)
	return out
}

// OverallFraction is the extraction progress across all segments, each
// weighted by its length. A 10-minute segment at 50% counts for more than
// a finished 5-second one.
func (t *Tracker) OverallFraction() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total, done float64
	for _, s := range t.segments {
		w := s.Length.Seconds()
		if w <= 0 {
			// Unknown length (open segment before the probe); weight it
			// like one second so it still registers.
			w = 1
		}
		total += w
		done += w * s.Fraction
	}
	if total == 0 {
		return 0
	}
	return done / total
}

// Counts returns how many segments are done (or reused) and how many exist.
func (t *Tracker) Counts() (finished, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.segments {
		if s.State == SegmentDone || s.State == SegmentReused {
			finished++
		}
	}
	return finished, len(t.segments)
}

// Bytes returns the bytes written across all segments so far.
func (t *Tracker) Bytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for _, s := range t.segments {
		n += s.Bytes
	}
	return n
}

// WallQuantiles reports the extraction wall-time distribution. Zeroes
// until at least one segment has finished.
func (t *Tracker) WallQuantiles() (p50, p90, p99 time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.digest.Count() == 0 {
		return 0, 0, 0
	}
	toDur := func(q float64) time.Duration {
		return time.Duration(t.digest.Quantile(q) * float64(time.Second))
	}
	return toDur(0.5), toDur(0.9), toDur(0.99)
}

// Elapsed is the wall time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.started)
}
