// Package cut plans and performs the loadless recut of a run video.
//
// Planning is pure: the timeline walks once and yields the gameplay
// ranges between loads. Cutting is the process side: segments are
// extracted through the media encoder, tracked while they run, and
// joined back together in order.
package cut

import (
	"time"

	"github.com/Refragg/LoadlessUnleashed/internal/timeline"
)

// Segment is one keep-range of the source video. Segments are contiguous
// with the loads removed: each segment ends where a load begins and the
// next one starts where that load ends.
type Segment struct {
	// Index is the 0-based position in the plan and fixes the join
	// order.
	Index int

	Start time.Duration

	// End bounds the segment except when Open is set; the final segment
	// of a closed plan is open and runs to the end of the source.
	End  time.Duration
	Open bool
}

// Length returns the segment's duration. Open segments need the probed
// source duration.
func (s Segment) Length(source time.Duration) time.Duration {
	if s.Open {
		return source - s.Start
	}
	return s.End - s.Start
}

// Plan walks the timeline and emits the segments to keep.
//
// The cursor opens at zero, so everything before the first load stays
// in. Each load emits the range from the cursor to the load's start and
// moves the cursor past the load. RunStart is skipped. RunEnd emits the
// final open segment and stops the walk, which drops anything recorded
// after it.
//
// The bool reports whether a RunEnd closed the plan. An unclosed plan
// has no final segment; the caller decides how loudly to complain.
func Plan(tl timeline.Timeline) ([]Segment, bool) {
	var segments []Segment
	var cursor time.Duration
	for _, ev := range tl.Events {
		switch ev.Category {
		case timeline.RunStart:
			continue
		case timeline.RunEnd:
			segments = append(segments, Segment{Index: len(segments), Start: cursor, Open: true})
			return segments, true
		default:
			segments = append(segments, Segment{Index: len(segments), Start: cursor, End: ev.Start})
			cursor = ev.End
		}
	}
	return segments, false
}
