// Package timeline turns a load-times log into a typed run timeline.
//
// The log is written by the capture tool that watches the game while a run
// is recorded: one header line, then one record per line in capture order.
// Each record is "start,end,category" with offsets measured from the start
// of the recording. Parsing is strict by design. The category vocabulary is
// closed, timestamps must be hours:minutes:seconds with an optional decimal
// fraction, and the first bad line aborts the whole parse. A half-parsed
// log must never produce a report or drive a video cut.
//
// Example log:
//
//	Time,End time,Category
//	00:00:00,,Run start
//	00:00:05,00:00:08,Menu load
//	00:00:20,,Run end
package timeline

import (
	"fmt"
	"time"
)

// Event is one parsed record. Start and End are offsets from the start of
// the recording. Boundary events (RunStart, RunEnd) carry only Start; their
// End and Load stay zero and are never read.
type Event struct {
	Category Category

	// Start is when the load screen appeared (or the run began/ended).
	Start time.Duration

	// End is when gameplay resumed. Meaningless for boundary events.
	End time.Duration

	// Load is End - Start for load events, zero otherwise.
	Load time.Duration

	// Line is the 1-based line number the record came from, kept for
	// diagnostics. Zero when the record was parsed on its own.
	Line int
}

// Timeline is the validated view of a log: the events exactly as they
// appeared, plus the run boundaries derived from them.
//
// Events keeps file order. It is never re-sorted; the report and the cut
// plan both depend on the original positions.
type Timeline struct {
	Events []Event

	// RunStart and RunEnd are the offsets of the first RunStart and first
	// RunEnd records. Valid only when the matching Has flag is set.
	RunStart time.Duration
	RunEnd   time.Duration
	HasStart bool
	HasEnd   bool
}

// Loads returns the load events in file order, boundaries excluded.
func (tl Timeline) Loads() []Event {
	loads := make([]Event, 0, len(tl.Events))
	for _, ev := range tl.Events {
		if !ev.Category.IsBoundary() {
			loads = append(loads, ev)
		}
	}
	return loads
}

// NegativeLoadError reports a load event whose end precedes its start.
// The log is corrupt at that point and nothing downstream can be trusted.
type NegativeLoadError struct {
	Line     int
	Category Category
	Load     time.Duration
}

func (e *NegativeLoadError) Error() string {
	return fmt.Sprintf("line %d: negative load duration %s for %s", e.Line, e.Load, e.Category.Label())
}

// Build derives a Timeline from parsed events.
//
// The first RunStart occurrence fixes the run start and the first RunEnd
// occurrence fixes the run end; later duplicates are silently ignored.
// A load event with a negative duration is fatal. Boundary events keep
// their positions in Events but carry no load time.
func Build(events []Event) (Timeline, error) {
	tl := Timeline{Events: events}
	for _, ev := range events {
		switch ev.Category {
		case RunStart:
			if !tl.HasStart {
				tl.RunStart = ev.Start
				tl.HasStart = true
			}
		case RunEnd:
			if !tl.HasEnd {
				tl.RunEnd = ev.Start
				tl.HasEnd = true
			}
		default:
			if ev.Load < 0 {
				return Timeline{}, &NegativeLoadError{
					Line:     ev.Line,
					Category: ev.Category,
					Load:     ev.Load,
				}
			}
		}
	}
	return tl, nil
}
