// Package stats aggregates a run timeline into per-category load
// statistics and renders the load report.
//
// Everything here is pure: the aggregator and the formatter are functions
// of their inputs and touch no clock, no files, and no shared state. The
// caller decides where the report text goes.
package stats

import (
	"sort"
	"time"

	"github.com/Refragg/LoadlessUnleashed/internal/timeline"
)

// CategoryStats summarizes the loads of a single category.
//
// Average, Median, Best and Worst are only meaningful when Count >= 2;
// with zero or one load the count stands alone and the other fields stay
// zero.
type CategoryStats struct {
	Category timeline.Category
	Count    int
	Average  time.Duration
	Median   time.Duration
	Best     time.Duration
	Worst    time.Duration
}

// Summary is the full aggregate for one run.
type Summary struct {
	// Categories holds one entry per load category in the fixed category
	// order, including categories with zero loads.
	Categories []CategoryStats

	// TotalLoads is the summed duration of every load event.
	TotalLoads time.Duration

	// RTA is real-time-attack: run end minus run start. Loadless is RTA
	// minus TotalLoads. Neither is clamped; a malformed run can push
	// Loadless negative and the report shows it that way.
	RTA      time.Duration
	Loadless time.Duration
}

// Aggregate computes the summary for a timeline.
func Aggregate(tl timeline.Timeline) Summary {
	loads := make(map[timeline.Category][]time.Duration)
	var total time.Duration
	for _, ev := range tl.Events {
		if ev.Category.IsBoundary() {
			continue
		}
		loads[ev.Category] = append(loads[ev.Category], ev.Load)
		total += ev.Load
	}

	cats := timeline.LoadCategories()
	sum := Summary{Categories: make([]CategoryStats, 0, len(cats))}
	for _, c := range cats {
		sum.Categories = append(sum.Categories, categoryStats(c, loads[c]))
	}
	sum.TotalLoads = total
	sum.RTA = tl.RunEnd - tl.RunStart
	sum.Loadless = sum.RTA - total
	return sum
}

func categoryStats(c timeline.Category, loads []time.Duration) CategoryStats {
	cs := CategoryStats{Category: c, Count: len(loads)}
	if len(loads) < 2 {
		return cs
	}

	sorted := make([]time.Duration, len(loads))
	copy(sorted, loads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// Median takes the upper middle for even counts. For [10,20,30,40]
	// that is 30; the two middles are never averaged.
	cs.Median = sorted[len(sorted)/2]
	cs.Best = sorted[0]
	cs.Worst = sorted[len(sorted)-1]
	cs.Average = mean(loads)
	return cs
}

// mean averages real-valued milliseconds so fractional milliseconds
// survive: three loads of 1ms, 1ms and 2ms average to 1.333ms, not 1ms.
func mean(loads []time.Duration) time.Duration {
	sumMs := 0.0
	for _, d := range loads {
		sumMs += float64(d) / float64(time.Millisecond)
	}
	avgMs := sumMs / float64(len(loads))
	return time.Duration(avgMs * float64(time.Millisecond))
}
