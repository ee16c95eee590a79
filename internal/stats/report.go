package stats

import (
	"fmt"
	"strings"

	"github.com/Refragg/LoadlessUnleashed/internal/timeline"
)

// FormatReport renders the load report for a run. The output is a pure
// function of the timeline and its summary, and the layout is stable
// byte for byte so reports can be diffed between runs.
//
// Layout:
//
//	Load #2: 00:00:03.000          one line per load, numbered by the
//	                               event's position in the full log
//	                               (boundary events take a number but
//	                               print nothing)
//	<blank>
//	Menu load:                     one block per category, fixed order;
//	Count: 4                       the extra lines and the trailing
//	Average: 02.500                blank appear only with two or more
//	...                            loads
//	Total load time: ...
//	RTA run time: ...
//	Loadless run time: ...
func FormatReport(tl timeline.Timeline, sum Summary) string {
	var b strings.Builder

	for i, ev := range tl.Events {
		if ev.Category.IsBoundary() {
			continue
		}
		fmt.Fprintf(&b, "Load #%d: %s\n", i+1, FormatTimestamp(ev.Load))
	}
	b.WriteString("\n")

	for _, cs := range sum.Categories {
		fmt.Fprintf(&b, "%s:\n", cs.Category.Label())
		fmt.Fprintf(&b, "Count: %d\n", cs.Count)
		if cs.Count >= 2 {
			fmt.Fprintf(&b, "Average: %s\n", FormatSeconds(cs.Average))
			fmt.Fprintf(&b, "Median: %s\n", FormatSeconds(cs.Median))
			fmt.Fprintf(&b, "Best: %s\n", FormatSeconds(cs.Best))
			fmt.Fprintf(&b, "Worst: %s\n", FormatSeconds(cs.Worst))
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Total load time: %s\n", FormatTimestamp(sum.TotalLoads))
	fmt.Fprintf(&b, "RTA run time: %s\n", FormatTimestamp(sum.RTA))
	fmt.Fprintf(&b, "Loadless run time: %s\n", FormatTimestamp(sum.Loadless))
	return b.String()
}
