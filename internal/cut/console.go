package cut

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/Refragg/LoadlessUnleashed/internal/stats"
)

// Console renders recut progress as plain lines, for piped output and
// -tui=false runs.
type Console struct {
	out     io.Writer
	stage   *color.Color
	ok      *color.Color
	muted   *color.Color
	failure *color.Color
}

// NewConsole creates a console renderer. noColor strips the ANSI codes,
// for logs and dumb terminals.
func NewConsole(out io.Writer, noColor bool) *Console {
	c := &Console{
		out:     out,
		stage:   color.New(color.FgCyan, color.Bold),
		ok:      color.New(color.FgGreen),
		muted:   color.New(color.FgHiBlack),
		failure: color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, cc := range []*color.Color{c.stage, c.ok, c.muted, c.failure} {
			cc.DisableColor()
		}
	}
	return c
}

// Callbacks returns cutter callbacks wired to this console.
func (c *Console) Callbacks() Callbacks {
	return Callbacks{
		OnStage:       c.onStage,
		OnSegmentDone: c.onSegmentDone,
	}
}

func (c *Console) onStage(stage Stage) {
	switch stage {
	case StageProbe:
		c.stage.Fprintln(c.out, "Probing source video...")
	case StageExtract:
		c.stage.Fprintln(c.out, "Extracting segments...")
	case StageConcat:
		c.stage.Fprintln(c.out, "Concatenating...")
	}
}

func (c *Console) onSegmentDone(s SegmentStatus) {
	c.ok.Fprintf(c.out, "  segment %3d done", s.Index)
	c.muted.Fprintf(c.out, "  (%s, %s)\n", stats.FormatBytes(s.Bytes), roundWall(s.Wall))
}

// Fail reports a fatal recut error.
func (c *Console) Fail(err error) {
	c.failure.Fprintf(c.out, "Recut failed: %v\n", err)
}

// PrintSummary prints the recut exit summary.
func (c *Console) PrintSummary(res Result) {
	rule := "═══════════════════════════════════════════════════════════════════"
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out, "                        Loadless Recut Summary")
	fmt.Fprintln(c.out, rule)
	fmt.Fprintf(c.out, "Output:                 %s\n", res.OutputPath)
	fmt.Fprintf(c.out, "Output Length:          %s\n", stats.FormatTimestamp(res.OutputLength))
	fmt.Fprintf(c.out, "Source Length:          %s\n", stats.FormatTimestamp(res.Source.Duration))
	fmt.Fprintf(c.out, "Segments:               %d", res.Segments)
	if res.Reused {
		fmt.Fprint(c.out, " (reused from a previous run)")
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Segment Bytes:          %s\n", stats.FormatBytes(res.SegmentBytes))
	fmt.Fprintln(c.out)

	if res.WallP50 > 0 {
		fmt.Fprintln(c.out, "Extraction Wall Time:")
		fmt.Fprintf(c.out, "  P50 (median):         %s\n", roundWall(res.WallP50))
		fmt.Fprintf(c.out, "  P90:                  %s\n", roundWall(res.WallP90))
		fmt.Fprintf(c.out, "  P99:                  %s\n", roundWall(res.WallP99))
		fmt.Fprintln(c.out)
	}

	fmt.Fprintf(c.out, "Total Wall Time:        %s\n", roundWall(res.Elapsed))
	if res.Elapsed > 0 {
		speed := res.OutputLength.Seconds() / res.Elapsed.Seconds()
		fmt.Fprintf(c.out, "Realtime Speed:         %.2fx\n", speed)
	}
	fmt.Fprintln(c.out, rule)
}

// roundWall trims wall times to a readable precision.
func roundWall(d time.Duration) time.Duration {
	return d.Round(10 * time.Millisecond)
}
