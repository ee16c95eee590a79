package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Refragg/LoadlessUnleashed/internal/cut"
	"github.com/Refragg/LoadlessUnleashed/internal/stats"
)

// maxSegmentRows is how many segments get their own detail line before
// the list collapses into a glyph strip. Long runs can plan hundreds of
// segments and the terminal only has so many rows.
const maxSegmentRows = 12

// =============================================================================
// Running View
// =============================================================================

func (m Model) renderRunning() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderRunDigest())
	b.WriteString("\n")
	b.WriteString(m.renderStage())
	b.WriteString("\n")
	b.WriteString(m.renderSegments())
	b.WriteString("\n")
	b.WriteString(m.renderThroughput())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("q: quit (cancels the recut)"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderHeader() string {
	title := headerStyle.Render(" loadless-unleashed ")
	files := mutedStyle.Render(fmt.Sprintf("%s → %s", m.videoFile, m.output))
	return lipgloss.JoinVertical(lipgloss.Left, title, files)
}

// renderRunDigest shows the headline numbers from the load report.
func (m Model) renderRunDigest() string {
	lines := []string{
		sectionHeaderStyle.Render("Run"),
		RenderKeyValue("RTA", stats.FormatTimestamp(m.summary.RTA)),
		RenderKeyValue("Total loads", stats.FormatTimestamp(m.summary.TotalLoads)),
		RenderKeyValue("Loadless", stats.FormatTimestamp(m.summary.Loadless)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStage() string {
	var label string
	switch m.stage {
	case cut.StageProbe:
		label = "Probing source video"
	case cut.StageExtract:
		label = "Extracting segments"
	case cut.StageConcat:
		label = "Concatenating"
	case cut.StageDone:
		label = "Finishing"
	default:
		label = "Starting"
	}

	finished, total := 0, 0
	if m.tracker != nil {
		finished, total = m.tracker.Counts()
	}

	stageLine := fmt.Sprintf("%s %s  %s",
		m.spin.View(),
		subtitleStyle.Render(label),
		mutedStyle.Render(fmt.Sprintf("(%d/%d segments, %s elapsed)", finished, total, formatDuration(m.Elapsed()))),
	)

	bar := m.bar.ViewAs(m.OverallFraction())
	return lipgloss.JoinVertical(lipgloss.Left, stageLine, bar)
}

func (m Model) renderSegments() string {
	if len(m.segments) == 0 {
		return ""
	}

	lines := []string{sectionHeaderStyle.Render("Segments")}

	if len(m.segments) > maxSegmentRows {
		lines = append(lines, m.renderSegmentStrip())
	} else {
		for _, s := range m.segments {
			lines = append(lines, renderSegmentRow(s))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderSegmentRow renders one segment's detail line.
func renderSegmentRow(s cut.SegmentStatus) string {
	glyph := segmentGlyph(s.State.String())
	label := fmt.Sprintf(" %3d  %-11s", s.Index, s.State)

	var detail string
	switch s.State {
	case cut.SegmentExtracting:
		detail = fmt.Sprintf("%3.0f%%  %s  %s",
			s.Fraction*100, stats.FormatBytes(s.Bytes), GetSpeedLabel(s.Speed))
	case cut.SegmentDone:
		detail = fmt.Sprintf("      %s  %s", stats.FormatBytes(s.Bytes), mutedStyle.Render(roundedWall(s)))
	case cut.SegmentReused:
		detail = fmt.Sprintf("      %s", stats.FormatBytes(s.Bytes))
	case cut.SegmentFailed:
		if s.Err != nil {
			detail = statusError.Render(s.Err.Error())
		}
	}
	return glyph + baseStyle.Render(label) + " " + detail
}

func roundedWall(s cut.SegmentStatus) string {
	return s.Wall.Round(10_000_000).String() // 10ms
}

// renderSegmentStrip renders every segment as a single glyph, wrapped to
// the terminal width.
func (m Model) renderSegmentStrip() string {
	perLine := m.width - 4
	if perLine < 10 {
		perLine = 10
	}

	var rows []string
	var row strings.Builder
	count := 0
	for _, s := range m.segments {
		row.WriteString(segmentGlyph(s.State.String()))
		count++
		if count == perLine {
			rows = append(rows, row.String())
			row.Reset()
			count = 0
		}
	}
	if row.Len() > 0 {
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderThroughput() string {
	lines := []string{
		sectionHeaderStyle.Render("Encode Output"),
		RenderKeyValue("Written", stats.FormatBytes(m.rates.TotalBytes)),
		RenderKeyValue("Rate (10s)", formatRate(m.rates.Avg10s)),
		RenderKeyValue("Rate (overall)", formatRate(m.rates.AvgOverall)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// =============================================================================
// Finished View
// =============================================================================

func (m Model) renderFinished() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(statusError.Render("Recut failed: " + m.err.Error()))
		b.WriteString("\n")
		b.WriteString(footerStyle.Render("q: quit"))
		b.WriteString("\n")
		return b.String()
	}

	res := m.result
	body := lipgloss.JoinVertical(lipgloss.Left,
		statusOK.Render("Recut complete"),
		"",
		RenderKeyValue("Output", res.OutputPath),
		RenderKeyValue("Length", stats.FormatTimestamp(res.OutputLength)),
		RenderKeyValue("Segments", fmt.Sprintf("%d", res.Segments)),
		RenderKeyValue("Bytes", stats.FormatBytes(res.SegmentBytes)),
		RenderKeyValue("Wall time", formatDuration(res.Elapsed)),
	)
	b.WriteString(boxStyle.Render(body))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}
