package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("Report ID: %s\n\n", r.ID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Series: %d | Nodes: %d\n\n", r.SeriesCount, r.NodeCount))

	for _, s := range r.Series {
		sb.WriteString(fmt.Sprintf("## %s\n\n", s.Label))
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Series ID | %s |\n", s.SeriesID))
		sb.WriteString(fmt.Sprintf("| Timeframe | %s (%s) |\n", s.Timeframe, s.Role))
		sb.WriteString(fmt.Sprintf("| Points | %d |\n", s.Points))
		sb.WriteString(fmt.Sprintf("| Range Start (ms) | %d |\n", s.RangeStart))
		sb.WriteString(fmt.Sprintf("| Range End (ms) | %d |\n", s.RangeEnd))
		sb.WriteString(fmt.Sprintf("| Mask Coverage | %d/%d (%.2f%%) |\n", s.MaskAllowed, s.Points, 100*s.MaskCoverage()))
		sb.WriteString("\n")

		// Nodes
		sb.WriteString("### Signals\n\n")
		if len(s.Nodes) > 0 {
			sb.WriteString("| Node | Type | Label | True | Gated | Rate |\n")
			sb.WriteString("|------|------|-------|------|-------|------|\n")
			for _, n := range s.Nodes {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %.4f |\n",
					n.NodeID, n.Type, n.Label, n.TrueCount, n.GatedTrue, n.TrueRate))
			}
		} else {
			sb.WriteString("No signals configured.\n")
		}
		sb.WriteString("\n")

		// Windows
		if s.GatingNodeID != "" {
			sb.WriteString(fmt.Sprintf("### Gating Windows (%s)\n\n", s.GatingNodeID))
			if len(s.Windows) > 0 {
				sb.WriteString("| Start (ms) | End (ms) |\n")
				sb.WriteString("|------------|----------|\n")
				for _, w := range s.Windows {
					sb.WriteString(fmt.Sprintf("| %d | %d |\n", w.Start, w.End))
				}
			} else {
				sb.WriteString("No windows.\n")
			}
			sb.WriteString("\n")
		}

		// Failures
		if len(s.Failures) > 0 {
			sb.WriteString("### Operator Failures\n\n")
			for _, f := range s.Failures {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", f.NodeID, f.Error))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
