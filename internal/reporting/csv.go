package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// RenderCSV renders one row per node as CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	// Header
	_ = w.Write([]string{
		"series_id", "node_id", "type", "label", "points",
		"true_count", "gated_true", "true_rate", "mask_allowed", "failed",
	})

	// Rows
	for _, s := range r.Series {
		failed := make(map[string]struct{}, len(s.Failures))
		for _, f := range s.Failures {
			failed[f.NodeID] = struct{}{}
		}
		for _, n := range s.Nodes {
			_, isFailed := failed[n.NodeID]
			_ = w.Write([]string{
				s.SeriesID,
				n.NodeID,
				n.Type,
				n.Label,
				strconv.Itoa(s.Points),
				strconv.Itoa(n.TrueCount),
				strconv.Itoa(n.GatedTrue),
				strconv.FormatFloat(n.TrueRate, 'f', 6, 64),
				strconv.Itoa(s.MaskAllowed),
				strconv.FormatBool(isFailed),
			})
		}
	}

	w.Flush()
	return sb.String()
}
