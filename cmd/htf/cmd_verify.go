package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ShenglingZHU/hiera-tf/internal/signal"
	"github.com/ShenglingZHU/hiera-tf/internal/verification"
)

var verifyJSON bool

// verifyCmd implements 'htf verify'
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that evaluation is deterministic",
	Long: `Evaluate every series twice with fresh operator instances and replay
each through a timeframe view before and after a reset. Output
fingerprints must match; any divergence makes the command fail.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&workspacePath, "workspace", "", "Path to workspace file (required)")
	verifyCmd.Flags().StringVar(&storeKind, "store", "", "Point store for series declared with store: true")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output the full report as JSON")
	_ = verifyCmd.MarkFlagRequired("workspace")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	series, _, closeStore, err := loadSeries(ctx, workspacePath, storeKind)
	defer closeStore()
	if err != nil {
		return err
	}

	v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		Defs:   signal.Defs(),
		Logger: &logger,
	})
	report, err := v.VerifyAll(ctx, series)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	out := cmd.OutOrStdout()
	if verifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "=== Determinism Report %s ===\n", report.ID)
		fmt.Fprintf(out, "Series:  %d matched, %d divergent of %d\n",
			report.MatchedSeries, report.DivergentSeries, report.TotalSeries)
		fmt.Fprintf(out, "Nodes:   %d matched, %d divergent of %d\n",
			report.MatchedNodes, report.DivergentNodes, report.TotalNodes)
		for _, r := range report.Results {
			for _, d := range r.Divergences {
				fmt.Fprintf(out, "  %s/%s %s: step %d\n", r.SeriesID, d.NodeID, d.Check, d.Step)
			}
		}
		ids := make([]string, 0, len(report.Errors))
		for id := range report.Errors {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(out, "  %s: %s\n", id, report.Errors[id])
		}
	}

	if report.DivergentSeries > 0 {
		return fmt.Errorf("%d of %d series diverged", report.DivergentSeries, report.TotalSeries)
	}
	return nil
}
