package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/hierarchy"
	"github.com/ShenglingZHU/hiera-tf/internal/reporting"
	"github.com/ShenglingZHU/hiera-tf/internal/signal"
)

var (
	workspacePath string
	storeKind     string
	outputPath    string
	outputFormat  string
	masksVerbose  bool
)

// evaluateCmd implements 'htf evaluate'
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate every series and summarize node outputs",
	Long: `Evaluate the signal forest of every series in the workspace and report
per-node true counts, counts admitted by the hierarchical mask, gating
windows and operator construction failures.`,
	Example: `  htf evaluate --workspace ws.yaml
  htf evaluate --workspace ws.yaml --format csv --out summary.csv
  htf evaluate --workspace ws.yaml --store postgres`,
	RunE: runEvaluate,
}

// masksCmd implements 'htf masks'
var masksCmd = &cobra.Command{
	Use:   "masks",
	Short: "Print gating windows and mask coverage per series",
	RunE:  runMasks,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(masksCmd)

	for _, cmd := range []*cobra.Command{evaluateCmd, masksCmd} {
		cmd.Flags().StringVar(&workspacePath, "workspace", "", "Path to workspace file (required)")
		cmd.Flags().StringVar(&storeKind, "store", "", "Point store for series declared with store: true (postgres, clickhouse)")
		_ = cmd.MarkFlagRequired("workspace")
	}
	evaluateCmd.Flags().StringVar(&outputPath, "out", "", "Output file (default stdout)")
	evaluateCmd.Flags().StringVar(&outputFormat, "format", "markdown", "Output format: markdown, csv")
	masksCmd.Flags().BoolVar(&masksVerbose, "verbose", false, "Print every window and the per-point mask")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	series, _, closeStore, err := loadSeries(ctx, workspacePath, storeKind)
	defer closeStore()
	if err != nil {
		return err
	}

	cache := graph.NewCache(signal.Defs(), graph.WithLogger(logger))
	report, err := reporting.NewGenerator(signal.Defs(), cache, logger).Generate(series)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	w, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}

	switch strings.ToLower(outputFormat) {
	case "csv":
		_, err = io.WriteString(w, reporting.RenderCSV(report))
	case "markdown", "md":
		_, err = io.WriteString(w, reporting.RenderMarkdown(report))
	default:
		err = fmt.Errorf("unknown format %q", outputFormat)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

func runMasks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	series, _, closeStore, err := loadSeries(ctx, workspacePath, storeKind)
	defer closeStore()
	if err != nil {
		return err
	}

	coord := hierarchy.NewCoordinator(
		graph.NewCache(signal.Defs(), graph.WithLogger(logger)),
		hierarchy.WithCoordinatorLogger(logger),
	)
	masks, err := coord.Masks(series)
	if err != nil {
		return fmt.Errorf("build masks: %w", err)
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIES\tGATING\tWINDOWS\tPOINTS\tADMITTED\tCOVERAGE")
	for _, s := range series {
		windows, ok, err := coord.Windows(s)
		if err != nil {
			return err
		}
		gating, nWindows := "-", "-"
		if ok {
			gating = s.GatingSignalID
			nWindows = fmt.Sprint(len(windows))
		}
		mask := masks[s.ID]
		admitted := 0
		for _, m := range mask {
			if m {
				admitted++
			}
		}
		coverage := 0.0
		if len(mask) > 0 {
			coverage = 100 * float64(admitted) / float64(len(mask))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f%%\n", s.Label(), gating, nWindows, len(mask), admitted, coverage)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !masksVerbose {
		return nil
	}
	for _, s := range series {
		fmt.Fprintf(out, "\n%s\n", s.Label())
		if windows, ok, _ := coord.Windows(s); ok {
			for _, w := range windows {
				fmt.Fprintf(out, "  window %d..%d\n", w.Start, w.End)
			}
		}
		var sb strings.Builder
		for _, m := range masks[s.ID] {
			if m {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		fmt.Fprintf(out, "  mask %s\n", sb.String())
	}
	return nil
}
