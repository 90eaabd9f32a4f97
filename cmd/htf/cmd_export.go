package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShenglingZHU/hiera-tf/internal/export"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/signal"
)

var exportReq export.Request

// exportCmd implements 'htf export'
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Replay one signal of a series into CSV",
	Long: `Replay one signal of a series and write one row per point: Year..Second
and timestamp_ms, optionally the hierarchical constraint columns, the
dependency outputs and operator state values, and the signal itself raw
and gated when a coarser series restricts it.`,
	Example: `  htf export --workspace ws.yaml --series hourly --type SignalRunLengthReached --alias streak \
    --deps --values --hierarchy --out streak.csv`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&workspacePath, "workspace", "", "Path to workspace file (required)")
	exportCmd.Flags().StringVar(&storeKind, "store", "", "Point store for series declared with store: true")
	exportCmd.Flags().StringVar(&outputPath, "out", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportReq.SeriesID, "series", "", "Series id (required)")
	exportCmd.Flags().StringVar(&exportReq.Type, "type", "", "Signal type (required)")
	exportCmd.Flags().StringVar(&exportReq.Alias, "alias", "", "Signal alias (default: the type)")
	exportCmd.Flags().BoolVar(&exportReq.Dependencies, "deps", false, "Include dependency output columns")
	exportCmd.Flags().BoolVar(&exportReq.Values, "values", false, "Include operator state value columns")
	exportCmd.Flags().BoolVar(&exportReq.Hierarchy, "hierarchy", false, "Include hierarchical constraint columns")
	_ = exportCmd.MarkFlagRequired("workspace")
	_ = exportCmd.MarkFlagRequired("series")
	_ = exportCmd.MarkFlagRequired("type")
}

func runExport(cmd *cobra.Command, args []string) error {
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
	table, err := export.New(signal.Defs(), cache, export.WithLogger(logger)).Signal(series, exportReq)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	w, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(w); err != nil {
		_ = closeOut()
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Info().
		Str("series", exportReq.SeriesID).
		Str("type", exportReq.Type).
		Int("rows", len(table.Rows)).
		Int("columns", len(table.Header)).
		Msg("signal exported")
	return closeOut()
}
