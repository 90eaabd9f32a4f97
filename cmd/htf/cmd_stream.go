package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShenglingZHU/hiera-tf/internal/config"
	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/feed"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/hierarchy"
	"github.com/ShenglingZHU/hiera-tf/internal/observability"
	"github.com/ShenglingZHU/hiera-tf/internal/signal"
)

var (
	streamURL         string
	streamSeries      string
	streamMetricsAddr string
)

// streamCmd implements 'htf stream'
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Drive the timeframe framework from a live WebSocket feed",
	Long: `Build one live view per workspace series (coarsest first), using each
series' gating node as its signal routine, and push every point from the
feed through the framework. One JSON line per point is written to stdout
with each view's raw and gated signal. Prometheus metrics are served on
/metrics.`,
	Example: `  htf stream --workspace ws.yaml --url ws://localhost:8080/points
  htf stream --workspace ws.yaml --series BTCUSDT --metrics-addr :9091`,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().StringVar(&workspacePath, "workspace", "", "Path to workspace file (required)")
	streamCmd.Flags().StringVar(&streamURL, "url", "", "Feed WebSocket URL (default from HTF_FEED_URL)")
	streamCmd.Flags().StringVar(&streamSeries, "series", "", "Only apply feed messages for this series")
	streamCmd.Flags().StringVar(&streamMetricsAddr, "metrics-addr", "", "Metrics listen address (default from config)")
	_ = streamCmd.MarkFlagRequired("workspace")
}

type viewLine struct {
	Name    string `json:"name"`
	Raw     bool   `json:"raw"`
	Gated   bool   `json:"gated"`
	Allowed bool   `json:"allowed"`
}

type stepLine struct {
	TS     int64      `json:"ts"`
	Series string     `json:"series,omitempty"`
	Views  []viewLine `json:"views"`
}

func writeStep(enc *json.Encoder, series string, ts int64, states []hierarchy.ViewState) {
	line := stepLine{TS: ts, Series: series, Views: make([]viewLine, len(states))}
	for i, st := range states {
		line.Views[i] = viewLine{Name: st.Name, Raw: st.Raw, Gated: st.Gated, Allowed: st.Allowed}
	}
	if err := enc.Encode(line); err != nil {
		logger.Warn().Err(err).Msg("write step")
	}
}

// liveFramework builds the per-series views and the framework over them.
func liveFramework(ws *config.Workspace, metrics *observability.Metrics) (*hierarchy.Framework, error) {
	series := make([]*domain.Series, len(ws.Series))
	for i := range ws.Series {
		series[i] = ws.Series[i].Skeleton()
	}
	views, err := hierarchy.BuildViews(series, signal.Defs(),
		graph.WithLogger(logger),
		graph.WithRecorder(metrics),
	)
	if err != nil {
		return nil, err
	}
	return hierarchy.NewFramework(views,
		hierarchy.WithFrameworkLogger(logger),
		hierarchy.WithGateRecorder(metrics),
	), nil
}

func runStream(cmd *cobra.Command, args []string) error {
	url := streamURL
	if url == "" {
		url = appCfg.Feed.URL
	}
	if url == "" {
		return fmt.Errorf("feed URL is not configured (--url or HTF_FEED_URL)")
	}
	addr := streamMetricsAddr
	if addr == "" {
		addr = appCfg.Metrics.Addr
	}

	ws, err := config.LoadWorkspace(workspacePath)
	if err != nil {
		return err
	}
	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetrics(appCfg.Metrics.Namespace, nil)
	fw, err := liveFramework(ws, metrics)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	feedCfg := feed.DefaultConfig()
	feedCfg.ReconnectDelay = appCfg.Feed.ReconnectDelay
	feedCfg.MaxReconnectDelay = appCfg.Feed.MaxReconnectDelay
	if appCfg.Feed.PingInterval > 0 {
		feedCfg.PingInterval = appCfg.Feed.PingInterval
	}
	feedCfg.Buffer = appCfg.Feed.Buffer
	if streamSeries != "" {
		feedCfg.Subscribe = map[string]string{"subscribe": streamSeries}
	}

	client, err := feed.Dial(ctx, url, &feedCfg, feed.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer client.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	applied, err := feed.Pump(ctx, client.Points(), fw, streamSeries, func(msg feed.Message, states []hierarchy.ViewState) {
		metrics.RecordFeedPoint(msg.TimestampMs, client.Dropped())
		writeStep(enc, msg.Series, msg.TimestampMs, states)
	}, logger)

	logger.Info().Int("points", applied).Uint64("dropped", client.Dropped()).Msg("stream stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
