package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wumpus/internal/campaign"
	"wumpus/internal/config"
)

var (
	batchEpisodes    int
	batchWorkers     int
	batchSeed        int64
	batchLayout      string
	batchMetricsAddr string
)

// batchCmd runs a campaign of episodes
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run many episodes concurrently and summarize the outcomes",
	Long: `Runs a campaign of independent episodes with seeds seed, seed+1, ... and
prints the outcome distribution, win rate and mean episode length.

With --metrics-addr the Prometheus metrics are served on /metrics during the
campaign and until interrupted afterwards.

Example:
  wumpus batch --episodes 500 --workers 8 --metrics-addr :9090`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchEpisodes, "episodes", 0, "Number of episodes (default from config)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent episodes (default from config)")
	batchCmd.Flags().Int64Var(&batchSeed, "seed", -1, "Base seed (negative: config or time based)")
	batchCmd.Flags().StringVar(&batchLayout, "layout", "", "Play every episode on this layout")
	batchCmd.Flags().StringVar(&batchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if batchEpisodes > 0 {
		cfg.Campaign.Episodes = batchEpisodes
	}
	if batchWorkers > 0 {
		cfg.Campaign.Workers = batchWorkers
	}
	if batchMetricsAddr != "" {
		cfg.Campaign.MetricsAddr = batchMetricsAddr
	}
	if batchSeed >= 0 {
		cfg.World.Seed = batchSeed
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	opts := campaign.Options{
		Episodes:       cfg.Campaign.Episodes,
		Workers:        cfg.Campaign.Workers,
		BaseSeed:       cfg.World.ResolveSeed(),
		Size:           cfg.World.Size,
		PitProbability: cfg.World.PitProbability,
		Session:        sessionOptions(0, journal),
	}
	if path := firstNonEmpty(batchLayout, cfg.World.LayoutPath); path != "" {
		l, err := config.LoadLayout(path)
		if err != nil {
			return err
		}
		opts.Layout = &l
	}

	var srv *http.Server
	if cfg.Campaign.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		opts.Metrics = campaign.NewMetrics(reg)
		srv = serveMetrics(cfg.Campaign.MetricsAddr, reg)
		defer shutdownMetrics(srv)
	}

	sum, err := campaign.Run(ctx, opts)
	if err != nil {
		return err
	}
	printSummary(cmd, sum, opts)

	if srv != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nServing metrics on %s/metrics until interrupted.\n", cfg.Campaign.MetricsAddr)
		<-ctx.Done()
	}
	return nil
}

func printSummary(cmd *cobra.Command, sum *campaign.Summary, opts campaign.Options) {
	out := cmd.OutOrStdout()
	board := fmt.Sprintf("%dx%d generated, pit probability %.2f", opts.Size, opts.Size, opts.PitProbability)
	if opts.Layout != nil {
		board = fmt.Sprintf("%dx%d fixed layout", opts.Layout.Size, opts.Layout.Size)
	}

	fmt.Fprintf(out, "Campaign: %d episodes, %d workers, seeds %d..%d\n",
		sum.Episodes, opts.Workers, opts.BaseSeed, opts.BaseSeed+uint64(sum.Episodes)-1)
	fmt.Fprintf(out, "Board:    %s\n", board)
	fmt.Fprintf(out, "Duration: %s\n\n", sum.Duration.Round(time.Millisecond))

	fmt.Fprintf(out, "%-14s %8s %8s\n", "OUTCOME", "COUNT", "SHARE")
	for _, name := range sum.SortedOutcomes() {
		n := sum.Outcomes[name]
		fmt.Fprintf(out, "%-14s %8d %7.1f%%\n", name, n, 100*float64(n)/float64(sum.Episodes))
	}
	fmt.Fprintf(out, "\nWin rate:   %.1f%%\nMean steps: %.1f\n", 100*sum.WinRate, sum.MeanSteps)
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Metrics server shutdown", zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
