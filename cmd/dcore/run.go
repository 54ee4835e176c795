package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/metrics"
	"github.com/flavioheleno/dcore/render"
)

func init() {
	rootCmd.AddCommand(runCmd)
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&roundRobinFlag, `round-robin`, false, `refresh the screens one after the other from a single loop`)
		c.Flags().StringVar(&metricsAddrFlag, `metrics-addr`, ``, "serve Prometheus metrics on `addr` (e.g. :9100)")
	}
}

var runCmd = &cobra.Command{
	Use:   runCmdStr,
	Short: `show the configured inputs until interrupted`,
	Long:  `initialize every configured screen and keep showing its frame input, reusing the last good frame when the input is missing or corrupt`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(runFunc)
	},
}

var (
	runCmdStr       = "run"
	roundRobinFlag  bool
	metricsAddrFlag string
)

func runFunc(ctx context.Context, logger logx.LoggerProvider) error {
	logx.Info("dcore starting", logger, "config", configFlag)
	defer logx.Info("dcore stopped", logger)

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(catalog)
	if err != nil {
		return err
	}
	reg, err := openScreens(cfg, catalog, &device.HostOpener{}, nil, logger)
	if err != nil {
		return err
	}
	defer func() { logx.IsErr(reg.Close(), logger, slog.LevelWarn) }()

	logx.IsErr(reg.Clear(ctx, ""), logger, slog.LevelWarn)

	opts := []render.Option{render.WithLogger(logger)}
	if roundRobinFlag {
		opts = append(opts, render.WithRoundRobin())
	}
	if len(metricsAddrFlag) > 0 {
		promReg := prometheus.NewRegistry()
		col, err := metrics.New(promReg)
		if err != nil {
			return errors.New(err)
		}
		opts = append(opts, render.WithObserver(col))
		stop := serveMetrics(metricsAddrFlag, promReg, logger)
		defer stop()
	}

	loop, err := render.New(cfg, catalog, reg, opts...)
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}

// serveMetrics starts the metrics endpoint and returns its shutdown func.
func serveMetrics(addr string, g prometheus.Gatherer, logger logx.LoggerProvider) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logx.Info("metrics endpoint listening", logger, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Error("metrics endpoint failed", logger, "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
