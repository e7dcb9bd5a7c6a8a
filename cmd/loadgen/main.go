package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tableorders/pkg/client"
	"tableorders/pkg/config"
	"tableorders/pkg/logger"
	"tableorders/pkg/workload"
)

type options struct {
	interval    time.Duration
	maxRPS      int
	timeout     time.Duration
	rateLimit   float64
	duration    time.Duration
	metricsAddr string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive random concurrent traffic against the order service",
		Long: `loadgen picks --max-rps distinct tables every --interval and, per table,
lists its orders and then creates, deletes or re-reads one at random.
The service address comes from SERVER_HOST (a .env file is read if present).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), out, opts)
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&opts.interval, "interval", time.Second, "time between ticks")
	flags.IntVar(&opts.maxRPS, "max-rps", 10, "tables (and concurrent units) per tick")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Second, "per request timeout")
	flags.Float64Var(&opts.rateLimit, "rate-limit", 0, "cap on requests per second across all units, 0 for none")
	flags.DurationVar(&opts.duration, "duration", 0, "stop after this long, 0 to run until interrupted")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts options) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadLoadGen()
	if err != nil {
		return err
	}
	log := logger.New(out, cfg.LogLevel, "loadgen", nil)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	c := client.New(cfg.ServerHost,
		client.WithTimeout(opts.timeout),
		client.WithRateLimit(opts.rateLimit, 2*opts.maxRPS),
	)

	tables, err := c.Config(ctx)
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	items, err := c.Menus(ctx)
	if err != nil {
		return fmt.Errorf("fetch menus: %w", err)
	}
	log.Info(ctx, "initialized", "server", cfg.ServerHost, "tables_start", tables.Start, "tables_end", tables.End, "menu_items", len(items))

	reg := prometheus.NewRegistry()
	metrics := workload.NewMetrics(reg)
	if opts.metricsAddr != "" {
		srv := &http.Server{Addr: opts.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics server", "error", err)
			}
		}()
		defer srv.Close()
	}

	gen, err := workload.New(c, items, workload.Config{
		Interval:      opts.interval,
		MaxConcurrent: opts.maxRPS,
		OpTimeout:     opts.timeout,
		Tables:        tables,
	}, log, workload.WithMetrics(metrics))
	if err != nil {
		return err
	}
	return gen.Run(ctx)
}
