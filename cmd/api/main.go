package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	_ "tableorders/docs"
	"tableorders/pkg/api"
	"tableorders/pkg/config"
	"tableorders/pkg/logger"
	"tableorders/pkg/menu"
	"tableorders/pkg/notify"
	"tableorders/pkg/order"
	"tableorders/pkg/order/memory"
	"tableorders/pkg/otel"
)

// @title Table Orders API
// @version 1.0
// @description API for placing and managing restaurant table orders
// @host localhost:8000
// @BasePath /
func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New(os.Stderr, logger.LevelInfo, "orders-api", nil).Error(context.Background(), "load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadServer()
	if err != nil {
		logger.New(os.Stderr, logger.LevelInfo, "orders-api", nil).Error(context.Background(), "load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, "orders-api", otel.GetTraceID)
	defer log.Sync()

	if err := run(log, cfg); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger, cfg config.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: "orders-api",
		Host:        cfg.OTELHost,
		Probability: cfg.TraceProbability,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	var opts []order.Option
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn(ctx, "redis unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		opts = append(opts, order.WithPublisher(notify.NewRedis(rdb, cfg.EventsChannel)))
		log.Info(ctx, "publishing order events", "addr", cfg.RedisAddr, "channel", cfg.EventsChannel)
	}

	svc := order.NewService(memory.New(), cfg.Tables, menu.Catalog(), log, opts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h := api.New(svc, log, tp.Tracer("orders-api"), api.NewMetrics(reg))

	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", srv.Addr, "tables_start", cfg.Tables.Start, "tables_end", cfg.Tables.End)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
