package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	apphttp "github.com/amakane-hakari/clist/internal/api/http"
	"github.com/amakane-hakari/clist/internal/config"
	"github.com/amakane-hakari/clist/internal/list"
	ilog "github.com/amakane-hakari/clist/internal/log"
	"github.com/amakane-hakari/clist/internal/metrics"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		ilog.New().Error("config.load_failed", "err", err)
		os.Exit(2)
	}

	logger := ilog.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	arena := list.NewArenaAllocator[uint64, uint64](cfg.ArenaSlabNodes, cfg.ArenaMaxNodes)
	st, err := list.NewWithAllocator[uint64, uint64](arena,
		list.WithNodeSize(cfg.NodeSize),
		list.WithWorkers(cfg.Workers),
		list.WithMaxWorkers(cfg.MaxWorkers),
		list.WithChunkSize(cfg.ChunkSize),
		list.WithLogger(logger.With("component", "list")),
		list.WithMetrics(metrics.NewProm(cfg.MetricsNamespace, reg)),
	)
	if err != nil {
		logger.Error("list.init_failed", "err", err)
		os.Exit(1)
	}

	health := apphttp.NewHealth()
	router := apphttp.NewRouter(st,
		apphttp.WithHealth(health),
		apphttp.WithRouterLogger(logger.With("component", "http")),
		apphttp.WithMetricsGatherer(reg),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("server.start",
		"addr", cfg.HTTPAddr,
		"workers", st.Workers(),
		"max_workers", st.MaxWorkers(),
		"chunk_size", cfg.ChunkSize,
		"pairs_per_node", st.PairsPerNode(),
		"arena_max_nodes", cfg.ArenaMaxNodes,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("server.signal")
	case err := <-errCh:
		logger.Error("server.error", "err", err)
	}

	// ロードバランサに外してもらうため先に /health を 503 にする
	health.SetDraining(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown_failed", "err", err)
	} else {
		logger.Info("server.stopped")
	}

	stats := arena.Stats()
	st.Close()
	logger.Info("list.closed", "slabs", stats.Slabs, "live_nodes", stats.LiveNodes)
}
