// Command rollcore-server is the fabric roll inventory server process.
// It loads configuration, opens the persistence and blob backends, and
// serves the inventory and reports APIs.
//
// Usage:
//
//	rollcore-server [--config path/to/config.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcore/internal/adapters/reports"
	"rollcore/internal/adapters/rolls"
	"rollcore/internal/blob"
	"rollcore/internal/config"
	"rollcore/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rollcore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("rollcore starting",
		"addr", cfg.Server.Addr,
		"storage_driver", cfg.Storage.Driver,
		"blob_driver", cfg.Blob.Driver,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStoreWith(core.StorageOptions{
		Driver:      core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	}, engine)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	serviceOpts := []core.ServiceOption{core.WithLogger(logger)}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		recorder, err := core.NewPrometheusMetricsRecorder(registry, cfg.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		serviceOpts = append(serviceOpts, core.WithMetricsRecorder(recorder))
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	service := core.NewService(store, serviceOpts...)

	blobStore, err := blob.OpenWith(context.Background(), blob.Options{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:    cfg.Blob.S3.Bucket,
			Region:    cfg.Blob.S3.Region,
			Endpoint:  cfg.Blob.S3.Endpoint,
			PathStyle: cfg.Blob.S3.PathStyle,
		},
	})
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	worker := reports.NewWorker(service, blobStore, reports.NewSlogAuditLoggerWith(logger),
		reports.WithQueueSize(cfg.Reports.QueueSize),
		reports.WithHistoryLimit(cfg.Reports.HistoryLimit),
	)
	worker.Start()

	mux := http.NewServeMux()
	mux.Handle("/", rolls.NewHandler(service))
	mux.Handle("/api/v1/reports/", reports.NewHandler(service, worker))
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Serve in a background goroutine so we can handle signals.
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("rollcore ready", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		} else {
			serveErr <- nil
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	grace := time.Duration(cfg.Server.ShutdownGraceSeconds) * time.Second
	shutCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	if err := worker.Stop(shutCtx); err != nil {
		slog.Warn("export worker stop error", "err", err)
	}

	slog.Info("rollcore stopped")
	return nil
}
