package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/edulog/internal/adapters/http/api"
	"github.com/okian/edulog/internal/adapters/http/swagger"
	service "github.com/okian/edulog/internal/app"
	"github.com/okian/edulog/pkg/logger"
	"github.com/okian/edulog/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Compute the report and serve it over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, cfg, err := loadService(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := svc.Compute(ctx); err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}

		mux, err := newMux(svc, cfg.MaxTopLimit)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go startServiceMetricsUpdater(ctx, svc)
		return run(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides EDULOG_ADDR)")
}

func newMux(svc *service.Service, maxLimit int) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	if err := swagger.Register(mux); err != nil {
		return nil, fmt.Errorf("register openapi: %w", err)
	}
	api.NewServer(svc, svc, maxLimit, api.WithPrioritizer(svc)).Register(mux)
	return mux, nil
}

// run serves until ctx is cancelled, then shuts the server down gracefully.
func run(ctx context.Context, srv *http.Server) error {
	log := logger.Named("http")
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater periodically mirrors service stats into gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if rows, ok := stats["rows"].(int); ok {
		metrics.UpdateReportRows(rows)
	}
	if workers, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workers)
	}
}
