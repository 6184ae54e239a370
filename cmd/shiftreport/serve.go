package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-shiftreport/internal/api"
	"github.com/miradorstack/mirador-shiftreport/internal/httpapi"
	"github.com/miradorstack/mirador-shiftreport/internal/metrics"
	"github.com/miradorstack/mirador-shiftreport/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC, HTTP and metrics listeners",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger
	logger.Info("starting shiftreport",
		slog.String("grpc", cfg.Server.Address),
		slog.String("http", cfg.Server.HTTPAddress),
		slog.String("store", cfg.Store.Driver),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	grpcServer, err := api.NewServer(cfg.Server, services.NewGRPCService(logger, a.reports))
	if err != nil {
		return err
	}
	httpServer, err := httpapi.NewServer(cfg.Server.HTTPAddress, httpapi.NewRouter(logger, a.reports), cfg.Server.AllowedOrigins, logger)
	if err != nil {
		grpcServer.Shutdown(context.Background())
		return err
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := grpcServer.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()
	go func() {
		logger.Info("http server listening", slog.String("address", httpServer.Address()))
		if serveErr := httpServer.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}
	grpcServer.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("shiftreport stopped")
	return nil
}
