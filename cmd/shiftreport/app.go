package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miradorstack/mirador-shiftreport/internal/cache"
	"github.com/miradorstack/mirador-shiftreport/internal/charts"
	"github.com/miradorstack/mirador-shiftreport/internal/config"
	"github.com/miradorstack/mirador-shiftreport/internal/engine"
	"github.com/miradorstack/mirador-shiftreport/internal/reports"
	"github.com/miradorstack/mirador-shiftreport/internal/repo"
	"github.com/miradorstack/mirador-shiftreport/internal/services"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// app holds the wired service and the resources that must be released on exit.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	reports *services.ReportService
	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	a := &app{cfg: cfg, logger: logger}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	// Export locks must hold even without Valkey; they then cover this process only.
	var locks cache.Provider = cache.NewMemoryProvider()
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			locks = provider
			a.closers = append(a.closers, provider.Close)
		}
	}

	var store repo.Store
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = repo.NewMemoryStore()
	default:
		sqlStore, err := repo.OpenSQL(ctx, cfg.Store.Driver, cfg.Store.DSN, cacheProvider, cfg.Cache.AggregatesTTL, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
		}
		store = sqlStore
		a.closers = append(a.closers, sqlStore.Close)
	}

	rangeMode, err := engine.ParseRangeMode(cfg.Reports.RangeFilter)
	if err != nil {
		a.close()
		return nil, err
	}
	plotValue, err := charts.PlotValueFor(cfg.Reports.ChartNonNumeric)
	if err != nil {
		a.close()
		return nil, err
	}

	a.reports = services.NewReportService(
		logger,
		store,
		charts.NewGenerator(cfg.Reports.ChartsDir, charts.NewPlotRenderer(), plotValue),
		reports.NewPDFRenderer(cfg.Reports.HeaderImage),
		locks,
		services.Options{
			Layout: reports.Layout{
				Organization: cfg.Components.Organization,
				Components:   cfg.Components.Organizational,
				Critical:     cfg.Components.Critical,
			},
			Areas: reports.OutputAreas{
				Title:      cfg.Reports.Title,
				ShiftDir:   cfg.Reports.ShiftDir,
				DailyDir:   cfg.Reports.DailyDir,
				MonthlyDir: cfg.Reports.MonthlyDir,
				Extension:  cfg.Reports.Extension,
			},
			RequiredShifts: cfg.Aggregation.RequiredShifts,
			RangeMode:      rangeMode,
		},
	)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close resource", slog.Any("error", err))
		}
	}
	a.closers = nil
}
