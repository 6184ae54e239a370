package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-shiftreport/internal/cache"
	"github.com/miradorstack/mirador-shiftreport/internal/engine"
	"github.com/miradorstack/mirador-shiftreport/internal/metrics"
	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/reports"
	"github.com/miradorstack/mirador-shiftreport/internal/repo"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// Report kinds, used as metric labels.
const (
	KindShift   = "shift"
	KindDaily   = "daily"
	KindMonthly = "monthly"
)

const (
	exportLockTTL  = 2 * time.Minute
	exportLockPoll = 50 * time.Millisecond
)

// Options carries the presentation and aggregation settings of the service.
type Options struct {
	Layout         reports.Layout
	Areas          reports.OutputAreas
	RequiredShifts int
	RangeMode      engine.RangeMode
}

// ReportService ingests shift snapshots and serves aggregates, tables and report exports.
type ReportService struct {
	logger     *slog.Logger
	store      repo.Store
	aggregator *engine.Aggregator
	tables     *engine.TableBuilder
	query      *engine.Query
	builder    *reports.Builder
	charts     reports.ChartSource
	required   int
	renderer   reports.DocumentRenderer
	areas      reports.OutputAreas
	locks      cache.Provider
	latencies  *utils.DurationTracker
}

// NewReportService wires the engine and report builders around a store.
func NewReportService(logger *slog.Logger, store repo.Store, charts reports.ChartSource, renderer reports.DocumentRenderer, locks cache.Provider, opts Options) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if locks == nil {
		locks = cache.NewMemoryProvider()
	}
	required := opts.RequiredShifts
	if required <= 0 {
		required = engine.DefaultRequiredShifts
	}
	return &ReportService{
		logger:     logger,
		store:      store,
		aggregator: engine.NewAggregator(logger, store, store, opts.Layout.Critical, required),
		tables:     engine.NewTableBuilder(store, opts.Layout.Critical),
		query:      engine.NewQuery(store, opts.RangeMode),
		builder:    reports.NewBuilder(opts.Layout, charts),
		charts:     charts,
		required:   required,
		renderer:   renderer,
		areas:      opts.Areas,
		locks:      locks,
		latencies:  utils.NewDurationTracker(512),
	}
}

// IngestShift stores a snapshot and aggregates its date when this insert completes the day.
func (s *ReportService) IngestShift(ctx context.Context, snapshot models.ShiftSnapshot) (models.IngestResult, error) {
	if _, err := utils.ParseDayKey(snapshot.Date); err != nil {
		return models.IngestResult{}, err
	}
	if snapshot.Shift < 1 || snapshot.Shift > s.required {
		return models.IngestResult{}, utils.InvalidFormat("ingest shift", fmt.Sprintf("shift must be between 1 and %d, got %d", s.required, snapshot.Shift), nil)
	}
	if err := s.store.InsertShift(ctx, snapshot); err != nil {
		return models.IngestResult{}, s.fail("insert shift", err)
	}
	metrics.ObserveIngest()

	result := models.IngestResult{Date: snapshot.Date, Shift: snapshot.Shift}
	count, err := s.store.CountShifts(ctx, snapshot.Date)
	if err != nil {
		return result, s.fail("count shifts", err)
	}
	result.ShiftCount = count

	aggregated, err := s.aggregator.Trigger(ctx, snapshot.Date, count)
	if err != nil {
		return result, s.fail("aggregate after insert", err)
	}
	result.Aggregated = aggregated
	s.logger.Debug("shift ingested", slog.String("date", snapshot.Date), slog.Int("shift", snapshot.Shift), slog.Int("count", count), slog.Bool("aggregated", aggregated))
	return result, nil
}

// GetShift returns the first snapshot stored for date and shift.
func (s *ReportService) GetShift(ctx context.Context, date string, shift int) (models.ShiftSnapshot, error) {
	snap, err := s.store.FindShift(ctx, date, shift)
	if err != nil {
		return models.ShiftSnapshot{}, s.fail("get shift", err)
	}
	return snap, nil
}

// ListShifts returns every stored snapshot.
func (s *ReportService) ListShifts(ctx context.Context) ([]models.ShiftSnapshot, error) {
	shifts, err := s.store.ListShifts(ctx)
	if err != nil {
		return nil, s.fail("list shifts", err)
	}
	return shifts, nil
}

// UpdateShift replaces whole usage categories of the first matching snapshot.
// The daily aggregate is not recomputed; the next on-demand read does that.
func (s *ReportService) UpdateShift(ctx context.Context, date string, shift int, patch models.ShiftPatch) error {
	if patch.IsEmpty() {
		return utils.InvalidFormat("update shift", "invalid data provided", nil)
	}
	if err := s.store.UpdateShift(ctx, date, shift, patch); err != nil {
		return s.fail("update shift", err)
	}
	return nil
}

// DeleteShift removes the first matching snapshot.
func (s *ReportService) DeleteShift(ctx context.Context, date string, shift int) error {
	if err := s.store.DeleteShift(ctx, date, shift); err != nil {
		return s.fail("delete shift", err)
	}
	return nil
}

// DailyAggregate recomputes the date on demand, then returns whatever aggregate is stored.
func (s *ReportService) DailyAggregate(ctx context.Context, date string) (models.DailyAggregate, error) {
	if _, err := utils.ParseDayKey(date); err != nil {
		return models.DailyAggregate{}, err
	}
	if _, _, err := s.aggregator.Recompute(ctx, date); err != nil {
		return models.DailyAggregate{}, s.fail("recompute daily aggregate", err)
	}
	agg, err := s.store.FindAggregate(ctx, date)
	if err != nil {
		return models.DailyAggregate{}, s.fail("get daily aggregate", err)
	}
	return agg, nil
}

// Recompute aggregates a date on demand and reports whether anything was written.
func (s *ReportService) Recompute(ctx context.Context, date string) (models.DailyAggregate, bool, error) {
	if _, err := utils.ParseDayKey(date); err != nil {
		return models.DailyAggregate{}, false, err
	}
	agg, ok, err := s.aggregator.Recompute(ctx, date)
	if err != nil {
		return models.DailyAggregate{}, false, s.fail("recompute daily aggregate", err)
	}
	return agg, ok, nil
}

// ListAggregates returns every daily aggregate in stored order.
func (s *ReportService) ListAggregates(ctx context.Context) ([]models.DailyAggregate, error) {
	aggs, err := s.store.ListAggregates(ctx, repo.OrderStored)
	if err != nil {
		return nil, s.fail("list aggregates", err)
	}
	return aggs, nil
}

// DailyTable returns the per-component table over all aggregates.
func (s *ReportService) DailyTable(ctx context.Context) (models.DailyTable, error) {
	table, err := s.tables.Build(ctx)
	if err != nil {
		return nil, s.fail("build daily table", err)
	}
	return table, nil
}

// MonthlyGroups returns aggregates grouped by calendar month.
func (s *ReportService) MonthlyGroups(ctx context.Context) ([]models.MonthlyGroup, error) {
	groups, err := s.query.MonthlyGroups(ctx)
	if err != nil {
		return nil, s.fail("group by month", err)
	}
	return groups, nil
}

// ComponentUsage returns one component's stored maxima over a date range.
func (s *ReportService) ComponentUsage(ctx context.Context, start, end, component string) ([]models.UsageRangeEntry, error) {
	usage, err := s.query.ComponentUsage(ctx, start, end, component)
	if err != nil {
		return nil, s.fail("component usage", err)
	}
	return usage, nil
}

// ExportShiftReport renders the point report of a raw shift snapshot and returns its path.
func (s *ReportService) ExportShiftReport(ctx context.Context, date string, shift int) (string, error) {
	if _, err := utils.ParseDayKey(date); err != nil {
		return "", err
	}
	return s.export(ctx, KindShift, s.areas.ShiftReport(date, shift), func() (reports.Document, error) {
		snap, err := s.store.FindShift(ctx, date, shift)
		if err != nil {
			return reports.Document{}, err
		}
		return s.builder.PointReport(reports.FromShift(snap)), nil
	})
}

// ExportDailyReport renders the point report of a stored daily aggregate and returns its path.
func (s *ReportService) ExportDailyReport(ctx context.Context, date string) (string, error) {
	if _, err := utils.ParseDayKey(date); err != nil {
		return "", err
	}
	return s.export(ctx, KindDaily, s.areas.DailyReport(date), func() (reports.Document, error) {
		agg, err := s.store.FindAggregate(ctx, date)
		if err != nil {
			return reports.Document{}, err
		}
		return s.builder.PointReport(reports.FromAggregate(agg)), nil
	})
}

// ExportMonthlyReport renders the monthly report with charts and returns its path.
func (s *ReportService) ExportMonthlyReport(ctx context.Context, year, month int) (string, error) {
	if month < 1 || month > 12 || year < 1 {
		return "", utils.InvalidFormat("export monthly report", fmt.Sprintf("invalid month %d-%d", month, year), nil)
	}
	builder, release, err := s.monthlyBuilder()
	if err != nil {
		return "", s.fail("export monthly report", err)
	}
	defer release()
	return s.export(ctx, KindMonthly, s.areas.MonthlyReport(month, year), func() (reports.Document, error) {
		table, err := s.tables.Build(ctx)
		if err != nil {
			return reports.Document{}, err
		}
		return builder.MonthlyReport(month, year, table)
	})
}

// monthlyBuilder gives each monthly export its own chart images when the source supports it.
func (s *ReportService) monthlyBuilder() (*reports.Builder, func(), error) {
	scratch, ok := s.charts.(reports.ScratchChartSource)
	if !ok {
		return s.builder, func() {}, nil
	}
	source, release, err := scratch.Scratch()
	if err != nil {
		return nil, nil, err
	}
	return s.builder.WithCharts(source), release, nil
}

// RequiredShifts is the number of shifts that completes a day.
func (s *ReportService) RequiredShifts() int {
	return s.required
}

// ReportLatencyP95 returns the p95 export latency for a report kind.
func (s *ReportService) ReportLatencyP95(kind string) time.Duration {
	return s.latencies.Percentile(kind, 95)
}

// export serialises exports of the same file, builds the document and renders it.
func (s *ReportService) export(ctx context.Context, kind, path string, build func() (reports.Document, error)) (string, error) {
	if s.renderer == nil {
		return "", utils.OperationFailed("export "+kind+" report", "document renderer not configured", nil)
	}

	lockKey := "shiftreport:export:" + path
	acquired, err := s.acquireExportLock(ctx, lockKey, kind)
	if err != nil {
		if ctx.Err() != nil {
			return "", utils.OperationFailed("export "+kind+" report", "gave up waiting for export of "+path, ctx.Err())
		}
		s.logger.Warn("export lock unavailable, continuing without it", slog.String("path", path), slog.Any("error", err))
	}
	if acquired {
		defer func() {
			if err := s.locks.Del(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.Warn("release export lock failed", slog.String("path", path), slog.Any("error", err))
			}
		}()
	}

	start := time.Now()
	doc, err := build()
	if err == nil {
		err = s.renderer.Render(doc, path)
	}
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveReport(kind, duration, metrics.OutcomeError)
		return "", s.fail("export "+kind+" report", err)
	}
	metrics.ObserveReport(kind, duration, metrics.OutcomeSuccess)

	if count := s.latencies.Observe(kind, duration); count >= 20 && count%20 == 0 {
		s.logger.Info("report export latency", slog.String("kind", kind), slog.Duration("p95", s.latencies.Percentile(kind, 95)), slog.Int("samples", count))
	}
	s.logger.Info("report exported", slog.String("kind", kind), slog.String("path", path), slog.Duration("duration", duration))
	return path, nil
}

// acquireExportLock waits until no other export of the same file holds the lock.
// A lock left behind by a crashed exporter expires after exportLockTTL.
func (s *ReportService) acquireExportLock(ctx context.Context, key, kind string) (bool, error) {
	ticker := time.NewTicker(exportLockPoll)
	defer ticker.Stop()
	for {
		ok, err := s.locks.SetNX(ctx, key, []byte(kind), exportLockTTL)
		if err != nil || ok {
			return ok, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// fail logs operation failures at error level and makes sure every error carries a kind.
func (s *ReportService) fail(op string, err error) error {
	if errors.Is(err, utils.ErrNotFound) || errors.Is(err, utils.ErrInvalidFormat) {
		return err
	}
	s.logger.Error(op+" failed", slog.Any("error", err))
	if errors.Is(err, utils.ErrOperationFailed) {
		return err
	}
	return utils.OperationFailed(op, "unexpected failure", err)
}
