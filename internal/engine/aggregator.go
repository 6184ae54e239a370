package engine

import (
	"context"
	"log/slog"

	"github.com/miradorstack/mirador-shiftreport/internal/metrics"
	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/repo"
)

// DefaultRequiredShifts is the number of shifts observed per day.
const DefaultRequiredShifts = 3

// Aggregator reduces a date's shift snapshots and upserts the daily aggregate.
type Aggregator struct {
	logger     *slog.Logger
	shifts     repo.ShiftStore
	aggregates repo.AggregateStore
	critical   string
	auto       AutoTriggerPolicy
	onDemand   OnDemandPolicy
}

// NewAggregator constructs an aggregator. required <= 0 falls back to DefaultRequiredShifts.
func NewAggregator(logger *slog.Logger, shifts repo.ShiftStore, aggregates repo.AggregateStore, critical string, required int) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if required <= 0 {
		required = DefaultRequiredShifts
	}
	return &Aggregator{
		logger:     logger,
		shifts:     shifts,
		aggregates: aggregates,
		critical:   critical,
		auto:       AutoTriggerPolicy{Required: required},
		onDemand:   OnDemandPolicy{Minimum: required},
	}
}

// ShouldAutoTrigger reports whether an insert that produced count snapshots aggregates the date.
func (a *Aggregator) ShouldAutoTrigger(count int) bool {
	return a.auto.Satisfied(count)
}

// Trigger runs the ingest-time aggregation for a date whose count was just observed.
func (a *Aggregator) Trigger(ctx context.Context, date string, count int) (bool, error) {
	if !a.ShouldAutoTrigger(count) {
		return false, nil
	}
	_, ok, err := a.run(ctx, date, metrics.TriggerAuto)
	return ok, err
}

// Recompute aggregates a date on demand. It returns false without error when the date has
// too few snapshots; nothing is written in that case.
func (a *Aggregator) Recompute(ctx context.Context, date string) (models.DailyAggregate, bool, error) {
	return a.run(ctx, date, metrics.TriggerOnDemand)
}

func (a *Aggregator) run(ctx context.Context, date, trigger string) (models.DailyAggregate, bool, error) {
	snapshots, err := a.shifts.FindShifts(ctx, date)
	if err != nil {
		a.logger.Error("load shift snapshots failed", slog.String("date", date), slog.Any("error", err))
		metrics.ObserveAggregation(trigger, metrics.OutcomeError)
		return models.DailyAggregate{}, false, err
	}
	if !a.onDemand.Satisfied(len(snapshots)) {
		a.logger.Warn("not enough shifts to aggregate",
			slog.String("date", date),
			slog.Int("found", len(snapshots)),
			slog.Int("required", a.onDemand.Minimum),
			slog.String("policy", a.onDemand.Name()),
		)
		metrics.ObserveAggregation(trigger, metrics.OutcomeSkipped)
		return models.DailyAggregate{}, false, nil
	}

	aggregate := ReduceShifts(date, snapshots, a.critical)
	if err := a.aggregates.UpsertAggregate(ctx, aggregate); err != nil {
		a.logger.Error("upsert daily aggregate failed", slog.String("date", date), slog.Any("error", err))
		metrics.ObserveAggregation(trigger, metrics.OutcomeError)
		return models.DailyAggregate{}, false, err
	}
	metrics.ObserveAggregation(trigger, metrics.OutcomeSuccess)
	a.logger.Debug("daily aggregate updated",
		slog.String("date", date),
		slog.String("trigger", trigger),
		slog.Int("shifts", len(snapshots)),
		slog.Any("aggregate", aggregate),
	)
	return aggregate, true, nil
}
