package repo

import (
	"context"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
)

// AggregateOrder selects the ordering of aggregate listings.
type AggregateOrder int

const (
	// OrderStored returns aggregates in the order the store first saw each date.
	OrderStored AggregateOrder = iota
	// OrderByDate sorts by the date key as a plain string, ties broken by stored order.
	OrderByDate
)

func (o AggregateOrder) String() string {
	if o == OrderByDate {
		return "date"
	}
	return "stored"
}

// ShiftStore holds raw per-shift snapshots. Several snapshots may share a (date, shift) pair;
// reads return them in insertion order and update/delete act on the first match.
type ShiftStore interface {
	InsertShift(ctx context.Context, snapshot models.ShiftSnapshot) error
	CountShifts(ctx context.Context, date string) (int, error)
	FindShifts(ctx context.Context, date string) ([]models.ShiftSnapshot, error)
	FindShift(ctx context.Context, date string, shift int) (models.ShiftSnapshot, error)
	ListShifts(ctx context.Context) ([]models.ShiftSnapshot, error)
	UpdateShift(ctx context.Context, date string, shift int, patch models.ShiftPatch) error
	DeleteShift(ctx context.Context, date string, shift int) error
}

// AggregateStore holds one daily aggregate per date.
type AggregateStore interface {
	UpsertAggregate(ctx context.Context, aggregate models.DailyAggregate) error
	FindAggregate(ctx context.Context, date string) (models.DailyAggregate, error)
	ListAggregates(ctx context.Context, order AggregateOrder) ([]models.DailyAggregate, error)
}

// Store is the full document store used by the service.
type Store interface {
	ShiftStore
	AggregateStore
	Close() error
}
