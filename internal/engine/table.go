package engine

import (
	"context"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/repo"
)

// BuildTable reshapes daily aggregates into per-component series. Records are expected in
// date-string order; that order is lexical on dd-mm-yyyy keys, not chronological.
// The first record seen for a (component, date) pair wins.
func BuildTable(records []models.DailyAggregate, critical string) models.DailyTable {
	var table models.DailyTable
	position := make(map[string]int)
	seen := make(map[string]map[string]struct{})

	for _, record := range records {
		for _, component := range recordComponents(record) {
			idx, ok := position[component]
			if !ok {
				idx = len(table)
				position[component] = idx
				seen[component] = make(map[string]struct{})
				table = append(table, models.ComponentSeries{Component: component})
			}
			if _, dup := seen[component][record.Date]; dup {
				continue
			}
			seen[component][record.Date] = struct{}{}

			fallback := placeholder(component, critical)
			table[idx].Entries = append(table[idx].Entries, models.ComponentTimeSeriesEntry{
				Component:    component,
				Date:         record.Date,
				CPUUsage:     valueOr(record.CPUUsage, component, fallback),
				MemoryUsage:  valueOr(record.MemoryUsage, component, fallback),
				Availability: valueOr(record.ApplicationAvailability, component, fallback),
			})
		}
	}
	return table
}

// recordComponents lists cpu keys, then memory keys, then availability keys, without repeats.
func recordComponents(record models.DailyAggregate) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, usage := range []models.UsageMap{record.CPUUsage, record.MemoryUsage, record.ApplicationAvailability} {
		for _, name := range usage.Keys() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func placeholder(component, critical string) models.Value {
	if component == critical {
		return models.Text(models.SentinelDown)
	}
	return models.Text(models.NotAvailable)
}

func valueOr(usage models.UsageMap, component string, fallback models.Value) models.Value {
	if v, ok := usage.Lookup(component); ok {
		return v
	}
	return fallback
}

// TableBuilder reads every daily aggregate and builds the component table.
type TableBuilder struct {
	store    repo.AggregateStore
	critical string
}

// NewTableBuilder constructs a table builder over the aggregate store.
func NewTableBuilder(store repo.AggregateStore, critical string) *TableBuilder {
	return &TableBuilder{store: store, critical: critical}
}

// Build returns the table over all stored aggregates.
func (b *TableBuilder) Build(ctx context.Context) (models.DailyTable, error) {
	records, err := b.store.ListAggregates(ctx, repo.OrderByDate)
	if err != nil {
		return nil, err
	}
	return BuildTable(records, b.critical), nil
}
