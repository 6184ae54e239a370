package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/repo"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// RangeMode selects how a date range is matched.
type RangeMode int

const (
	// RangeIndependentFields checks year, month and day each against their own bounds.
	// 05-02-2025 falls inside 01-01-2025..10-03-2025 but 15-02-2025 does not.
	RangeIndependentFields RangeMode = iota
	// RangeChronological compares whole calendar days.
	RangeChronological
)

// ParseRangeMode maps the configuration names onto a RangeMode.
func ParseRangeMode(name string) (RangeMode, error) {
	switch name {
	case "", "independent":
		return RangeIndependentFields, nil
	case "chronological":
		return RangeChronological, nil
	default:
		return 0, fmt.Errorf("unknown range mode %q", name)
	}
}

func (m RangeMode) String() string {
	if m == RangeChronological {
		return "chronological"
	}
	return "independent"
}

// RangeIncludes reports whether date lies within [start, end] under the given mode.
func RangeIncludes(date, start, end utils.DayKey, mode RangeMode) bool {
	if mode == RangeChronological {
		d := date.Ordinal()
		return d >= start.Ordinal() && d <= end.Ordinal()
	}
	return within(date.Year, start.Year, end.Year) &&
		within(date.Month, start.Month, end.Month) &&
		within(date.Day, start.Day, end.Day)
}

func within(v, lo, hi int) bool { return v >= lo && v <= hi }

// GroupByMonth buckets aggregates by calendar month, ordered by (year, month).
// Each group keeps its members in the order given.
func GroupByMonth(records []models.DailyAggregate) ([]models.MonthlyGroup, error) {
	type monthKey struct{ year, month int }
	index := make(map[monthKey]int)
	var groups []models.MonthlyGroup

	for _, record := range records {
		key, err := utils.ParseDayKey(record.Date)
		if err != nil {
			return nil, err
		}
		mk := monthKey{key.Year, key.Month}
		i, ok := index[mk]
		if !ok {
			i = len(groups)
			index[mk] = i
			groups = append(groups, models.MonthlyGroup{Year: key.Year, Month: key.Month})
		}
		groups[i].Data = append(groups[i].Data, record)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Year != groups[j].Year {
			return groups[i].Year < groups[j].Year
		}
		return groups[i].Month < groups[j].Month
	})
	return groups, nil
}

// FilterComponentUsage returns one component's stored cpu/memory maxima for every date in range,
// sorted by date string. Several records for one date collapse to their per-field maximum.
func FilterComponentUsage(records []models.DailyAggregate, start, end, component string, mode RangeMode) ([]models.UsageRangeEntry, error) {
	startKey, err := utils.ParseDayKey(start)
	if err != nil {
		return nil, err
	}
	endKey, err := utils.ParseDayKey(end)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*models.UsageRangeEntry)
	var dates []string
	for _, record := range records {
		key, err := utils.ParseDayKey(record.Date)
		if err != nil {
			return nil, err
		}
		if !RangeIncludes(key, startKey, endKey, mode) {
			continue
		}
		cpu := record.CPUUsage.Get(component)
		mem := record.MemoryUsage.Get(component)
		if entry, ok := byDate[record.Date]; ok {
			entry.CPUUsage = storedMax(entry.CPUUsage, cpu)
			entry.MemoryUsage = storedMax(entry.MemoryUsage, mem)
			continue
		}
		byDate[record.Date] = &models.UsageRangeEntry{Date: record.Date, CPUUsage: cpu, MemoryUsage: mem}
		dates = append(dates, record.Date)
	}

	sort.Strings(dates)
	out := make([]models.UsageRangeEntry, 0, len(dates))
	for _, date := range dates {
		entry := *byDate[date]
		if entry.CPUUsage.IsAbsent() {
			entry.CPUUsage = models.Text(models.NotAvailable)
		}
		if entry.MemoryUsage.IsAbsent() {
			entry.MemoryUsage = models.Text(models.NotAvailable)
		}
		out = append(out, entry)
	}
	return out, nil
}

// storedMax orders values the way the document store does: absent < numbers < text.
func storedMax(a, b models.Value) models.Value {
	if rank(a) != rank(b) {
		if rank(a) > rank(b) {
			return a
		}
		return b
	}
	switch a.Kind() {
	case models.KindNumber:
		x, _ := a.Float()
		y, _ := b.Float()
		if y > x {
			return b
		}
	case models.KindText:
		x, _ := a.TextValue()
		y, _ := b.TextValue()
		if y > x {
			return b
		}
	}
	return a
}

func rank(v models.Value) int {
	switch v.Kind() {
	case models.KindNumber:
		return 1
	case models.KindText:
		return 2
	default:
		return 0
	}
}

// Query serves the read-side views over the aggregate store.
type Query struct {
	store repo.AggregateStore
	mode  RangeMode
}

// NewQuery constructs the read-side query over the aggregate store.
func NewQuery(store repo.AggregateStore, mode RangeMode) *Query {
	return &Query{store: store, mode: mode}
}

// Mode returns the configured range mode.
func (q *Query) Mode() RangeMode { return q.mode }

// MonthlyGroups groups all stored aggregates by month.
func (q *Query) MonthlyGroups(ctx context.Context) ([]models.MonthlyGroup, error) {
	records, err := q.store.ListAggregates(ctx, repo.OrderStored)
	if err != nil {
		return nil, err
	}
	return GroupByMonth(records)
}

// ComponentUsage filters one component's stored maxima to a date range.
func (q *Query) ComponentUsage(ctx context.Context, start, end, component string) ([]models.UsageRangeEntry, error) {
	if component == "" {
		return nil, utils.InvalidFormat("component usage", "component is required", nil)
	}
	records, err := q.store.ListAggregates(ctx, repo.OrderStored)
	if err != nil {
		return nil, err
	}
	return FilterComponentUsage(records, start, end, component, q.mode)
}
