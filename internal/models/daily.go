package models

import (
	"bytes"
	"encoding/json"
)

// DailyAggregate is the once-per-day reduction of a date's shift snapshots.
type DailyAggregate struct {
	Date                    string   `json:"date"`
	CPUUsage                UsageMap `json:"cpu_usage"`
	MemoryUsage             UsageMap `json:"memory_usage"`
	ApplicationAvailability UsageMap `json:"application_availability"`
}

// ComponentTimeSeriesEntry is one (component, date) row of the daily table.
type ComponentTimeSeriesEntry struct {
	Component    string `json:"-"`
	Date         string `json:"date"`
	CPUUsage     Value  `json:"cpu_usage"`
	MemoryUsage  Value  `json:"memory_usage"`
	Availability Value  `json:"availability"`
}

// ComponentSeries holds a component's rows in date order.
type ComponentSeries struct {
	Component string
	Entries   []ComponentTimeSeriesEntry
}

// DailyTable is the per-component view over all daily aggregates, in first-seen component order.
type DailyTable []ComponentSeries

// Component returns the series for a component.
func (t DailyTable) Component(name string) (ComponentSeries, bool) {
	for _, s := range t {
		if s.Component == name {
			return s, true
		}
	}
	return ComponentSeries{}, false
}

// MarshalJSON encodes the table as a component-keyed object, keeping component order.
func (t DailyTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, series := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(series.Component)
		if err != nil {
			return nil, err
		}
		entries := series.Entries
		if entries == nil {
			entries = []ComponentTimeSeriesEntry{}
		}
		rows, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rows)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MonthlyGroup collects the daily aggregates of one calendar month.
type MonthlyGroup struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Data  []DailyAggregate `json:"data"`
}

// UsageRangeEntry is a component's stored maxima for a single date.
type UsageRangeEntry struct {
	Date        string `json:"date"`
	CPUUsage    Value  `json:"cpu_usage"`
	MemoryUsage Value  `json:"memory_usage"`
}
