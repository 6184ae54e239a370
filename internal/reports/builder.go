package reports

import (
	"fmt"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

const availabilityUp = "100%"

// Layout names the organizational components listed first, in order, and the critical one.
type Layout struct {
	Organization string
	Components   []string
	Critical     string
}

func (l Layout) organizational(component string) bool {
	for _, c := range l.Components {
		if c == component {
			return true
		}
	}
	return false
}

// PointData is the cpu and memory readings of one shift snapshot or daily aggregate.
type PointData struct {
	Date        string
	CPUUsage    models.UsageMap
	MemoryUsage models.UsageMap
}

// FromShift takes the readings of a raw shift snapshot.
func FromShift(s models.ShiftSnapshot) PointData {
	return PointData{Date: s.Date, CPUUsage: s.CPUUsage, MemoryUsage: s.MemoryUsage}
}

// FromAggregate takes the readings of a daily aggregate.
func FromAggregate(a models.DailyAggregate) PointData {
	return PointData{Date: a.Date, CPUUsage: a.CPUUsage, MemoryUsage: a.MemoryUsage}
}

// ChartSource renders the cpu and memory charts of a component.
type ChartSource interface {
	Charts(component string, entries []models.ComponentTimeSeriesEntry) (string, string, error)
}

// ScratchChartSource hands out chart sources whose images belong to one document only.
// release removes the images once the document has been rendered.
type ScratchChartSource interface {
	ChartSource
	Scratch() (source ChartSource, release func(), err error)
}

// Builder computes report documents.
type Builder struct {
	layout Layout
	charts ChartSource
}

// NewBuilder constructs a report builder. charts may be nil when only point reports are built.
func NewBuilder(layout Layout, charts ChartSource) *Builder {
	return &Builder{layout: layout, charts: charts}
}

// WithCharts returns a builder with the same layout drawing charts from charts.
func (b *Builder) WithCharts(charts ChartSource) *Builder {
	return &Builder{layout: b.layout, charts: charts}
}

// PointReport lays out one snapshot or aggregate as an organizational section and a tools section.
func (b *Builder) PointReport(data PointData) Document {
	org := &Table{Columns: pointColumns(60, 45)}
	for _, component := range b.layout.Components {
		cpu := displayValue(data.CPUUsage, component)
		availability := availabilityUp
		if component == b.layout.Critical && cpu == models.SentinelDown {
			availability = models.SentinelDown
		}
		org.Rows = append(org.Rows, []string{component, cpu, displayMemory(data.MemoryUsage, component), availability})
	}

	tools := &Table{Columns: pointColumns(65, 40)}
	for _, component := range data.CPUUsage.Keys() {
		if b.layout.organizational(component) {
			continue
		}
		cpu := displayValue(data.CPUUsage, component)
		availability := availabilityUp
		if cpu == models.SentinelDown {
			availability = models.SentinelDown
		}
		tools.Rows = append(tools.Rows, []string{component, cpu, displayMemory(data.MemoryUsage, component), availability})
	}

	return Document{
		Title: "Date: " + data.Date,
		Blocks: []Block{
			{Heading: "Organizational Applications: " + b.layout.Organization, Table: org},
			{Heading: "Tools:", Table: tools},
		},
	}
}

// MonthlyReport lays out every component with entries in the month: a table page and a chart page each.
func (b *Builder) MonthlyReport(month, year int, table models.DailyTable) (Document, error) {
	if month < 1 || month > 12 {
		return Document{}, utils.InvalidFormat("monthly report", fmt.Sprintf("month %d out of range", month), nil)
	}

	doc := Document{
		Title:    "Monthly Report",
		Subtitle: fmt.Sprintf("Metrics for %d-%d", month, year),
		Framed:   true,
	}
	for _, series := range table {
		var entries []models.ComponentTimeSeriesEntry
		for _, e := range series.Entries {
			key, err := utils.ParseDayKey(e.Date)
			if err != nil {
				return Document{}, err
			}
			if key.Month == month && key.Year == year {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			continue
		}

		grid := &Table{Columns: []Column{
			{Title: "Date", Width: 40},
			{Title: "CPU Usage (core)", Width: 40},
			{Title: "Memory Usage", Width: 50},
			{Title: "Availability (%)", Width: 50},
		}}
		for _, e := range entries {
			grid.Rows = append(grid.Rows, []string{e.Date, display(e.CPUUsage), memory(e.MemoryUsage), display(e.Availability)})
		}
		doc.Blocks = append(doc.Blocks, Block{Heading: "Component: " + series.Component, NewPage: true, Table: grid})

		if b.charts == nil {
			return Document{}, utils.OperationFailed("monthly report", "chart generator not configured", nil)
		}
		cpuPath, memPath, err := b.charts.Charts(series.Component, entries)
		if err != nil {
			return Document{}, err
		}
		doc.Blocks = append(doc.Blocks, Block{NewPage: true, Charts: []ChartRef{
			{Caption: "CPU Usage Chart for " + series.Component, Path: cpuPath},
			{Caption: "Memory Usage Chart for " + series.Component, Path: memPath},
		}})
	}

	if len(doc.Blocks) == 0 {
		return Document{}, utils.NotFound("monthly report", fmt.Sprintf("no data found for %d-%d", month, year))
	}
	return doc, nil
}

func pointColumns(componentWidth, availabilityWidth float64) []Column {
	return []Column{
		{Title: "Component", Width: componentWidth},
		{Title: "CPU Usage (core)", Width: 40},
		{Title: "Memory Usage", Width: 50},
		{Title: "Availability (%)", Width: availabilityWidth},
	}
}

func displayValue(usage models.UsageMap, component string) string {
	v, ok := usage.Lookup(component)
	if !ok {
		return models.NotAvailable
	}
	return display(v)
}

func displayMemory(usage models.UsageMap, component string) string {
	v, ok := usage.Lookup(component)
	if !ok {
		return models.NotAvailable
	}
	return memory(v)
}

func display(v models.Value) string {
	if v.IsAbsent() {
		return models.NotAvailable
	}
	return v.String()
}

// memory appends the unit to numeric readings only.
func memory(v models.Value) string {
	if v.IsNumber() {
		return v.String() + " MiB"
	}
	return display(v)
}
