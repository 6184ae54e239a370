package charts

import (
	"fmt"
	"math"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
)

// Category is a plotted usage dimension.
type Category string

const (
	CategoryCPU    Category = "cpu"
	CategoryMemory Category = "memory"
)

// Title is the chart heading prefix.
func (c Category) Title() string {
	if c == CategoryMemory {
		return "Memory Usage"
	}
	return "CPU Usage"
}

// AxisLabel names the y axis including its unit.
func (c Category) AxisLabel() string {
	if c == CategoryMemory {
		return "Memory Usage (MiB)"
	}
	return "CPU Usage (core)"
}

// PlotValueFunc maps a stored reading to a y value. NaN marks a gap.
type PlotValueFunc func(models.Value) float64

// ZeroForNonNumeric plots sentinels and placeholders as 0, which makes them
// indistinguishable from a real zero reading.
func ZeroForNonNumeric(v models.Value) float64 {
	if f, ok := v.Float(); ok {
		return f
	}
	return 0
}

// GapForNonNumeric leaves a gap in the line wherever the reading is not a number.
func GapForNonNumeric(v models.Value) float64 {
	if f, ok := v.Float(); ok {
		return f
	}
	return math.NaN()
}

// PlotValueFor resolves the configured placeholder mode ("zero" or "gap").
func PlotValueFor(mode string) (PlotValueFunc, error) {
	switch mode {
	case "", "zero":
		return ZeroForNonNumeric, nil
	case "gap":
		return GapForNonNumeric, nil
	default:
		return nil, fmt.Errorf("unknown chart mode %q", mode)
	}
}

// Series is one chart's aligned x labels and y values.
type Series struct {
	Component string
	Category  Category
	Labels    []string
	Values    []float64
}

// Title is the chart heading.
func (s Series) Title() string {
	return fmt.Sprintf("%s for %s", s.Category.Title(), s.Component)
}

// BuildSeries aligns the entries' dates with their cpu and memory plot values.
func BuildSeries(component string, entries []models.ComponentTimeSeriesEntry, plotValue PlotValueFunc) (Series, Series) {
	if plotValue == nil {
		plotValue = ZeroForNonNumeric
	}
	cpu := Series{Component: component, Category: CategoryCPU}
	mem := Series{Component: component, Category: CategoryMemory}
	for _, e := range entries {
		cpu.Labels = append(cpu.Labels, e.Date)
		mem.Labels = append(mem.Labels, e.Date)
		cpu.Values = append(cpu.Values, plotValue(e.CPUUsage))
		mem.Values = append(mem.Values, plotValue(e.MemoryUsage))
	}
	return cpu, mem
}
