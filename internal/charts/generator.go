package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/reports"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// ImageExtension is the file extension of rendered charts.
const ImageExtension = "png"

// ImageRenderer writes a series as a line chart image.
type ImageRenderer interface {
	RenderLine(series Series, path string) error
}

var _ reports.ScratchChartSource = (*Generator)(nil)

// Generator produces the cpu and memory charts for a component.
type Generator struct {
	dir       string
	renderer  ImageRenderer
	plotValue PlotValueFunc
}

// NewGenerator constructs a chart generator writing into dir.
func NewGenerator(dir string, renderer ImageRenderer, plotValue PlotValueFunc) *Generator {
	if plotValue == nil {
		plotValue = ZeroForNonNumeric
	}
	return &Generator{dir: dir, renderer: renderer, plotValue: plotValue}
}

// Path returns the deterministic chart location for a component and category.
func Path(dir, component string, category Category) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_chart.%s", safeName(component), category, ImageExtension))
}

// Scratch returns a generator writing into a fresh directory under the charts area, so
// concurrent documents never overwrite each other's images. release deletes the directory.
func (g *Generator) Scratch() (reports.ChartSource, func(), error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, nil, utils.OperationFailed("render charts", "create charts directory", err)
	}
	dir, err := os.MkdirTemp(g.dir, "export-")
	if err != nil {
		return nil, nil, utils.OperationFailed("render charts", "create scratch directory", err)
	}
	scratch := &Generator{dir: dir, renderer: g.renderer, plotValue: g.plotValue}
	return scratch, func() { _ = os.RemoveAll(dir) }, nil
}

// Charts renders both charts for a component and returns their paths.
func (g *Generator) Charts(component string, entries []models.ComponentTimeSeriesEntry) (string, string, error) {
	if g.renderer == nil {
		return "", "", utils.OperationFailed("render charts", "image renderer not configured", nil)
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", "", utils.OperationFailed("render charts", "create charts directory", err)
	}
	cpu, mem := BuildSeries(component, entries, g.plotValue)
	cpuPath := Path(g.dir, component, CategoryCPU)
	memPath := Path(g.dir, component, CategoryMemory)
	if err := g.renderer.RenderLine(cpu, cpuPath); err != nil {
		return "", "", utils.OperationFailed("render charts", "cpu chart for "+component, err)
	}
	if err := g.renderer.RenderLine(mem, memPath); err != nil {
		return "", "", utils.OperationFailed("render charts", "memory chart for "+component, err)
	}
	return cpuPath, memPath, nil
}

func safeName(component string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, component)
}
