package charts

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

func entries(values ...any) []models.ComponentTimeSeriesEntry {
	out := make([]models.ComponentTimeSeriesEntry, 0, len(values))
	for i, v := range values {
		m := models.NewUsageMap("x", v)
		out = append(out, models.ComponentTimeSeriesEntry{
			Component:   "blc-be",
			Date:        []string{"01-03-2025", "02-03-2025", "03-03-2025", "04-03-2025"}[i],
			CPUUsage:    m.Get("x"),
			MemoryUsage: m.Get("x"),
		})
	}
	return out
}

func TestBuildSeriesZeroSubstitution(t *testing.T) {
	cpu, mem := BuildSeries("blc-be", entries(12, models.NotAvailable, 7), ZeroForNonNumeric)
	if diff := cmp.Diff([]float64{12, 0, 7}, cpu.Values); diff != "" {
		t.Fatalf("cpu values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"01-03-2025", "02-03-2025", "03-03-2025"}, mem.Labels); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
	if cpu.Title() != "CPU Usage for blc-be" || mem.Title() != "Memory Usage for blc-be" {
		t.Fatalf("unexpected titles %q %q", cpu.Title(), mem.Title())
	}
}

func TestBuildSeriesGapMode(t *testing.T) {
	cpu, _ := BuildSeries("blc-be", entries(12, models.SentinelDown, 7, 3), GapForNonNumeric)
	if !math.IsNaN(cpu.Values[1]) {
		t.Fatalf("expected gap marker, got %v", cpu.Values[1])
	}
	segs := segments(cpu.Values)
	if len(segs) != 2 || len(segs[0]) != 1 || len(segs[1]) != 2 || segs[1][0].X != 2 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestPlotValueFor(t *testing.T) {
	if _, err := PlotValueFor("interpolate"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	fn, err := PlotValueFor("gap")
	if err != nil || !math.IsNaN(fn(models.Text(models.NotAvailable))) {
		t.Fatalf("gap mode should map text to NaN")
	}
}

type recordingRenderer struct {
	rendered []Series
	paths    []string
	fail     bool
}

func (r *recordingRenderer) RenderLine(series Series, path string) error {
	if r.fail {
		return errors.New("no canvas")
	}
	r.rendered = append(r.rendered, series)
	r.paths = append(r.paths, path)
	return nil
}

func TestGeneratorNamesCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	renderer := &recordingRenderer{}
	cpuPath, memPath, err := NewGenerator(dir, renderer, nil).Charts("blc-be", entries(1, 2))
	if err != nil {
		t.Fatalf("charts: %v", err)
	}
	if cpuPath != filepath.Join(dir, "blc-be_cpu_chart.png") || memPath != filepath.Join(dir, "blc-be_memory_chart.png") {
		t.Fatalf("unexpected paths %s %s", cpuPath, memPath)
	}
	if len(renderer.rendered) != 2 || renderer.rendered[1].Category != CategoryMemory {
		t.Fatalf("expected cpu then memory renders, got %+v", renderer.rendered)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("charts directory should be created: %v", err)
	}
	if got := Path(dir, "team/app", CategoryCPU); got != filepath.Join(dir, "team_app_cpu_chart.png") {
		t.Fatalf("component names must not escape the charts directory: %s", got)
	}
}

func TestGeneratorScratchIsolatesDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	gen := NewGenerator(dir, &recordingRenderer{}, nil)

	march, releaseMarch, err := gen.Scratch()
	if err != nil {
		t.Fatalf("scratch: %v", err)
	}
	april, releaseApril, err := gen.Scratch()
	if err != nil {
		t.Fatalf("scratch: %v", err)
	}
	marchCPU, _, err := march.Charts("blc-be", entries(1, 2))
	if err != nil {
		t.Fatalf("march charts: %v", err)
	}
	aprilCPU, _, err := april.Charts("blc-be", entries(3, 4))
	if err != nil {
		t.Fatalf("april charts: %v", err)
	}
	if marchCPU == aprilCPU {
		t.Fatalf("documents share chart path %s", marchCPU)
	}
	if filepath.Base(marchCPU) != "blc-be_cpu_chart.png" || filepath.Dir(filepath.Dir(marchCPU)) != dir {
		t.Fatalf("scratch chart should keep its name under the charts area: %s", marchCPU)
	}

	releaseMarch()
	if _, err := os.Stat(filepath.Dir(marchCPU)); !os.IsNotExist(err) {
		t.Fatalf("release should remove the scratch directory, got %v", err)
	}
	if _, err := os.Stat(filepath.Dir(aprilCPU)); err != nil {
		t.Fatalf("releasing one document must not touch another: %v", err)
	}
	releaseApril()
}

func TestGeneratorWrapsRenderFailures(t *testing.T) {
	_, _, err := NewGenerator(t.TempDir(), &recordingRenderer{fail: true}, nil).Charts("blc-be", entries(1))
	if !errors.Is(err, utils.ErrOperationFailed) {
		t.Fatalf("expected operation failure, got %v", err)
	}
}

func TestPlotRendererWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	series := Series{
		Component: "blc-be",
		Category:  CategoryMemory,
		Labels:    []string{"01-03-2025", "02-03-2025", "03-03-2025"},
		Values:    []float64{120, math.NaN(), 80},
	}
	if err := NewPlotRenderer().RenderLine(series, path); err != nil {
		t.Fatalf("render: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty image, err=%v", err)
	}
}
