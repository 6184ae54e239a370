package charts

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	cpuColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	memoryColor = color.RGBA{R: 255, G: 165, A: 255}
)

// PlotRenderer draws line charts with gonum/plot.
type PlotRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer returns a renderer producing 10x5 inch images.
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{Width: 10 * vg.Inch, Height: 5 * vg.Inch}
}

// RenderLine draws the series with markers, a grid and rotated date ticks.
// NaN values split the line into separate segments.
func (r *PlotRenderer) RenderLine(series Series, path string) error {
	p := plot.New()
	p.Title.Text = series.Title()
	p.X.Label.Text = "Date"
	p.Y.Label.Text = series.Category.AxisLabel()
	p.Add(plotter.NewGrid())

	lineColor := cpuColor
	if series.Category == CategoryMemory {
		lineColor = memoryColor
	}

	for i, segment := range segments(series.Values) {
		line, points, err := plotter.NewLinePoints(segment)
		if err != nil {
			return err
		}
		line.Color = lineColor
		points.Color = lineColor
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		if i == 0 {
			p.Legend.Add(series.Category.AxisLabel(), line, points)
		}
	}

	p.NominalX(series.Labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true

	return p.Save(r.Width, r.Height, path)
}

// segments groups consecutive non-NaN values into plottable runs positioned at their index.
func segments(values []float64) []plotter.XYs {
	var (
		out     []plotter.XYs
		current plotter.XYs
	)
	for i, v := range values {
		if math.IsNaN(v) {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, plotter.XY{X: float64(i), Y: v})
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}
