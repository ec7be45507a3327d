// Package charts renders the dashboard's PNG charts with gonum/plot.
package charts

import (
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"dbdwatch/pkg/errors"
)

const (
	width  = 8 * vg.Inch
	height = 4.5 * vg.Inch
)

var palette = []color.RGBA{
	{R: 70, G: 130, B: 180, A: 255},
	{R: 205, G: 92, B: 92, A: 255},
	{R: 60, G: 179, B: 113, A: 255},
	{R: 218, G: 165, B: 32, A: 255},
	{R: 123, G: 104, B: 238, A: 255},
}

// Bar is one labelled value
type Bar struct {
	Label string
	Value float64
}

// Point is one x/y sample of a line chart
type Point struct {
	X float64
	Y float64
}

// Series is one group member of a grouped bar chart, values aligned with categories
type Series struct {
	Name   string
	Values []float64
}

// BarChart writes a vertical bar chart with a value label above each bar
func BarChart(w io.Writer, title, yLabel string, bars []Bar) error {
	if len(bars) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "bar chart needs at least one bar")
	}

	p := newPlot(title, "", yLabel)

	values := make(plotter.Values, len(bars))
	labels := make([]string, len(bars))
	for i, b := range bars {
		values[i] = finite(b.Value)
		labels[i] = b.Label
	}

	chart, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	chart.Color = palette[0]
	chart.LineStyle.Width = vg.Length(0)
	p.Add(chart)

	valueLabels := make([]string, len(values))
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
		valueLabels[i] = trimFloat(v)
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: valueLabels})
	if err != nil {
		return errors.Wrap(err, "build bar labels")
	}
	lbl.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(lbl)

	p.NominalX(labels...)
	rotateTicks(p)
	p.Y.Min = math.Min(0, p.Y.Min)
	p.Y.Max *= 1.1

	return save(w, p)
}

// LineChart writes a line with point markers; points are drawn in the given order
func LineChart(w io.Writer, title, xLabel, yLabel string, points []Point) error {
	if len(points) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "line chart needs at least one point")
	}

	p := newPlot(title, xLabel, yLabel)

	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		if math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
	}
	if len(xys) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "line chart has no finite points")
	}

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return errors.Wrap(err, "build line chart")
	}
	line.Color = palette[0]
	line.Width = vg.Points(2)
	scatter.GlyphStyle.Color = palette[1]
	scatter.GlyphStyle.Radius = vg.Points(3)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(plotter.NewGrid(), line, scatter)
	p.X.Tick.Marker = integerTicks{}

	if len(xys) == 1 {
		p.X.Min, p.X.Max = xys[0].X-1, xys[0].X+1
	}

	return save(w, p)
}

// GroupedBarChart writes side-by-side bars per category, one colour per series
func GroupedBarChart(w io.Writer, title, yLabel string, categories []string, series []Series) error {
	if len(categories) == 0 || len(series) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "grouped bar chart needs categories and series")
	}

	p := newPlot(title, "", yLabel)
	p.Legend.Top = true

	barWidth := vg.Points(36 / float64(len(series)))
	for i, s := range series {
		if len(s.Values) != len(categories) {
			return errors.Wrapf(errors.ErrInvalidInput,
				"series %q has %d values for %d categories", s.Name, len(s.Values), len(categories))
		}

		values := make(plotter.Values, len(s.Values))
		for j, v := range s.Values {
			values[j] = finite(v)
		}

		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return errors.Wrapf(err, "build series %q", s.Name)
		}
		bars.Color = palette[i%len(palette)]
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(series)-1)/2)

		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}

	p.NominalX(categories...)
	rotateTicks(p)
	p.Y.Min = math.Min(0, p.Y.Min)
	p.Y.Max *= 1.15

	return save(w, p)
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

func rotateTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func save(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "create png canvas")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write png")
	}
	return nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
