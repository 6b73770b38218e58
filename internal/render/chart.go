// Package render draws dashboard payloads as PNG charts and terminal text.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
)

// Default image size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// ErrNothingToPlot is returned when a chart has no finite values.
var ErrNothingToPlot = errors.New("nothing to plot")

// maxTicks bounds the number of labelled x ticks.
const maxTicks = 12

// PNG renders c. Zero width or height selects the defaults.
func PNG(w io.Writer, c dashboard.Chart, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	switch c.Kind {
	case dashboard.BarChart:
		return barPNG(w, c, width, height)
	default:
		return linePNG(w, c, width, height)
	}
}

func lineStyle(i int, trend bool) chart.Style {
	col := chart.GetDefaultColor(i)
	st := chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3}
	if trend {
		st.StrokeColor = drawing.ColorFromHex("888888")
		st.StrokeDashArray = []float64{6, 4}
		st.DotWidth = 0
	}
	return st
}

func linePNG(w io.Writer, c dashboard.Chart, width, height int) error {
	var labels []string
	for _, s := range c.Series {
		if len(s.X) > len(labels) {
			labels = s.X
		}
	}
	var series []chart.Series
	for i, s := range c.Series {
		var xs, ys []float64
		for k, y := range s.Y {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			xs = append(xs, float64(k+1))
			ys = append(ys, y)
		}
		if len(ys) == 0 {
			continue
		}
		// A single point is drawn as a short flat segment around its slot
		if len(ys) == 1 {
			xs = []float64{xs[0] - 0.25, xs[0] + 0.25}
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: lineStyle(i, s.Trend)})
	}
	if len(series) == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToPlot, c.Title)
	}

	n := len(labels)
	xa := chart.XAxis{
		Name:  c.XLabel,
		Range: &chart.ContinuousRange{Min: 0.5, Max: float64(n) + 0.5},
		Ticks: ticks(labels),
	}
	ya := chart.YAxis{Name: c.YLabel}
	if c.YRange != nil && c.YRange[1] > c.YRange[0] {
		ya.Range = &chart.ContinuousRange{Min: c.YRange[0], Max: c.YRange[1]}
	} else if lo, hi := valueBounds(series); hi <= lo {
		// go-chart refuses a zero-height range
		ya.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	ch := chart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis:      xa,
		YAxis:      ya,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func valueBounds(series []chart.Series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		cs, ok := s.(chart.ContinuousSeries)
		if !ok {
			continue
		}
		for _, y := range cs.YValues {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}
	return lo, hi
}

// ticks labels positions 1..n, thinning them so at most maxTicks show.
// ticks places labels at 1..n. Unlabelled ticks at 0.5 and n+0.5 bound the
// axis, since go-chart derives the x range from the ticks when there are any.
func ticks(labels []string) []chart.Tick {
	step := 1
	if len(labels) > maxTicks {
		step = (len(labels) + maxTicks - 1) / maxTicks
	}
	out := []chart.Tick{{Value: 0.5}}
	for i := 0; i < len(labels); i += step {
		out = append(out, chart.Tick{Value: float64(i + 1), Label: labels[i]})
	}
	return append(out, chart.Tick{Value: float64(len(labels)) + 0.5})
}

func barPNG(w io.Writer, c dashboard.Chart, width, height int) error {
	if len(c.Series) == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToPlot, c.Title)
	}
	s := c.Series[0]
	var bars []chart.Value
	for i, y := range s.Y {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		label := ""
		if i < len(s.X) {
			label = s.X[i]
		}
		bars = append(bars, chart.Value{Label: label, Value: y, Style: chart.Style{FillColor: chart.GetDefaultColor(0), StrokeColor: chart.GetDefaultColor(0)}})
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToPlot, c.Title)
	}
	lo, hi := 0.0, math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if hi <= lo {
		hi = lo + 1
	}
	barWidth := (width - 120) / (2 * len(bars))
	if barWidth > 80 {
		barWidth = 80
	}
	if barWidth < 4 {
		barWidth = 4
	}
	bc := chart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:   barWidth,
		Bars:       bars,
		YAxis:      chart.YAxis{Name: c.YLabel, Range: &chart.ContinuousRange{Min: lo, Max: hi + (hi-lo)*0.05}},
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
