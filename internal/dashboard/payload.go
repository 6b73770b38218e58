// Package dashboard computes every dashboard view as a pure function of a
// table and a selection.
package dashboard

import (
	"encoding/json"
	"math"
)

// ChartKind is how a chart is drawn.
type ChartKind string

const (
	LineChart ChartKind = "line"
	BarChart  ChartKind = "bar"
)

// Payload is everything a view renders.
type Payload struct {
	View    string      `json:"view"`
	Title   string      `json:"title"`
	Metrics []Metric    `json:"metrics,omitempty"`
	Tables  []Grid      `json:"tables,omitempty"`
	Charts  []Chart     `json:"charts,omitempty"`
	Notes   []string    `json:"notes,omitempty"`
	YRange  *[2]float64 `json:"y_range,omitempty"`
}

// Metric is a headline number, already formatted.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Grid is a small table of formatted cells.
type Grid struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Chart is one plot with one or more lines or bar series sharing an x axis.
type Chart struct {
	Kind   ChartKind   `json:"kind"`
	Title  string      `json:"title"`
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label,omitempty"`
	Series []Line      `json:"series"`
	YRange *[2]float64 `json:"y_range,omitempty"`
}

// Line is a named series. Y values that are NaN are gaps.
type Line struct {
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
	// Trend marks a fitted overlay rather than observed data.
	Trend bool `json:"trend,omitempty"`
}

// MarshalJSON writes NaN values as null.
func (l Line) MarshalJSON() ([]byte, error) {
	ys := make([]*float64, len(l.Y))
	for i := range l.Y {
		if math.IsNaN(l.Y[i]) || math.IsInf(l.Y[i], 0) {
			continue
		}
		y := l.Y[i]
		ys[i] = &y
	}
	type line struct {
		Name  string     `json:"name"`
		X     []string   `json:"x"`
		Y     []*float64 `json:"y"`
		Trend bool       `json:"trend,omitempty"`
	}
	return json.Marshal(line{Name: l.Name, X: l.X, Y: ys, Trend: l.Trend})
}

// Defined reports whether the line has at least one finite value.
func (l Line) Defined() bool {
	for _, y := range l.Y {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			return true
		}
	}
	return false
}
