package render

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
)

func isPNG(b []byte) bool { return bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")) }

func TestPNG_StudentsLineChart(t *testing.T) {
	tb, err := dataset.Demo(dataset.DemoStudents)
	if err != nil {
		t.Fatal(err)
	}
	p, err := dashboard.Render("students", tb, dashboard.Selection{Student: "Aarav", Measure: "Math"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := PNG(&buf, p.Charts[0], 640, 360); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !isPNG(buf.Bytes()) {
		t.Fatalf("output is not a PNG")
	}
}

func TestPNG_MarksBarChart(t *testing.T) {
	tb, err := dataset.Demo(dataset.DemoMarks)
	if err != nil {
		t.Fatal(err)
	}
	p, err := dashboard.Render("marks", tb, dashboard.Selection{})
	if err != nil {
		t.Fatal(err)
	}
	var bar *dashboard.Chart
	for i := range p.Charts {
		if p.Charts[i].Kind == dashboard.BarChart {
			bar = &p.Charts[i]
			break
		}
	}
	if bar == nil {
		t.Fatalf("marks view has no bar chart")
	}
	var buf bytes.Buffer
	if err := PNG(&buf, *bar, 0, 0); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !isPNG(buf.Bytes()) {
		t.Fatalf("output is not a PNG")
	}
}

func TestPNG_FlatAndSinglePoint(t *testing.T) {
	c := dashboard.Chart{Kind: dashboard.LineChart, Title: "flat", Series: []dashboard.Line{
		{Name: "a", X: []string{"2001"}, Y: []float64{50}},
	}}
	var buf bytes.Buffer
	if err := PNG(&buf, c, 320, 240); err != nil {
		t.Fatalf("single point should still render: %v", err)
	}
	if !isPNG(buf.Bytes()) {
		t.Fatalf("output is not a PNG")
	}
}

func TestPNG_NothingToPlot(t *testing.T) {
	nan := math.NaN()
	for _, kind := range []dashboard.ChartKind{dashboard.LineChart, dashboard.BarChart} {
		c := dashboard.Chart{Kind: kind, Title: "empty", Series: []dashboard.Line{
			{Name: "a", X: []string{"x", "y"}, Y: []float64{nan, nan}},
		}}
		err := PNG(&bytes.Buffer{}, c, 320, 240)
		if !errors.Is(err, ErrNothingToPlot) {
			t.Fatalf("%s: expected ErrNothingToPlot, got %v", kind, err)
		}
	}
}

func labelled(ts []chart.Tick) []chart.Tick {
	var out []chart.Tick
	for _, t := range ts {
		if t.Label != "" {
			out = append(out, t)
		}
	}
	return out
}

func TestTicksThinned(t *testing.T) {
	labels := make([]string, 40)
	for i := range labels {
		labels[i] = "d"
	}
	if got := labelled(ticks(labels)); len(got) > maxTicks {
		t.Fatalf("got %d ticks, want at most %d", len(got), maxTicks)
	}
	if got := labelled(ticks([]string{"a", "b"})); len(got) != 2 || got[1].Value != 2 {
		t.Fatalf("short label lists keep every tick: %+v", got)
	}
}

func TestTicksBoundTheAxis(t *testing.T) {
	got := ticks([]string{"2001"})
	if len(got) != 3 || got[0].Value != 0.5 || got[2].Value != 1.5 {
		t.Fatalf("a single label needs bounding ticks, got %+v", got)
	}
}

func TestPNG_SinglePointAmongSeries(t *testing.T) {
	c := dashboard.Chart{Kind: dashboard.LineChart, Title: "compare", Series: []dashboard.Line{
		{Name: "F", X: []string{"2001"}, Y: []float64{70}},
		{Name: "M", X: []string{"2001"}, Y: []float64{65}},
	}}
	var buf bytes.Buffer
	if err := PNG(&buf, c, 320, 240); err != nil {
		t.Fatalf("one year per series should render: %v", err)
	}
	if !isPNG(buf.Bytes()) {
		t.Fatalf("output is not a PNG")
	}
}

func TestText(t *testing.T) {
	p := &dashboard.Payload{
		Title:   "Marks",
		Metrics: []dashboard.Metric{{Label: "Rows", Value: "15"}},
		Tables: []dashboard.Grid{{
			Title:   "Filtered Table",
			Columns: []string{"Student", "Marks"},
			Rows:    [][]string{{"A|B", "90"}, {"Short"}},
		}},
		Charts: []dashboard.Chart{{Kind: dashboard.BarChart, Title: "Average Marks by Subject"}},
		Notes:  []string{"hello"},
	}
	var buf bytes.Buffer
	if err := Text(&buf, p); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Marks", "- **Rows**: 15", "## Filtered Table",
		"| Student | Marks |", `| A\|B | 90 |`, "| Short |  |",
		"1. Average Marks by Subject (bar, 0 series)", "> hello",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
