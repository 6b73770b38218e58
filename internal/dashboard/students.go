package dashboard

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tabdash/internal/aggregate"
	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
	"github.com/KaramelBytes/tabdash/internal/trend"
)

// Students plots one student's subject (or overall percentage) by year with
// a fitted trend.
func Students(t *table.Table, sel Selection) (*Payload, error) {
	set := sel.settings()
	roles := detect(t, set)
	if err := roles.Require(schema.SlotIdentifier, schema.SlotYear); err != nil {
		return nil, err
	}
	if sel.Student == "" {
		return nil, prompt("Select a student to continue.")
	}
	if sel.Measure == "" {
		return nil, prompt("Select a subject or Overall Percentage to see a plot.")
	}
	src, measure, err := measureFor(t, roles, sel.Measure, set)
	if err != nil {
		return nil, err
	}
	sdf := src.Filter(func(i int) bool { return matches(src.At(i, roles.Identifier), sel.Student) })
	s, err := aggregate.GroupBy(sdf, roles.Year, measure, aggregate.Mean)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, prompt(fmt.Sprintf("No data available for %s in %s.", sel.Student, sel.Measure))
	}
	fit := trend.EstimateSeries(s, trend.WithTolerance(set.Tol()))

	title := fmt.Sprintf("%s — %s", sel.Student, sel.Measure)
	ch := Chart{Kind: LineChart, Title: title + " (Yearly Marks + Trend)", XLabel: "Year", YLabel: sel.Measure, Series: []Line{seriesLine(sel.Measure, s)}}
	if tl, ok := trendLine(s, fit); ok {
		ch.Series = append(ch.Series, tl)
	}
	ch.YRange = padRange(set.YPad, s.Values())

	last := s[len(s)-1]
	return &Payload{
		View:  "students",
		Title: title,
		Metrics: []Metric{
			{Label: "Years", Value: fmt.Sprint(len(s))},
			{Label: "Latest (" + last.Key.String() + ")", Value: fixed(last.Value, 1)},
			{Label: "Trend", Value: trendCell(fit)},
			{Label: "Slope (marks/year)", Value: fixed(fit.Slope, 3)},
		},
		Charts: []Chart{ch},
		Notes:  []string{trendCaption(fit)},
		YRange: ch.YRange,
	}, nil
}

// Subjects plots the yearly average of each chosen subject across all
// students and tabulates a trend per subject.
func Subjects(t *table.Table, sel Selection) (*Payload, error) {
	set := sel.settings()
	roles := detect(t, set)
	if err := roles.Require(schema.SlotYear); err != nil {
		return nil, err
	}
	chosen := sel.Measures
	if len(chosen) == 0 && sel.Measure != "" {
		chosen = []string{sel.Measure}
	}
	if len(chosen) == 0 {
		return nil, prompt("Select at least one subject to view trends.")
	}
	ch := Chart{Kind: LineChart, Title: "Average yearly marks", XLabel: "Year", YLabel: "Average"}
	grid := Grid{Title: "Trend by subject", Columns: []string{"Subject", "Trend", "Slope (marks/year)"}}
	var all [][]float64
	for _, m := range chosen {
		src, measure, err := measureFor(t, roles, m, set)
		if err != nil {
			return nil, err
		}
		s, err := aggregate.GroupBy(src, roles.Year, measure, aggregate.Mean)
		if err != nil {
			return nil, err
		}
		if len(s) == 0 {
			continue
		}
		ch.Series = append(ch.Series, seriesLine(m, s))
		all = append(all, s.Values())
		fit := trend.EstimateSeries(s, trend.WithTolerance(set.Tol()))
		grid.Rows = append(grid.Rows, []string{m, trendCell(fit), fixed(aggregate.Round(fit.Slope, 3), 3)})
	}
	if len(chosen) == 1 {
		ch.Title = "Average yearly marks — " + chosen[0]
	}
	ch.YRange = padRange(set.YPad, all...)
	p := &Payload{View: "subjects", Title: "Subject-wise trends (averages across all students)", Charts: []Chart{ch}, YRange: ch.YRange}
	if len(grid.Rows) > 0 {
		p.Tables = []Grid{grid}
	} else {
		p.Notes = append(p.Notes, "No data for the selected subjects.")
	}
	return p, nil
}

// Gender plots one gender's yearly average for a subject, or every gender
// side by side when Compare is set, with a trend per gender.
func Gender(t *table.Table, sel Selection) (*Payload, error) {
	set := sel.settings()
	roles := detect(t, set)
	if err := roles.Require(schema.SlotGender, schema.SlotYear); err != nil {
		return nil, err
	}
	if sel.Gender == "" && !sel.Compare {
		return nil, prompt("Select a gender to continue.")
	}
	if sel.Measure == "" {
		return nil, prompt("Select a subject to see the plot.")
	}
	src, measure, err := measureFor(t, roles, sel.Measure, set)
	if err != nil {
		return nil, err
	}
	pv, err := aggregate.PivotBy(src, roles.Year, roles.Gender, measure, aggregate.Mean)
	if err != nil {
		return nil, err
	}
	p := &Payload{View: "gender"}
	grid := Grid{Title: "Trend by gender", Columns: []string{"Gender", "Trend", "Slope (marks/year)"}}
	for j, g := range pv.ColKeys {
		s := pv.Column(j)
		if len(s) == 0 {
			continue
		}
		fit := trend.EstimateSeries(s, trend.WithTolerance(set.Tol()))
		grid.Rows = append(grid.Rows, []string{g.String(), trendCell(fit), fixed(aggregate.Round(fit.Slope, 3), 3)})
	}

	if sel.Compare {
		p.Title = fmt.Sprintf("Yearly average — %s (by gender)", sel.Measure)
		ch := Chart{Kind: LineChart, Title: p.Title, XLabel: "Year", YLabel: "Average"}
		var all [][]float64
		for j, g := range pv.ColKeys {
			// Keep every year on the shared axis; gaps stay NaN
			ys := make([]float64, len(pv.RowKeys))
			for i := range pv.RowKeys {
				ys[i] = pv.Cells[i][j]
			}
			ch.Series = append(ch.Series, Line{Name: g.String(), X: labels(pv.RowKeys), Y: ys})
			all = append(all, ys)
		}
		ch.YRange = padRange(set.YPad, all...)
		p.Charts = []Chart{ch}
		p.YRange = ch.YRange
		p.Tables = append(p.Tables, pivotGrid(pv, roles.Year))
	} else {
		gdf := src.Filter(func(i int) bool { return matches(src.At(i, roles.Gender), sel.Gender) })
		s, err := aggregate.GroupBy(gdf, roles.Year, measure, aggregate.Mean)
		if err != nil {
			return nil, err
		}
		if len(s) == 0 {
			return nil, prompt(fmt.Sprintf("No data available for gender %s in %s.", sel.Gender, sel.Measure))
		}
		p.Title = fmt.Sprintf("Yearly average — %s (%s)", sel.Measure, sel.Gender)
		ch := Chart{Kind: LineChart, Title: p.Title, XLabel: "Year", YLabel: "Average", Series: []Line{seriesLine(sel.Gender, s)}}
		ch.YRange = padRange(set.YPad, s.Values())
		p.Charts = []Chart{ch}
		p.YRange = ch.YRange
	}
	if len(grid.Rows) > 0 {
		p.Tables = append(p.Tables, grid)
	}
	return p, nil
}

func pivotGrid(pv *aggregate.Pivot, rowName string) Grid {
	g := Grid{Title: "Average by year and gender", Columns: append([]string{rowName}, labels(pv.ColKeys)...)}
	for i, rk := range pv.RowKeys {
		row := []string{rk.String()}
		for j := range pv.ColKeys {
			row = append(row, fixed(pv.Cells[i][j], 2))
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// Toppers lists the top student per year for a subject and plots the chosen
// student's marks in it.
func Toppers(t *table.Table, sel Selection) (*Payload, error) {
	set := sel.settings()
	roles := detect(t, set)
	if err := roles.Require(schema.SlotIdentifier, schema.SlotYear); err != nil {
		return nil, err
	}
	if sel.Measure == "" {
		return nil, prompt("Select a subject to see the per-year toppers.")
	}
	src, measure, err := measureFor(t, roles, sel.Measure, set)
	if err != nil {
		return nil, err
	}
	tops, err := aggregate.Toppers(src, roles.Year, roles.Identifier, measure)
	if err != nil {
		return nil, err
	}
	grid := Grid{Title: "Per-Year Topper — " + sel.Measure, Columns: []string{"Year", "Top Student", "Score"}}
	for _, tp := range tops {
		grid.Rows = append(grid.Rows, []string{tp.Key.String(), tp.Identifier, fixed(tp.Score, 2)})
	}
	p := &Payload{View: "toppers", Title: "Per-Year Topper — " + sel.Measure, Tables: []Grid{grid}}
	if len(tops) == 0 {
		p.Notes = append(p.Notes, "No marks recorded for "+sel.Measure+".")
	}
	if sel.Student == "" {
		p.Notes = append(p.Notes, "Select a student to plot their marks.")
		return p, nil
	}
	sdf := src.Filter(func(i int) bool { return matches(src.At(i, roles.Identifier), sel.Student) })
	s, err := aggregate.GroupBy(sdf, roles.Year, measure, aggregate.Mean)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		p.Notes = append(p.Notes, fmt.Sprintf("No data available for %s in %s.", sel.Student, sel.Measure))
		return p, nil
	}
	ch := Chart{Kind: LineChart, Title: fmt.Sprintf("%s — %s", sel.Student, sel.Measure), XLabel: "Year", YLabel: sel.Measure, Series: []Line{seriesLine(sel.Measure, s)}}
	ch.YRange = padRange(set.YPad, s.Values())
	p.Charts = []Chart{ch}
	p.YRange = ch.YRange
	best := math.Inf(-1)
	for _, pt := range s {
		best = math.Max(best, pt.Value)
	}
	p.Metrics = []Metric{{Label: "Best " + sel.Measure, Value: fixed(best, 2)}}
	return p, nil
}
