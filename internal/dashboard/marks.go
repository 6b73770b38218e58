package dashboard

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tabdash/internal/aggregate"
	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
)

// topStudents is how many students the ranking chart shows.
const topStudents = 10

// FilterMarks canonicalizes a long-format marks table and applies the class,
// subject and inclusive marks-range filters of sel.
func FilterMarks(t *table.Table, sel Selection) (*table.Table, error) {
	df, err := schema.Canonicalize(t)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := df.Range(schema.ColMarks)
	if !ok {
		lo, hi = 0, 100
	}
	if sel.MinMarks != nil {
		lo = *sel.MinMarks
	}
	if sel.MaxMarks != nil {
		hi = *sel.MaxMarks
	}
	subjects := sel.Subjects
	if len(subjects) == 0 {
		subjects = labels(df.Distinct(schema.ColSubject))
	}
	class := sel.Class
	return df.Filter(func(i int) bool {
		m := df.Float(i, schema.ColMarks)
		if math.IsNaN(m) || m < lo || m > hi {
			return false
		}
		if !contains(subjects, df.At(i, schema.ColSubject).String()) {
			return false
		}
		if class != "" && class != AllClasses && !matches(df.At(i, schema.ColClass), class) {
			return false
		}
		return true
	}), nil
}

// Marks is the long-format marks dashboard: KPIs, the filtered table, average
// by subject, top students and one student's marks over time.
func Marks(t *table.Table, sel Selection) (*Payload, error) {
	set := sel.settings()
	fdf, err := FilterMarks(t, sel)
	if err != nil {
		return nil, err
	}
	p := &Payload{View: "marks", Title: "Student Marks Dashboard"}

	st, err := aggregate.Describe(fdf, schema.ColMarks)
	if err != nil {
		return nil, err
	}
	p.Metrics = []Metric{
		{Label: "Rows (filtered)", Value: fmt.Sprint(fdf.Len())},
		{Label: "Avg Marks", Value: fixed(st.Mean, 1)},
		{Label: "Highest", Value: fixed(st.Max, 0)},
		{Label: "Lowest", Value: fixed(st.Min, 0)},
	}
	p.Tables = []Grid{tableGrid("Filtered Table", fdf)}
	if fdf.Len() == 0 {
		p.Notes = append(p.Notes, "No data for the current filters.")
		return p, nil
	}

	bySubj, err := aggregate.Rank(fdf, schema.ColSubject, schema.ColMarks, aggregate.Mean, true, 0)
	if err != nil {
		return nil, err
	}
	top, err := aggregate.Rank(fdf, schema.ColName, schema.ColMarks, aggregate.Mean, true, topStudents)
	if err != nil {
		return nil, err
	}
	p.Charts = []Chart{
		{Kind: BarChart, Title: "Average Marks by Subject", XLabel: "Subject", YLabel: "Marks", Series: []Line{seriesLine("Marks", bySubj)}},
		{Kind: BarChart, Title: "Top Students (by Mean Marks)", XLabel: "Name", YLabel: "MeanMarks", Series: []Line{seriesLine("MeanMarks", top)}},
	}

	if !fdf.Has(schema.ColDate) || len(fdf.Distinct(schema.ColDate)) == 0 {
		p.Notes = append(p.Notes, "(Add a Date column to your CSV to see time trends.)")
		return p, nil
	}
	student := sel.Student
	if student == "" {
		names := fdf.Distinct(schema.ColName)
		if len(names) == 0 {
			p.Notes = append(p.Notes, "No student names to plot over time.")
			return p, nil
		}
		student = names[0].String()
	}
	ts := fdf.Filter(func(i int) bool { return matches(fdf.At(i, schema.ColName), student) }).SortBy(schema.ColDate)
	if ts.Len() == 0 {
		p.Notes = append(p.Notes, fmt.Sprintf("No marks for %s under the current filters.", student))
		return p, nil
	}
	line := Line{Name: "Marks"}
	for i := 0; i < ts.Len(); i++ {
		if ts.At(i, schema.ColDate).IsMissing() {
			continue
		}
		line.X = append(line.X, ts.At(i, schema.ColDate).String())
		line.Y = append(line.Y, ts.Float(i, schema.ColMarks))
	}
	ch := Chart{Kind: LineChart, Title: "Marks Over Time — " + student, XLabel: "Date", YLabel: "Marks", Series: []Line{line}}
	ch.YRange = padRange(set.YPad, line.Y)
	p.Charts = append(p.Charts, ch)
	return p, nil
}

// tableGrid renders every cell of t with its display formatting.
func tableGrid(title string, t *table.Table) Grid {
	g := Grid{Title: title, Columns: t.Columns()}
	for i := 0; i < t.Len(); i++ {
		row := make([]string, t.Width())
		for j, c := range g.Columns {
			row[j] = t.At(i, c).String()
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// FilterRows applies the filters of sel that make sense for t's layout: the
// marks filters for long tables, the student and gender filters otherwise.
// An empty selection keeps every row.
func FilterRows(t *table.Table, sel Selection) (*table.Table, error) {
	if _, err := schema.DetectLong(t); err == nil {
		return FilterMarks(t, sel)
	}
	roles := detect(t, sel.settings())
	if sel.Student != "" && roles.Identifier == "" {
		return nil, roles.Require(schema.SlotIdentifier)
	}
	if sel.Gender != "" && roles.Gender == "" {
		return nil, roles.Require(schema.SlotGender)
	}
	return t.Filter(func(i int) bool {
		if sel.Student != "" && !matches(t.At(i, roles.Identifier), sel.Student) {
			return false
		}
		if sel.Gender != "" && !matches(t.At(i, roles.Gender), sel.Gender) {
			return false
		}
		return true
	}), nil
}
