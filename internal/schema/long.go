package schema

import (
	"strings"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Canonical column names of the long (one row per mark) layout.
const (
	ColName    = "Name"
	ColClass   = "Class"
	ColSubject = "Subject"
	ColMarks   = "Marks"
	ColDate    = "Date"
)

type longRule struct {
	canonical  string
	candidates []string
	required   bool
}

var longRules = []longRule{
	{ColName, []string{"name"}, true},
	{ColClass, []string{"class", "section"}, true},
	{ColSubject, []string{"subject", "course"}, true},
	{ColMarks, []string{"marks", "score"}, true},
	{ColDate, []string{"date", "exam_date"}, false},
}

// DetectLong finds the long-format columns of t and returns a map from
// source column to canonical name. A *SchemaError lists absent required columns.
func DetectLong(t *table.Table) (map[string]string, error) {
	lower := map[string]string{}
	for _, c := range t.Columns() {
		lower[strings.ToLower(strings.TrimSpace(c))] = c
	}
	found := map[string]string{}
	var missing []string
	for _, r := range longRules {
		col := ""
		for _, cand := range r.candidates {
			if c, ok := lower[cand]; ok {
				col = c
				break
			}
		}
		if col == "" {
			if r.required {
				missing = append(missing, r.canonical)
			}
			continue
		}
		found[col] = r.canonical
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return found, nil
}

// Canonicalize maps a long-format marks table onto the canonical column names,
// keeps only the known columns, coerces Marks to numbers and Date to dates, and
// drops rows that end up fully empty.
func Canonicalize(t *table.Table) (*table.Table, error) {
	rename, err := DetectLong(t)
	if err != nil {
		return nil, err
	}
	var keep []string
	for _, r := range longRules {
		for _, canonical := range rename {
			if canonical == r.canonical {
				keep = append(keep, canonical)
				break
			}
		}
	}
	src, err := t.Rename(rename).Select(keep...)
	if err != nil {
		return nil, err
	}
	out := src.WithColumn(ColMarks, func(i int) table.Value {
		return coerceNumber(src.At(i, ColMarks))
	})
	if out.Has(ColDate) {
		out = out.WithColumn(ColDate, func(i int) table.Value {
			return coerceDate(src.At(i, ColDate))
		})
	}
	return out.Filter(func(i int) bool {
		for _, v := range out.Row(i) {
			if !v.IsMissing() {
				return true
			}
		}
		return false
	}), nil
}

func coerceNumber(v table.Value) table.Value {
	switch v.Kind {
	case table.Number:
		return v
	case table.String:
		if f, ok := table.ParseNumber(v.Str, table.ReadOptions{}); ok {
			return table.Num(f)
		}
	}
	return table.Null()
}

func coerceDate(v table.Value) table.Value {
	switch v.Kind {
	case table.Date:
		return v
	case table.String:
		if t, ok := table.ParseTime(v.Str); ok {
			return table.DateValue(t)
		}
	}
	return table.Null()
}
