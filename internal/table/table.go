package table

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownColumn is returned when a named column does not exist.
var ErrUnknownColumn = errors.New("unknown column")

// Table is an ordered set of named columns over ordered rows.
// Tables are treated as immutable once built: Filter, Select, Rename and
// WithColumn all return new tables.
type Table struct {
	Name  string
	cols  []string
	kinds []Kind
	rows  [][]Value
	index map[string]int
}

// New creates an empty table with the given columns.
func New(name string, cols ...string) *Table {
	t := &Table{Name: name, cols: append([]string(nil), cols...)}
	t.reindex()
	t.kinds = make([]Kind, len(cols))
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c] = i
	}
}

// Append adds a row. Short rows are padded with missing cells.
func (t *Table) Append(vals ...Value) error {
	if len(vals) > len(t.cols) {
		return fmt.Errorf("row has %d values for %d columns", len(vals), len(t.cols))
	}
	row := make([]Value, len(t.cols))
	copy(row, vals)
	t.rows = append(t.rows, row)
	for j, v := range row {
		t.kinds[j] = merge(t.kinds[j], v.Kind)
	}
	return nil
}

// merge folds a cell kind into a column kind. Any mix resolves to String.
func merge(col, cell Kind) Kind {
	switch {
	case cell == Missing:
		return col
	case col == Missing:
		return cell
	case col == cell:
		return col
	default:
		return String
	}
}

func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }
func (t *Table) Len() int          { return len(t.rows) }
func (t *Table) Width() int        { return len(t.cols) }

// Has reports whether the column exists (exact name).
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Lookup finds a column by case-insensitive, trimmed name and returns its
// actual name.
func (t *Table) Lookup(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.cols {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return c, true
		}
	}
	return "", false
}

// Kind returns the inferred kind of a column. A column whose non-missing
// cells disagree on kind is reported as String.
func (t *Table) Kind(name string) Kind {
	j, ok := t.index[name]
	if !ok {
		return Missing
	}
	return t.kinds[j]
}

// IsNumeric reports whether every non-missing cell of the column is a number
// and there is at least one such cell.
func (t *Table) IsNumeric(name string) bool { return t.Kind(name) == Number }

// At returns the cell at row i of the named column.
func (t *Table) At(i int, name string) Value {
	j, ok := t.index[name]
	if !ok || i < 0 || i >= len(t.rows) {
		return Null()
	}
	return t.rows[i][j]
}

// Float returns the numeric cell at row i, or NaN.
func (t *Table) Float(i int, name string) float64 { return t.At(i, name).Float() }

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value { return append([]Value(nil), t.rows[i]...) }

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Floats returns the named column as float64s with NaN for non-numbers.
func (t *Table) Floats(name string) ([]float64, error) {
	vals, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v.Float()
	}
	return out, nil
}

// Distinct returns the distinct non-missing values of a column in sorted order.
func (t *Table) Distinct(name string) []Value {
	j, ok := t.index[name]
	if !ok {
		return nil
	}
	var out []Value
	for _, r := range t.rows {
		v := r[j]
		if v.IsMissing() {
			continue
		}
		seen := false
		for _, o := range out {
			if o.Equal(v) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	SortValues(out)
	return out
}

// Range returns the min and max of a numeric column, ignoring missing cells.
func (t *Table) Range(name string) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range t.rows {
		x := t.Float(i, name)
		if math.IsNaN(x) {
			continue
		}
		ok = true
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, cols: append([]string(nil), t.cols...), kinds: append([]Kind(nil), t.kinds...)}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = append([]Value(nil), r...)
	}
	out.reindex()
	return out
}

// Filter returns the rows for which keep returns true, in source order.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.Name, t.cols...)
	for i, r := range t.rows {
		if keep(i) {
			_ = out.Append(r...)
		}
	}
	return out
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for k, n := range names {
		j, ok := t.index[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, n)
		}
		idx[k] = j
	}
	out := New(t.Name, names...)
	for _, r := range t.rows {
		row := make([]Value, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		_ = out.Append(row...)
	}
	return out, nil
}

// Rename returns a copy with columns renamed according to m (old -> new).
func (t *Table) Rename(m map[string]string) *Table {
	out := t.Clone()
	for j, c := range out.cols {
		if n, ok := m[c]; ok {
			out.cols[j] = n
		}
	}
	out.reindex()
	return out
}

// WithColumn returns a copy with an extra (or replaced) column computed per row.
func (t *Table) WithColumn(name string, fn func(i int) Value) *Table {
	out := t.Clone()
	j, ok := out.index[name]
	if !ok {
		out.cols = append(out.cols, name)
		out.kinds = append(out.kinds, Missing)
		j = len(out.cols) - 1
		for i := range out.rows {
			out.rows[i] = append(out.rows[i], Null())
		}
		out.reindex()
	}
	out.kinds[j] = Missing
	for i := range out.rows {
		v := fn(i)
		out.rows[i][j] = v
		out.kinds[j] = merge(out.kinds[j], v.Kind)
	}
	return out
}

// SortBy returns a copy stably sorted by the named column (missing first).
func (t *Table) SortBy(name string) *Table {
	out := t.Clone()
	j, ok := out.index[name]
	if !ok {
		return out
	}
	stableSort(out.rows, func(a, b []Value) bool { return a[j].Less(b[j]) })
	return out
}
