// Package aggregate groups table rows by a key column and reduces a measure.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabdash/internal/table"
)

var (
	ErrUnknownColumn  = table.ErrUnknownColumn
	ErrNotNumeric     = errors.New("column is not numeric")
	ErrUnknownReducer = errors.New("unknown reducer")
)

// Reducer folds the measure values of one group into a single number.
type Reducer int

const (
	Mean Reducer = iota
	Max
	Min
	ArgMax
	Sum
	Count
)

var reducerNames = map[Reducer]string{
	Mean: "mean", Max: "max", Min: "min", ArgMax: "argmax", Sum: "sum", Count: "count",
}

func (r Reducer) String() string { return reducerNames[r] }

// ParseReducer accepts the names printed by String plus a few aliases.
func ParseReducer(s string) (Reducer, error) {
	switch s {
	case "mean", "avg", "average", "":
		return Mean, nil
	case "max":
		return Max, nil
	case "min":
		return Min, nil
	case "argmax", "top", "topper":
		return ArgMax, nil
	case "sum":
		return Sum, nil
	case "count":
		return Count, nil
	}
	return Mean, fmt.Errorf("%w: %q", ErrUnknownReducer, s)
}

// Point is one (key, value) pair of an aggregate series.
type Point struct {
	Key   table.Value
	Value float64
	// Count is the number of non-missing measure values in the group.
	Count int
	// Row is the source row attaining the value for Max, Min and ArgMax, else -1.
	Row int
}

// Series is an aggregate ordered by key.
type Series []Point

// Labels renders the keys as strings.
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Key.String()
	}
	return out
}

// Values returns the reduced values.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// X returns numeric keys, or positional indexes when any key is not a number.
func (s Series) X() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		if p.Key.Kind != table.Number {
			for k := range out {
				out[k] = float64(k)
			}
			return out
		}
		out[i] = p.Key.Num
	}
	return out
}

type group struct {
	key  table.Value
	vals []float64
	rows []int
}

// GroupBy partitions t on key and reduces measure within each group. Rows
// with a missing key or a missing measure are skipped; groups without any
// value are dropped. The result is ordered by key.
func GroupBy(t *table.Table, key, measure string, r Reducer) (Series, error) {
	if err := checkColumns(t, key, measure); err != nil {
		return nil, err
	}
	groups := partition(t, key, measure, func(int) bool { return true })
	out := make(Series, 0, len(groups))
	for _, g := range groups {
		if len(g.vals) == 0 {
			continue
		}
		out = append(out, reduce(g, r))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

func checkColumns(t *table.Table, key, measure string) error {
	if !t.Has(key) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if !t.Has(measure) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, measure)
	}
	if k := t.Kind(measure); k != table.Number && k != table.Missing {
		return fmt.Errorf("%w: %s", ErrNotNumeric, measure)
	}
	return nil
}

// partition groups rows in first-seen key order.
func partition(t *table.Table, key, measure string, keep func(int) bool) []*group {
	var order []*group
	for i := 0; i < t.Len(); i++ {
		if !keep(i) {
			continue
		}
		k := t.At(i, key)
		if k.IsMissing() {
			continue
		}
		var g *group
		for _, o := range order {
			if o.key.Equal(k) {
				g = o
				break
			}
		}
		if g == nil {
			g = &group{key: k}
			order = append(order, g)
		}
		x := t.Float(i, measure)
		if math.IsNaN(x) {
			continue
		}
		g.vals = append(g.vals, x)
		g.rows = append(g.rows, i)
	}
	return order
}

func reduce(g *group, r Reducer) Point {
	p := Point{Key: g.key, Count: len(g.vals), Row: -1}
	switch r {
	case Mean:
		p.Value = stat.Mean(g.vals, nil)
	case Sum:
		for _, v := range g.vals {
			p.Value += v
		}
	case Count:
		p.Value = float64(len(g.vals))
	case Min:
		p.Value, p.Row = g.vals[0], g.rows[0]
		for i, v := range g.vals {
			if v < p.Value {
				p.Value, p.Row = v, g.rows[i]
			}
		}
	default: // Max, ArgMax: strict comparison keeps the first occurrence on ties
		p.Value, p.Row = g.vals[0], g.rows[0]
		for i, v := range g.vals {
			if v > p.Value {
				p.Value, p.Row = v, g.rows[i]
			}
		}
	}
	return p
}

// Stats summarizes a numeric column.
type Stats struct {
	Count          int
	Mean, Min, Max float64
}

// Describe returns count, mean, min and max over the non-missing values of a
// numeric column. All fields but Count are NaN when there is no value.
func Describe(t *table.Table, measure string) (Stats, error) {
	xs, err := t.Floats(measure)
	if err != nil {
		return Stats{}, err
	}
	var vals []float64
	for _, x := range xs {
		if !math.IsNaN(x) {
			vals = append(vals, x)
		}
	}
	s := Stats{Count: len(vals), Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	if len(vals) == 0 {
		return s, nil
	}
	s.Mean = stat.Mean(vals, nil)
	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s, nil
}

// RowMean returns the mean of the non-missing values of cols in row i, or NaN.
func RowMean(t *table.Table, i int, cols []string) float64 {
	var vals []float64
	for _, c := range cols {
		if x := t.Float(i, c); !math.IsNaN(x) {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// Round rounds x to the given number of decimal places for display.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}
