package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Pivot is a two-key aggregate laid out as a grid. Cells without data are NaN.
type Pivot struct {
	RowKeys []table.Value
	ColKeys []table.Value
	Cells   [][]float64
}

// Column returns the series for one column key, skipping empty cells.
func (p *Pivot) Column(j int) Series {
	var s Series
	for i, rk := range p.RowKeys {
		v := p.Cells[i][j]
		if math.IsNaN(v) {
			continue
		}
		s = append(s, Point{Key: rk, Value: v, Row: -1})
	}
	return s
}

// PivotBy groups t on (rowKey, colKey) and reduces measure in each cell.
// Row and column keys are sorted.
func PivotBy(t *table.Table, rowKey, colKey, measure string, r Reducer) (*Pivot, error) {
	if err := checkColumns(t, rowKey, measure); err != nil {
		return nil, err
	}
	if !t.Has(colKey) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, colKey)
	}
	cols := t.Distinct(colKey)
	p := &Pivot{ColKeys: cols}
	bySeries := make([]Series, len(cols))
	for j, ck := range cols {
		ck := ck
		groups := partition(t, rowKey, measure, func(i int) bool { return t.At(i, colKey).Equal(ck) })
		for _, g := range groups {
			if len(g.vals) > 0 {
				bySeries[j] = append(bySeries[j], reduce(g, r))
			}
		}
	}
	for _, s := range bySeries {
		for _, pt := range s {
			if !containsValue(p.RowKeys, pt.Key) {
				p.RowKeys = append(p.RowKeys, pt.Key)
			}
		}
	}
	sort.SliceStable(p.RowKeys, func(i, j int) bool { return p.RowKeys[i].Less(p.RowKeys[j]) })
	p.Cells = make([][]float64, len(p.RowKeys))
	for i, rk := range p.RowKeys {
		p.Cells[i] = make([]float64, len(cols))
		for j := range cols {
			p.Cells[i][j] = math.NaN()
			for _, pt := range bySeries[j] {
				if pt.Key.Equal(rk) {
					p.Cells[i][j] = pt.Value
					break
				}
			}
		}
	}
	return p, nil
}

func containsValue(vs []table.Value, v table.Value) bool {
	for _, o := range vs {
		if o.Equal(v) {
			return true
		}
	}
	return false
}
