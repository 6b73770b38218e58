package dashboard

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/tabdash/internal/aggregate"
	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
	"github.com/KaramelBytes/tabdash/internal/trend"
)

const dash = "—"

// fixed formats x with a fixed number of decimals, or a dash when undefined.
func fixed(x float64, places int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return dash
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}

// padRange returns [min-pad, max+pad] over the finite values, or nil.
func padRange(pad float64, series ...[]float64) *[2]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ys := range series {
		for _, y := range ys {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	return &[2]float64{lo - pad, hi + pad}
}

func seriesLine(name string, s aggregate.Series) Line {
	return Line{Name: name, X: s.Labels(), Y: s.Values()}
}

// trendLine is the fitted overlay for s, or false when the fit is undefined.
func trendLine(s aggregate.Series, fit trend.Fit) (Line, bool) {
	l := Line{Name: "Trend (linear fit)", X: s.Labels(), Y: fit.Fitted, Trend: true}
	return l, l.Defined()
}

// trendCaption renders a fit the way captions show it.
func trendCaption(fit trend.Fit) string {
	return fmt.Sprintf("Trend: %s %s (slope ≈ %s per year)", fit.Label, fit.Label.Arrow(), fixed(fit.Slope, 3))
}

func trendCell(fit trend.Fit) string { return string(fit.Label) + " " + fit.Label.Arrow() }

// detect classifies t, keeping the derived overall column out of the measures.
func detect(t *table.Table, set Settings) schema.Roles {
	reserved := append(append([]string(nil), schema.DefaultReserved...), set.OverallColumn)
	return schema.Classify(t, schema.DefaultRules, reserved)
}

// WithOverall appends the per-row mean of the detected measures as col.
func WithOverall(t *table.Table, roles schema.Roles, col string) *table.Table {
	return t.WithColumn(col, func(i int) table.Value {
		return table.Num(aggregate.RowMean(t, i, roles.Measures))
	})
}

// matches reports whether the cell renders as want.
func matches(v table.Value, want string) bool {
	return !v.IsMissing() && v.String() == want
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

func labels(vs []table.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

// measureFor resolves a selected measure against the detected roles, adding
// the overall column when requested.
func measureFor(t *table.Table, roles schema.Roles, measure string, set Settings) (*table.Table, string, error) {
	if measure == OverallLabel {
		return WithOverall(t, roles, set.OverallColumn), set.OverallColumn, nil
	}
	if !roles.IsMeasure(measure) {
		return nil, "", fmt.Errorf("%w: %q is not a numeric subject column", aggregate.ErrUnknownColumn, measure)
	}
	return t, measure, nil
}
