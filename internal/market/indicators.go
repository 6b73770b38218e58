package market

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Indicator column names added by Enrich.
const (
	ColReturns       = "Returns"
	ColCumMax        = "CumMax"
	ColDrawdown      = "Drawdown"
	ColVolAnnual     = "VolAnnual"
	ColNifty         = "NIFTY"
	ColNiftyReturns  = "NIFTY_Returns"
	ColExcessReturns = "Excess_Returns"
	ColExcessCum     = "Excess_Cum"
)

// TradingDays annualizes daily volatility.
const TradingDays = 252

// Options selects indicator windows.
type Options struct {
	MAWindows []int
	VolWindow int
}

// DefaultOptions are the 20/50 day averages and a 20 day volatility window.
func DefaultOptions() Options { return Options{MAWindows: []int{20, 50}, VolWindow: 20} }

// SMAColumn names the moving-average column for a window.
func SMAColumn(w int) string { return fmt.Sprintf("SMA%d", w) }

// Enrich adds returns, moving averages, drawdown and annualized rolling
// volatility to a price table. When index is non-nil its closes are left
// joined on Date and excess returns against it are added.
func Enrich(prices, index *table.Table, opt Options) (*table.Table, error) {
	if !prices.Has(ColDate) || !prices.Has(ColClose) {
		return nil, errors.New("price table needs Date and Close columns")
	}
	if len(opt.MAWindows) == 0 {
		opt.MAWindows = []int{20}
	}
	if opt.VolWindow <= 0 {
		opt.VolWindow = 20
	}
	closes, _ := prices.Floats(ColClose)
	returns := PctChange(closes)
	out := prices.WithColumn(ColReturns, numAt(returns))
	for _, w := range opt.MAWindows {
		if w <= 0 {
			return nil, fmt.Errorf("invalid moving average window %d", w)
		}
		out = out.WithColumn(SMAColumn(w), numAt(RollingMean(closes, w)))
	}
	cummax := CumMax(closes)
	dd := make([]float64, len(closes))
	for i := range closes {
		dd[i] = (closes[i] - cummax[i]) / cummax[i]
	}
	out = out.WithColumn(ColCumMax, numAt(cummax))
	out = out.WithColumn(ColDrawdown, numAt(dd))
	vol := RollingStd(returns, opt.VolWindow)
	for i := range vol {
		vol[i] *= math.Sqrt(TradingDays)
	}
	out = out.WithColumn(ColVolAnnual, numAt(vol))

	if index == nil {
		return out, nil
	}
	if !index.Has(ColDate) || !index.Has(ColClose) {
		return nil, errors.New("index table needs Date and Close columns")
	}
	byDay := map[string]float64{}
	for i := 0; i < index.Len(); i++ {
		byDay[index.At(i, ColDate).String()] = index.Float(i, ColClose)
	}
	nifty := make([]float64, out.Len())
	for i := range nifty {
		v, ok := byDay[out.At(i, ColDate).String()]
		if !ok {
			v = math.NaN()
		}
		nifty[i] = v
	}
	niftyRet := PctChange(nifty)
	excess := make([]float64, len(nifty))
	cum := make([]float64, len(nifty))
	run := 0.0
	for i := range excess {
		excess[i] = returns[i] - niftyRet[i]
		if !math.IsNaN(excess[i]) {
			run += excess[i]
		}
		cum[i] = run
	}
	out = out.WithColumn(ColNifty, numAt(nifty))
	out = out.WithColumn(ColNiftyReturns, numAt(niftyRet))
	out = out.WithColumn(ColExcessReturns, numAt(excess))
	out = out.WithColumn(ColExcessCum, numAt(cum))
	return out, nil
}

func numAt(xs []float64) func(int) table.Value {
	return func(i int) table.Value { return table.Num(xs[i]) }
}

// PctChange returns x[i]/x[i-1]-1, NaN for the first element and wherever
// either value is missing or the previous value is zero.
func PctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 || math.IsNaN(xs[i]) || math.IsNaN(xs[i-1]) || xs[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// RollingMean is the mean over the trailing window; NaN until the window is
// full or when it contains a missing value.
func RollingMean(xs []float64, w int) []float64 {
	return rolling(xs, w, func(win []float64) float64 { return stat.Mean(win, nil) })
}

// RollingStd is the sample standard deviation over the trailing window.
func RollingStd(xs []float64, w int) []float64 {
	return rolling(xs, w, func(win []float64) float64 {
		if len(win) < 2 {
			return math.NaN()
		}
		return stat.StdDev(win, nil)
	})
}

func rolling(xs []float64, w int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = math.NaN()
		if w <= 0 || i+1 < w {
			continue
		}
		win := xs[i+1-w : i+1]
		full := true
		for _, v := range win {
			if math.IsNaN(v) {
				full = false
				break
			}
		}
		if full {
			out[i] = fn(win)
		}
	}
	return out
}

// CumMax is the running maximum, skipping missing values.
func CumMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	best := math.NaN()
	for i, v := range xs {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if math.IsNaN(best) || v > best {
			best = v
		}
		out[i] = best
	}
	return out
}

// NormalizeToFirst divides by the first value. The result is all NaN when the
// first value is zero or missing.
func NormalizeToFirst(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	first := xs[0]
	for i, v := range xs {
		if first == 0 || math.IsNaN(first) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / first
	}
	return out
}

// KPIs summarize an enriched price table.
type KPIs struct {
	FirstDate      time.Time
	LastDate       time.Time
	ChangePct      float64
	MaxDrawdownPct float64
}

// Summarize computes the headline numbers of an enriched table.
func Summarize(t *table.Table) (KPIs, error) {
	if t.Len() == 0 {
		return KPIs{}, errors.New("no price rows")
	}
	var k KPIs
	for i := 0; i < t.Len(); i++ {
		d := t.At(i, ColDate)
		if d.Kind != table.Date {
			continue
		}
		if k.FirstDate.IsZero() || d.Time.Before(k.FirstDate) {
			k.FirstDate = d.Time
		}
		if d.Time.After(k.LastDate) {
			k.LastDate = d.Time
		}
	}
	first, last := t.Float(0, ColClose), t.Float(t.Len()-1, ColClose)
	k.ChangePct = (last/first - 1) * 100
	k.MaxDrawdownPct = math.NaN()
	if dd, err := t.Floats(ColDrawdown); err == nil {
		for _, v := range dd {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(k.MaxDrawdownPct) || v*100 < k.MaxDrawdownPct {
				k.MaxDrawdownPct = v * 100
			}
		}
	}
	return k, nil
}
