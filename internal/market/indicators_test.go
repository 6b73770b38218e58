package market

import (
	"math"
	"testing"
	"time"

	"github.com/KaramelBytes/tabdash/internal/table"
)

func priceTable(t *testing.T, name string, start time.Time, closes ...float64) *table.Table {
	t.Helper()
	tb := table.New(name, ColDate, ColClose)
	for i, c := range closes {
		if err := tb.Append(table.DateValue(start.AddDate(0, 0, i)), table.Num(c)); err != nil {
			t.Fatal(err)
		}
	}
	return tb
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEnrichIndicators(t *testing.T) {
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := priceTable(t, "TCS.NS", day, 100, 110, 99, 120)
	index := priceTable(t, IndexSymbol, day.AddDate(0, 0, 1), 1000, 1100, 1100)

	out, err := Enrich(prices, index, Options{MAWindows: []int{2}, VolWindow: 2})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if !math.IsNaN(out.Float(0, ColReturns)) || !near(out.Float(1, ColReturns), 0.1) {
		t.Fatalf("returns wrong: %v %v", out.At(0, ColReturns), out.At(1, ColReturns))
	}
	if !math.IsNaN(out.Float(0, "SMA2")) || !near(out.Float(1, "SMA2"), 105) {
		t.Fatalf("SMA2 wrong")
	}
	if out.Float(2, ColCumMax) != 110 || !near(out.Float(2, ColDrawdown), -0.1) {
		t.Fatalf("drawdown wrong: %v", out.At(2, ColDrawdown))
	}
	// The window ending at row 1 still contains the undefined first return
	if !math.IsNaN(out.Float(1, ColVolAnnual)) || math.IsNaN(out.Float(2, ColVolAnnual)) {
		t.Fatalf("volatility window handling wrong")
	}
	// Left join: the first stock day has no index close
	if !out.At(0, ColNifty).IsMissing() || out.Float(1, ColNifty) != 1000 {
		t.Fatalf("index join wrong")
	}
	if !near(out.Float(2, ColNiftyReturns), 0.1) {
		t.Fatalf("index returns wrong")
	}
	wantExcess := (99.0/110 - 1) - 0.1
	if !near(out.Float(2, ColExcessReturns), wantExcess) || !near(out.Float(2, ColExcessCum), wantExcess) {
		t.Fatalf("excess returns wrong: %v", out.At(2, ColExcessCum))
	}
	if out.Float(0, ColExcessCum) != 0 {
		t.Fatalf("missing excess should accumulate as zero")
	}
	if prices.Has(ColReturns) {
		t.Fatalf("source table mutated")
	}
}

func TestNormalizeToFirst(t *testing.T) {
	got := NormalizeToFirst([]float64{50, 100, 25})
	if got[0] != 1 || got[1] != 2 || got[2] != 0.5 {
		t.Fatalf("unexpected %v", got)
	}
	for _, in := range [][]float64{{0, 1}, {math.NaN(), 1}} {
		for _, v := range NormalizeToFirst(in) {
			if !math.IsNaN(v) {
				t.Fatalf("expected all NaN for %v", in)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out, err := Enrich(priceTable(t, "X", day, 100, 80, 120), nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	k, err := Summarize(out)
	if err != nil {
		t.Fatal(err)
	}
	if !near(k.ChangePct, 20) || !near(k.MaxDrawdownPct, -20) {
		t.Fatalf("unexpected KPIs %+v", k)
	}
	if !k.FirstDate.Equal(day) || !k.LastDate.Equal(day.AddDate(0, 0, 2)) {
		t.Fatalf("unexpected dates %+v", k)
	}
}

func TestInUniverse(t *testing.T) {
	if !InUniverse("TCS.NS") || !InUniverse(IndexSymbol) || InUniverse("AAPL") {
		t.Fatalf("universe membership wrong")
	}
}
