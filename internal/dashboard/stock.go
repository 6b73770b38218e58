package dashboard

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabdash/internal/market"
	"github.com/KaramelBytes/tabdash/internal/table"
)

var defaultStockCharts = []string{"price", "drawdown", "volatility"}

// previewRows bounds the data preview table.
const previewRows = 50

// EnrichStock applies the indicator windows of sel to a price table.
func EnrichStock(prices, index *table.Table, sel Selection) (*table.Table, error) {
	opt := market.DefaultOptions()
	if len(sel.MAWindows) > 0 {
		opt.MAWindows = sel.MAWindows
	}
	if sel.VolWindow > 0 {
		opt.VolWindow = sel.VolWindow
	}
	return market.Enrich(prices, index, opt)
}

// Stock is the price terminal: KPIs, price with moving averages, drawdown,
// rolling volatility, excess return against the index and a normalized
// comparison. index may be nil when the benchmark is unavailable.
func Stock(prices, index *table.Table, sel Selection) (*Payload, error) {
	d, err := EnrichStock(prices, index, sel)
	if err != nil {
		return nil, err
	}
	k, err := market.Summarize(d)
	if err != nil {
		return nil, err
	}
	symbol := prices.Name
	p := &Payload{
		View:  "stock",
		Title: fmt.Sprintf("%s — %d", symbol, market.Start.Year()),
		Metrics: []Metric{
			{Label: "First Date", Value: k.FirstDate.Format("02-Jan-2006")},
			{Label: "Last Date", Value: k.LastDate.Format("02-Jan-2006")},
			{Label: fmt.Sprintf("Price Change (%d)", market.Start.Year()), Value: fixed(k.ChangePct, 2) + "%"},
			{Label: "Max Drawdown", Value: fixed(k.MaxDrawdownPct, 2) + "%"},
		},
	}
	dates := make([]string, d.Len())
	for i := range dates {
		dates[i] = d.At(i, market.ColDate).String()
	}
	col := func(name string) Line {
		ys, _ := d.Floats(name)
		return Line{Name: name, X: dates, Y: ys}
	}

	charts := sel.StockCharts
	if len(charts) == 0 {
		charts = defaultStockCharts
	}
	windows := sel.MAWindows
	if len(windows) == 0 {
		windows = market.DefaultOptions().MAWindows
	}
	vol := sel.VolWindow
	if vol <= 0 {
		vol = market.DefaultOptions().VolWindow
	}
	for _, c := range charts {
		switch strings.ToLower(c) {
		case "price":
			ch := Chart{Kind: LineChart, Title: symbol + " — Price with Moving Averages", XLabel: "Date", YLabel: "Price", Series: []Line{col(market.ColClose)}}
			for _, w := range windows {
				ch.Series = append(ch.Series, col(market.SMAColumn(w)))
			}
			p.Charts = append(p.Charts, ch)
		case "drawdown":
			p.Charts = append(p.Charts, Chart{Kind: LineChart, Title: "Drawdown (relative to running peak)", XLabel: "Date", Series: []Line{col(market.ColDrawdown)}})
		case "volatility":
			p.Charts = append(p.Charts, Chart{Kind: LineChart, Title: fmt.Sprintf("Rolling Volatility (Annualized, window=%dd)", vol), XLabel: "Date", Series: []Line{col(market.ColVolAnnual)}})
		case "excess":
			if !d.Has(market.ColExcessCum) {
				p.Notes = append(p.Notes, "Index data unavailable; excess return chart skipped.")
				continue
			}
			p.Charts = append(p.Charts, Chart{Kind: LineChart, Title: "Excess Cumulative Return vs NIFTY (Stock − Index)", XLabel: "Date", Series: []Line{col(market.ColExcessCum)}})
		case "normalized":
			closes, _ := d.Floats(market.ColClose)
			ch := Chart{Kind: LineChart, Title: "Normalized price (start=1.0)", XLabel: "Date",
				Series: []Line{{Name: symbol + "_Norm", X: dates, Y: market.NormalizeToFirst(closes)}}}
			if d.Has(market.ColNifty) {
				nifty, _ := d.Floats(market.ColNifty)
				ch.Series = append(ch.Series, Line{Name: "NIFTY_Norm", X: dates, Y: market.NormalizeToFirst(nifty)})
			}
			p.Charts = append(p.Charts, ch)
		default:
			return nil, fmt.Errorf("%w %q (price, drawdown, volatility, excess, normalized)", ErrUnknownChart, c)
		}
	}

	preview := d.Filter(func(i int) bool { return i < previewRows })
	p.Tables = []Grid{tableGrid(fmt.Sprintf("Data Preview (first %d rows)", previewRows), preview)}
	return p, nil
}
