package market

import (
	"fmt"
	"net/http"
	"time"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Columns of a fetched price table.
const (
	ColDate   = "Date"
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// table converts the first chart result into a price table. Rows outside
// [start, end) or without a close are dropped.
func (cr chartResponse) table(symbol string, start, end time.Time) (*table.Table, error) {
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Timestamp) == 0 {
		apiErr := &APIError{StatusCode: http.StatusNotFound, Symbol: symbol, Message: "no data in range"}
		if cr.Chart.Error != nil {
			apiErr.Code = cr.Chart.Error.Code
			apiErr.Message = cr.Chart.Error.Description
		}
		return nil, &NotFoundError{APIError: apiErr}
	}
	res := cr.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("response for %s has no quote block", symbol)
	}
	q := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	t := table.New(symbol, ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume)
	for i, ts := range res.Timestamp {
		day := time.Unix(ts+res.Meta.GMTOffset, 0).UTC().Truncate(24 * time.Hour)
		if day.Before(start) || !day.Before(end) {
			continue
		}
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		ratio := 1.0
		if a := at(adj, i); a != nil && *cl != 0 {
			ratio = *a / *cl
		}
		_ = t.Append(
			table.DateValue(day),
			scaled(at(q.Open, i), ratio),
			scaled(at(q.High, i), ratio),
			scaled(at(q.Low, i), ratio),
			scaled(cl, ratio),
			scaled(at(q.Volume, i), 1),
		)
	}
	if t.Len() == 0 {
		return nil, &NotFoundError{APIError: &APIError{StatusCode: http.StatusNotFound, Symbol: symbol, Message: "no data in range"}}
	}
	return t.SortBy(ColDate), nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func scaled(p *float64, ratio float64) table.Value {
	if p == nil {
		return table.Null()
	}
	return table.Num(*p * ratio)
}
