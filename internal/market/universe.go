package market

import "time"

// IndexSymbol is the NIFTY 50 index on Yahoo Finance.
const IndexSymbol = "^NSEI"

// Fixed daily range: calendar year 2023, end exclusive.
var (
	Start        = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	EndExclusive = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Nifty50 is the selectable stock universe.
var Nifty50 = []string{
	"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "ICICIBANK.NS", "INFY.NS", "LICI.NS", "ITC.NS",
	"BHARTIARTL.NS", "SBIN.NS", "LT.NS", "HINDUNILVR.NS", "KOTAKBANK.NS", "BAJFINANCE.NS",
	"HCLTECH.NS", "AXISBANK.NS", "MARUTI.NS", "SUNPHARMA.NS", "ASIANPAINT.NS", "TITAN.NS",
	"ONGC.NS", "ULTRACEMCO.NS", "WIPRO.NS", "NTPC.NS", "ADANIENT.NS", "ADANIPORTS.NS",
	"POWERGRID.NS", "HDFCLIFE.NS", "LTIM.NS", "TATASTEEL.NS", "M&M.NS", "NESTLEIND.NS",
	"BAJAJFINSV.NS", "JSWSTEEL.NS", "BRITANNIA.NS", "TECHM.NS", "COALINDIA.NS", "HEROMOTOCO.NS",
	"CIPLA.NS", "HINDALCO.NS", "DRREDDY.NS", "SBILIFE.NS", "APOLLOHOSP.NS", "DIVISLAB.NS",
	"EICHERMOT.NS", "TATACONSUM.NS", "BPCL.NS", "GRASIM.NS", "BAJAJ-AUTO.NS", "HAVELLS.NS",
	"BAJAJHLDNG.NS",
}

// InUniverse reports whether symbol is one of Nifty50 or the index itself.
func InUniverse(symbol string) bool {
	if symbol == IndexSymbol {
		return true
	}
	for _, s := range Nifty50 {
		if s == symbol {
			return true
		}
	}
	return false
}
