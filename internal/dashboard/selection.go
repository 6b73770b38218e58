package dashboard

import (
	"github.com/KaramelBytes/tabdash/internal/trend"
)

// OverallLabel selects the per-row overall percentage instead of a subject.
const OverallLabel = "Overall Percentage"

// AllClasses disables the class filter of the marks view.
const AllClasses = "All"

// Settings are the tunables that come from configuration rather than the user.
type Settings struct {
	// Tolerance is the trend slope threshold; nil means trend.DefaultTolerance
	// and zero labels every non-zero slope.
	Tolerance     *float64
	YPad          float64
	OverallColumn string
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() Settings {
	return Settings{YPad: 5, OverallColumn: "_OverallPct"}
}

// Tol resolves Tolerance.
func (s Settings) Tol() float64 {
	if s.Tolerance == nil {
		return trend.DefaultTolerance
	}
	return *s.Tolerance
}

// Selection is the complete filter state of one recompute.
type Selection struct {
	Settings

	Student string
	// Measure is a subject column or OverallLabel.
	Measure  string
	Measures []string
	Gender   string
	Compare  bool

	Class    string
	Subjects []string
	MinMarks *float64
	MaxMarks *float64

	MAWindows []int
	VolWindow int
	// StockCharts picks from "price", "drawdown", "volatility", "excess", "normalized".
	StockCharts []string
}

func (s Selection) settings() Settings {
	d := DefaultSettings()
	if s.Tolerance != nil {
		tol := *s.Tolerance
		d.Tolerance = &tol
	}
	if s.YPad > 0 {
		d.YPad = s.YPad
	}
	if s.OverallColumn != "" {
		d.OverallColumn = s.OverallColumn
	}
	return d
}
