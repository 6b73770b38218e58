package table

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies what a cell (or a whole column) holds.
type Kind int

const (
	Missing Kind = iota
	String
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case String:
		return "text"
	case Number:
		return "numeric"
	case Date:
		return "datetime"
	default:
		return "empty"
	}
}

// DateLayout is used when dates are written back out.
const DateLayout = "2006-01-02"

// Value is a single cell.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

func Null() Value                 { return Value{Kind: Missing} }
func Str(s string) Value          { return Value{Kind: String, Str: s} }
func DateValue(t time.Time) Value { return Value{Kind: Date, Time: t} }

// Num returns a numeric cell; NaN is stored as missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{Kind: Number, Num: f}
}

func (v Value) IsMissing() bool { return v.Kind == Missing }

// Float returns the numeric content of v, or NaN when v is not a number.
func (v Value) Float() float64 {
	if v.Kind != Number {
		return math.NaN()
	}
	return v.Num
}

// String renders the cell the way it is shown in tables and written to CSV.
func (v Value) String() string {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Date:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format(DateLayout)
		}
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same value.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case String:
		return v.Str == o.Str
	case Number:
		return v.Num == o.Num
	case Date:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

// Less orders values: missing first, then numbers, dates, strings.
func (v Value) Less(o Value) bool {
	if v.Kind != o.Kind {
		return rank(v.Kind) < rank(o.Kind)
	}
	switch v.Kind {
	case Number:
		return v.Num < o.Num
	case Date:
		return v.Time.Before(o.Time)
	case String:
		return v.Str < o.Str
	default:
		return false
	}
}

func rank(k Kind) int {
	switch k {
	case Missing:
		return 0
	case Number:
		return 1
	case Date:
		return 2
	default:
		return 3
	}
}
