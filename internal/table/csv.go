package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ReadOptions controls how delimited text is parsed into a Table.
type ReadOptions struct {
	// Delimiter for CSV. If 0, ',' is used unless the name ends in .tsv.
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// missingTokens are read as empty cells. Matching is case-sensitive and the
// set follows pandas' default NA values, so a name like "Na" stays text.
var missingTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

// ReadCSV parses CSV data with a header row.
func ReadCSV(r io.Reader, name string, opt ReadOptions) (*Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			continue
		}
		records = append(records, rec)
	}
	return FromRecords(name, header, records, opt)
}

// FromRecords builds a Table from raw string records, inferring one kind per
// column: numeric when every non-empty cell parses as a number, datetime when
// every non-empty cell parses as a date, text otherwise. Rows where every cell
// is empty are dropped.
func FromRecords(name string, header []string, records [][]string, opt ReadOptions) (*Table, error) {
	ncol := len(header)
	if ncol == 0 {
		return nil, errors.New("no columns in header")
	}
	cols := make([]string, ncol)
	seen := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			seen[h] = 1
		}
		cols[i] = h
	}

	// Normalize row lengths and drop fully empty rows
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, ncol)
		empty := true
		for j := 0; j < ncol && j < len(rec); j++ {
			v := strings.TrimSpace(rec[j])
			if missingTokens[v] {
				v = ""
			}
			row[j] = v
			if v != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	kinds := make([]Kind, ncol)
	for j := 0; j < ncol; j++ {
		kinds[j] = inferKind(rows, j, opt)
	}

	t := New(name, cols...)
	for _, row := range rows {
		vals := make([]Value, ncol)
		for j, raw := range row {
			vals[j] = coerce(raw, kinds[j], opt)
		}
		_ = t.Append(vals...)
	}
	return t, nil
}

func inferKind(rows [][]string, j int, opt ReadOptions) Kind {
	num, dt, n := 0, 0, 0
	for _, r := range rows {
		v := r[j]
		if v == "" {
			continue
		}
		n++
		if _, ok := ParseNumber(v, opt); ok {
			num++
			continue
		}
		if _, ok := ParseTime(v); ok {
			dt++
		}
	}
	switch {
	case n == 0:
		return Missing
	case num == n:
		return Number
	case dt == n:
		return Date
	default:
		return String
	}
}

func coerce(raw string, k Kind, opt ReadOptions) Value {
	if raw == "" {
		return Null()
	}
	switch k {
	case Number:
		f, _ := ParseNumber(raw, opt)
		return Num(f)
	case Date:
		t, _ := ParseTime(raw)
		return DateValue(t)
	default:
		return Str(raw)
	}
}

// WriteCSV writes the table with a header row. Missing cells are empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.cols))
	for i, r := range t.rows {
		for j, v := range r {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseTime tries the date layouts commonly found in exported spreadsheets.
func ParseTime(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric cell, tolerating percent signs and locale
// separators.
func ParseNumber(s string, opt ReadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
