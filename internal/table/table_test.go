package table

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestReadCSVInfersColumnKinds(t *testing.T) {
	data := "Name,Year,Score,Pct,Date,Mixed\n" +
		"Asha,2000,80.5,12%,2024-08-10,1\n" +
		"Ben,2001,,13%,2024-08-12,x\n" +
		"NA,2002,70,,2024-08-15,\n"
	tb, err := ReadCSV(strings.NewReader(data), "scores.csv", ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := map[string]Kind{"Name": String, "Year": Number, "Score": Number, "Pct": Number, "Date": Date, "Mixed": String}
	for col, k := range want {
		if got := tb.Kind(col); got != k {
			t.Fatalf("kind(%s) = %s, want %s", col, got, k)
		}
	}
	if !tb.At(2, "Name").IsMissing() {
		t.Fatalf("NA should read as missing")
	}
	if !math.IsNaN(tb.Float(1, "Score")) {
		t.Fatalf("empty score should be NaN")
	}
	if tb.Float(0, "Pct") != 12 {
		t.Fatalf("percent not stripped: %v", tb.At(0, "Pct"))
	}
	if tb.At(0, "Mixed").Kind != String {
		t.Fatalf("mixed column should keep text cells")
	}
}


func TestMissingTokensAreCaseSensitive(t *testing.T) {
	data := "Name,Score\nNa,1\nnone,2\n-,3\nNULL,4\nnan,5\n"
	tb, err := ReadCSV(strings.NewReader(data), "names.csv", ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	for i, want := range []string{"Na", "none", "-"} {
		if v := tb.At(i, "Name"); v.IsMissing() || v.String() != want {
			t.Fatalf("row %d: %q should stay text, got %+v", i, want, v)
		}
	}
	for _, i := range []int{3, 4} {
		if !tb.At(i, "Name").IsMissing() {
			t.Fatalf("row %d should read as missing", i)
		}
	}
}
func TestReadCSVLocaleAndDelimiter(t *testing.T) {
	data := "Group;Value\nA;1.000,5\nB;0,25\n"
	tb, err := ReadCSV(strings.NewReader(data), "x.csv", ReadOptions{Delimiter: ';'})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if tb.Float(0, "Value") != 1000.5 || tb.Float(1, "Value") != 0.25 {
		t.Fatalf("unexpected values %v %v", tb.At(0, "Value"), tb.At(1, "Value"))
	}
	tsv, err := ReadCSV(strings.NewReader("a\tb\n1\t2\n"), "x.tsv", ReadOptions{})
	if err != nil || tsv.Float(0, "b") != 2 {
		t.Fatalf("tsv sniffing failed: %v", err)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader(""), "empty.csv", ReadOptions{}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestFromRecordsDuplicateAndBlankHeaders(t *testing.T) {
	tb, err := FromRecords("x", []string{"A", "A", ""}, [][]string{{"1", "2", "3"}}, ReadOptions{})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if strings.Join(tb.Columns(), "|") != "A|A.1|Unnamed: 2" {
		t.Fatalf("unexpected columns %v", tb.Columns())
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	data := "Name,Year,Math,Date\nAsha,2000,80.5,2024-01-02\nBen,2001,,2024-01-03\n"
	tb, err := ReadCSV(strings.NewReader(data), "in.csv", ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != data {
		t.Fatalf("round trip mismatch:\n%s\nvs\n%s", buf.String(), data)
	}
}

func TestDerivedTablesDoNotMutateSource(t *testing.T) {
	tb, _ := ReadCSV(strings.NewReader("Name,Math\nA,1\nB,2\nC,3\n"), "in.csv", ReadOptions{})
	withPct := tb.WithColumn("_Pct", func(i int) Value { return Num(tb.Float(i, "Math") * 10) })
	filtered := tb.Filter(func(i int) bool { return tb.Float(i, "Math") > 1 })
	renamed := tb.Rename(map[string]string{"Math": "Maths"})
	if tb.Has("_Pct") || tb.Width() != 2 || tb.Len() != 3 || !tb.Has("Math") {
		t.Fatalf("source table was mutated")
	}
	if withPct.Float(2, "_Pct") != 30 || filtered.Len() != 2 || !renamed.Has("Maths") {
		t.Fatalf("derived tables incorrect")
	}
	lo, hi, ok := tb.Range("Math")
	if !ok || lo != 1 || hi != 3 {
		t.Fatalf("Range = %v %v %v", lo, hi, ok)
	}
}

func TestDistinctAndSortBy(t *testing.T) {
	tb, _ := ReadCSV(strings.NewReader("Year,V\n2002,1\n2000,2\n2002,3\n,4\n"), "in.csv", ReadOptions{})
	d := tb.Distinct("Year")
	if len(d) != 2 || d[0].Num != 2000 || d[1].Num != 2002 {
		t.Fatalf("unexpected distinct %v", d)
	}
	s := tb.SortBy("Year")
	if !s.At(0, "Year").IsMissing() || s.Float(1, "V") != 2 || s.Float(2, "V") != 1 {
		t.Fatalf("unexpected sort order")
	}
	if name, ok := tb.Lookup(" year "); !ok || name != "Year" {
		t.Fatalf("Lookup failed")
	}
}
