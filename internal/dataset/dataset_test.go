package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
)

const wideCSV = "Name,Year,Gender,Math\nAsha,2000,F,80\nAsha,2001,F,85\n"

func TestLoaderForExtensions(t *testing.T) {
	for _, name := range []string{"a.csv", "b.TSV", "c.xlsx"} {
		if _, err := LoaderFor(name); err != nil {
			t.Fatalf("expected loader for %s: %v", name, err)
		}
	}
	if _, err := LoaderFor("notes.docx"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestResolvePathAndUpload(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wide.csv")
	if err := os.WriteFile(p, []byte(wideCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(DemoStudents)
	tb, err := r.Resolve(context.Background(), Source{Path: p})
	if err != nil {
		t.Fatalf("Resolve path: %v", err)
	}
	if tb.Len() != 2 || tb.Name != "wide.csv" {
		t.Fatalf("unexpected table %s with %d rows", tb.Name, tb.Len())
	}
	up, err := r.Resolve(context.Background(), Source{Name: "wide.csv", Data: []byte(wideCSV)})
	if err != nil {
		t.Fatalf("Resolve upload: %v", err)
	}
	if r.Cached() != 1 {
		t.Fatalf("identical content should share one cache entry, got %d", r.Cached())
	}
	// Callers own their copy
	_ = up.Append()
	again, _ := r.Resolve(context.Background(), Source{Name: "wide.csv", Data: []byte(wideCSV)})
	if again.Len() != 2 {
		t.Fatalf("cached table was mutated: %d rows", again.Len())
	}
}

func TestResolveOrDefaultFallsBack(t *testing.T) {
	r := NewResolver(DemoMarks)
	tb, err := r.ResolveOrDefault(context.Background(), Source{Path: filepath.Join(t.TempDir(), "missing.csv")})
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected DataLoadError warning, got %v", err)
	}
	if tb == nil || tb.Name != DemoMarks || tb.Len() != 15 {
		t.Fatalf("expected marks demo fallback")
	}
	if !strings.Contains(dle.Error(), "missing.csv") {
		t.Fatalf("error should name the source: %v", dle)
	}

	_, err = r.ResolveOrDefault(context.Background(), Source{Name: "x.pdf", Data: []byte("hello")})
	if !errors.As(err, &dle) {
		t.Fatalf("unsupported upload should be a DataLoadError, got %v", err)
	}
}

func TestResolveHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewResolver("").Resolve(ctx, Source{Demo: DemoMarks}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDemosMatchSchemas(t *testing.T) {
	st, err := Demo(DemoStudents)
	if err != nil {
		t.Fatal(err)
	}
	roles, err := schema.Detect(st)
	if err != nil {
		t.Fatalf("students demo should satisfy detection: %v", err)
	}
	if err := roles.Require(schema.SlotYear, schema.SlotGender); err != nil {
		t.Fatalf("students demo lacks year/gender: %v", err)
	}
	if strings.Join(roles.Measures, ",") != "Math,Science,English" {
		t.Fatalf("unexpected measures %v", roles.Measures)
	}
	if st.Len() != 20 {
		t.Fatalf("expected 5 students x 4 years, got %d", st.Len())
	}

	mk, _ := Demo(DemoMarks)
	if _, err := schema.Canonicalize(mk); err != nil {
		t.Fatalf("marks demo should canonicalize: %v", err)
	}
	if _, err := Demo("nope"); err == nil {
		t.Fatalf("expected error for unknown demo")
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	src, _ := Demo(DemoMarks)
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, src, "Marks"); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	got, err := Load(bytes.NewReader(buf.Bytes()), "marks.xlsx")
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}
	if got.Len() != src.Len() || !got.IsNumeric("Marks") {
		t.Fatalf("round trip lost data: %d rows, kind %s", got.Len(), got.Kind("Marks"))
	}
	if got.Float(0, "Marks") != 88 || got.At(4, "Name").String() != "Isha" {
		t.Fatalf("unexpected cells %v %v", got.At(0, "Marks"), got.At(4, "Name"))
	}
}

func TestLoadWithOptions(t *testing.T) {
	data := "Name;Year;Math\nA;2001;72,5\nB;2001;80,0\n"
	opt := Options{Read: table.ReadOptions{Delimiter: ';', DecimalSeparator: ','}}
	tb, err := LoadWith(strings.NewReader(data), "locale.csv", opt)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Width() != 3 || tb.Float(0, "Math") != 72.5 {
		t.Fatalf("options not applied: cols=%v math=%v", tb.Columns(), tb.Float(0, "Math"))
	}

	r := NewResolver("")
	ctx := context.Background()
	a, err := r.Resolve(ctx, Source{Name: "locale.csv", Data: []byte(data), Options: opt})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, Source{Name: "locale.csv", Data: []byte(data)}); err != nil {
		t.Fatal(err)
	}
	if r.Cached() != 2 || a.Width() != 3 {
		t.Fatalf("parse options must be part of the cache key, cached=%d", r.Cached())
	}
}

func TestResolverCacheIsBounded(t *testing.T) {
	r := NewResolver("")
	r.MaxEntries = 2
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		data := fmt.Sprintf("Name,Year,Math\nA,2000,%d\n", i)
		if _, err := r.Resolve(ctx, Source{Name: "up.csv", Data: []byte(data)}); err != nil {
			t.Fatal(err)
		}
	}
	if r.Cached() != 2 {
		t.Fatalf("cached = %d, want 2", r.Cached())
	}
}
