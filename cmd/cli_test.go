package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
)

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(interface{ Replace([]string) error }); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCLI_StudentsView(t *testing.T) {
	home := isolateHome(t)
	out := runCmd(t, "students", "demo:students", "-s", "Aarav", "-m", "Math")
	if !strings.Contains(out, "Growing ↑") || !strings.Contains(out, "**Slope") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	chart := filepath.Join(home, "charts", "aarav.png")
	out = runCmd(t, "students", "demo:students", "-s", "Aarav", "-m", "Math", "--chart", chart)
	b, err := os.ReadFile(chart)
	if err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("chart not written: %v", err)
	}
	if !strings.Contains(out, "✓ Wrote chart to") {
		t.Fatalf("missing confirmation:\n%s", out)
	}

	if _, err := execute(t, "students", "demo:students", "-s", "Aarav", "-m", "Math", "--chart", chart, "--chart-index", "3"); err == nil {
		t.Fatalf("expected out of range chart index error")
	}
}


func TestCLI_ZeroTolerance(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "slow.csv")
	if err := os.WriteFile(src, []byte("Name,Year,Math\nA,2000,50\nA,2001,50.01\nA,2002,50.02\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := runCmd(t, "students", src, "-s", "A", "-m", "Math"); !strings.Contains(out, "Flat →") {
		t.Fatalf("default tolerance:\n%s", out)
	}
	if out := runCmd(t, "students", src, "-s", "A", "-m", "Math", "--tolerance", "0"); !strings.Contains(out, "Growing ↑") {
		t.Fatalf("zero tolerance:\n%s", out)
	}
}
func TestCLI_EmptySelectionPrompts(t *testing.T) {
	isolateHome(t)
	out, err := execute(t, "students", "demo:students")
	if err != nil {
		t.Fatalf("empty selection should not fail: %v", err)
	}
	if !strings.HasPrefix(out, "ℹ ") {
		t.Fatalf("expected prompt, got %q", out)
	}
}

func TestCLI_JSONOutput(t *testing.T) {
	isolateHome(t)
	out := runCmd(t, "subjects", "demo:students", "--measures", "Math,Science", "--json")
	var p dashboard.Payload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if p.View != "subjects" || len(p.Tables) == 0 || len(p.Tables[0].Rows) != 2 {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestCLI_MarksAndExport(t *testing.T) {
	home := isolateHome(t)
	out := runCmd(t, "marks", "demo:marks", "--class", "10A", "--subjects", "Maths")
	if !strings.Contains(out, "- **Rows (filtered)**: 2") {
		t.Fatalf("unexpected marks output:\n%s", out)
	}

	csvPath := filepath.Join(home, "maths.csv")
	out = runCmd(t, "export", "demo:marks", "--subjects", "Maths", "-o", csvPath)
	if !strings.Contains(out, "✓ Exported 5 of 15 rows") {
		t.Fatalf("unexpected export output: %s", out)
	}
	b, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(b)), "\n")); n != 6 {
		t.Fatalf("want header + 5 rows, got %d lines", n)
	}

	// The exported file is a valid input for the same view
	out = runCmd(t, "marks", csvPath)
	if !strings.Contains(out, "- **Rows (filtered)**: 5") {
		t.Fatalf("reloaded export:\n%s", out)
	}

	xlsxPath := filepath.Join(home, "girls.xlsx")
	runCmd(t, "export", "demo:students", "--gender", "F", "-o", xlsxPath)
	f, err := os.Open(xlsxPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tb, err := dataset.Load(f, xlsxPath)
	if err != nil || tb.Len() != 8 {
		t.Fatalf("xlsx export: %v rows=%d", err, tb.Len())
	}

	out = runCmd(t, "export", "demo:students", "--student", "Meera")
	if !strings.HasPrefix(out, "StudentID,Name,Gender,Year") || strings.Count(out, "\n") != 5 {
		t.Fatalf("stdout export:\n%s", out)
	}

	if _, err := execute(t, "export", "demo:marks", "-o", filepath.Join(home, "x.json")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestCLI_SchemaAndSummary(t *testing.T) {
	home := isolateHome(t)
	out := runCmd(t, "schema", "demo:marks")
	if !strings.Contains(out, "Layout: long") {
		t.Fatalf("marks schema:\n%s", out)
	}
	out = runCmd(t, "schema", "demo:students")
	if !strings.Contains(out, "Measures: Math, Science, English") || !strings.Contains(out, "Identifier: Name") {
		t.Fatalf("students schema:\n%s", out)
	}

	csv := filepath.Join(home, "semi.csv")
	if err := os.WriteFile(csv, []byte("Name;Year;Math\nA;2001;72,5\nA;2002;80,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out = runCmd(t, "schema", csv, "--delimiter", ";", "--decimal", "comma")
	if !strings.Contains(out, "Measures: Math") {
		t.Fatalf("locale schema:\n%s", out)
	}
	if _, err := execute(t, "schema", csv, "--delimiter", "|"); err == nil {
		t.Fatalf("expected unsupported delimiter error")
	}

	md := filepath.Join(home, "summary.md")
	out = runCmd(t, "summary", "demo:students", "--group-by", "Gender", "-o", md)
	if !strings.Contains(out, "✓ Wrote summary") {
		t.Fatalf("summary output: %s", out)
	}
	b, _ := os.ReadFile(md)
	if !strings.Contains(string(b), "[DATASET SUMMARY]") || !strings.Contains(string(b), "[GROUP-BY SUMMARY]") {
		t.Fatalf("summary body:\n%s", b)
	}
}

func TestCLI_LoadFailures(t *testing.T) {
	home := isolateHome(t)
	missing := filepath.Join(home, "nope.csv")
	_, err := execute(t, "marks", missing)
	var dle *dataset.DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected DataLoadError, got %v", err)
	}
	out, err := execute(t, "marks", missing, "--fallback-demo")
	if err != nil || !strings.Contains(out, "- **Rows (filtered)**: 15") {
		t.Fatalf("fallback should render the marks demo: %v\n%s", err, out)
	}
	if _, err := execute(t, "students", "demo:nope"); err == nil {
		t.Fatalf("expected unknown demo error")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolateHome(t)
	cfgPath := filepath.Join(home, "tabdash.yaml")
	runCmd(t, "config", "set", "y_pad", "9", "--config", cfgPath)
	out := runCmd(t, "config", "show", "--config", cfgPath)
	if !strings.Contains(out, "y_pad: 9\n") || !strings.Contains(out, "default_dataset: marks\n") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := execute(t, "config", "set", "bogus", "1", "--config", cfgPath); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

type ipv4Server struct {
	URL string
	srv *http.Server
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.srv.Shutdown(ctx)
	})
	return s
}

func TestCLI_Stock(t *testing.T) {
	home := isolateHome(t)
	base := time.Date(2023, 1, 2, 3, 45, 0, 0, time.UTC).Unix()
	closes := []float64{100, 110, 99, 120}
	ts := make([]int64, len(closes))
	for i := range ts {
		ts[i] = base + int64(i)*86400
	}
	body, _ := json.Marshal(map[string]any{"chart": map[string]any{
		"result": []any{map[string]any{
			"meta":       map[string]any{"gmtoffset": 19800},
			"timestamp":  ts,
			"indicators": map[string]any{"quote": []any{map[string]any{"open": closes, "high": closes, "low": closes, "close": closes, "volume": closes}}},
		}},
	}})
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Setenv("TABDASH_MARKET_BASE_URL", srv.URL)

	csvPath := filepath.Join(home, "tcs.csv")
	out := runCmd(t, "stock", "tcs.ns", "--ma", "2", "--vol", "2", "--charts", "price,excess", "--csv", csvPath)
	if !strings.Contains(out, "20.00%") || !strings.Contains(out, "✓ Wrote 4 rows") {
		t.Fatalf("stock output:\n%s", out)
	}
	b, _ := os.ReadFile(csvPath)
	if !strings.Contains(string(b), "Excess_Cum") {
		t.Fatalf("enriched csv lacks index columns:\n%s", b)
	}

	out = runCmd(t, "stock", "--list")
	if !strings.Contains(out, "RELIANCE.NS") {
		t.Fatalf("list output:\n%s", out)
	}
	if _, err := execute(t, "stock", "AAPL"); err == nil {
		t.Fatalf("expected universe error")
	}
}
