// Package analysis builds the column summary report printed by `tabdash summary`.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabdash/internal/aggregate"
	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
)

// Options controls what the report includes.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries of the measures for the given column.
	GroupBy string
	// Correlations computes Pearson correlations among measure columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). Counts |z|>OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset summaries.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly summary of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Roles    schema.Roles
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     []PairCorr
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	Role    schema.Role
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Std float64
	// Outliers (robust Z via MAD)
	OutliersCount   int
	OutliersMaxAbsZ float64
	// Text columns
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated measures per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]aggregate.Stats
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

// Summarize analyzes t. Role detection never fails here; missing roles are
// reported as warnings.
func Summarize(t *table.Table, opt Options) (*Report, error) {
	roles := schema.Classify(t, schema.DefaultRules, schema.DefaultReserved)
	rep := &Report{Name: t.Name, Rows: t.Len(), Roles: roles}
	if err := roles.Require(schema.SlotIdentifier, schema.SlotYear); err != nil {
		rep.Warnings = append(rep.Warnings, err.Error())
	}

	for _, c := range t.Columns() {
		cs, err := summarizeColumn(t, c, opt)
		if err != nil {
			return nil, err
		}
		cs.Role = roles.Of(c)
		rep.Cols = append(rep.Cols, cs)
		if cs.OutliersCount > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s has %d outlier(s) with |z|>%.1f", c, cs.OutliersCount, opt.OutlierThreshold))
		}
	}

	n := opt.SampleRows
	if n <= 0 {
		n = 5
	}
	for i := 0; i < t.Len() && i < n; i++ {
		row := make([]string, t.Width())
		for j, v := range t.Row(i) {
			row[j] = v.String()
		}
		rep.Samples = append(rep.Samples, row)
	}

	if opt.GroupBy != "" {
		key, ok := t.Lookup(opt.GroupBy)
		if !ok {
			return nil, fmt.Errorf("%w: %s", table.ErrUnknownColumn, opt.GroupBy)
		}
		groups, err := groupSummaries(t, key, roles.Measures)
		if err != nil {
			return nil, err
		}
		rep.Groups = groups
	}
	if opt.Correlations {
		rep.Corr = correlations(t, roles.Measures)
	}
	return rep, nil
}

func summarizeColumn(t *table.Table, name string, opt Options) (ColumnSummary, error) {
	vals, err := t.Column(name)
	if err != nil {
		return ColumnSummary{}, err
	}
	clean, unit := splitUnits(name)
	cs := ColumnSummary{Name: clean, Unit: unit, Kind: t.Kind(name).String(), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN()}
	counts := map[string]int{}
	var nums []float64
	for _, v := range vals {
		if v.IsMissing() {
			cs.Missing++
			continue
		}
		cs.NonNull++
		counts[v.String()]++
		if v.Kind == table.Number {
			nums = append(nums, v.Num)
		}
	}
	cs.Unique = len(counts)
	if t.Kind(name) == table.Number && len(nums) > 0 {
		cs.Mean, cs.Std = stat.MeanStdDev(nums, nil)
		cs.Min, cs.Max = nums[0], nums[0]
		for _, x := range nums {
			cs.Min = math.Min(cs.Min, x)
			cs.Max = math.Max(cs.Max, x)
		}
		if opt.Outliers && opt.OutlierThreshold > 0 {
			cs.OutliersCount, cs.OutliersMaxAbsZ = robustOutliers(nums, opt.OutlierThreshold)
		}
	}
	if t.Kind(name) == table.String {
		for v, c := range counts {
			cs.TopValues = append(cs.TopValues, CategoryCount{Value: v, Count: c})
		}
		sort.Slice(cs.TopValues, func(i, j int) bool {
			if cs.TopValues[i].Count == cs.TopValues[j].Count {
				return cs.TopValues[i].Value < cs.TopValues[j].Value
			}
			return cs.TopValues[i].Count > cs.TopValues[j].Count
		})
		if len(cs.TopValues) > 5 {
			cs.TopValues = cs.TopValues[:5]
		}
	}
	return cs, nil
}

// robustOutliers counts values whose modified z-score exceeds thr.
func robustOutliers(vals []float64, thr float64) (int, float64) {
	med, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	count, maxZ := 0, 0.0
	for _, v := range vals {
		z := 0.6745 * (v - med) / mad
		if math.Abs(z) > thr {
			count++
		}
		maxZ = math.Max(maxZ, math.Abs(z))
	}
	return count, maxZ
}

func groupSummaries(t *table.Table, key string, measures []string) ([]GroupResult, error) {
	keys := t.Distinct(key)
	out := make([]GroupResult, 0, len(keys))
	for _, k := range keys {
		sub := t.Filter(func(i int) bool { return t.At(i, key).Equal(k) })
		g := GroupResult{Key: k.String(), Size: sub.Len(), Metrics: map[string]aggregate.Stats{}}
		for _, m := range measures {
			st, err := aggregate.Describe(sub, m)
			if err != nil {
				return nil, err
			}
			if st.Count > 0 {
				g.Metrics[m] = st
			}
		}
		out = append(out, g)
	}
	return out, nil
}

// correlations computes pairwise Pearson r over rows where both values exist,
// ordered by |r| descending.
func correlations(t *table.Table, measures []string) []PairCorr {
	var out []PairCorr
	for i := 0; i < len(measures); i++ {
		for j := i + 1; j < len(measures); j++ {
			a, _ := t.Floats(measures[i])
			b, _ := t.Floats(measures[j])
			var xs, ys []float64
			for k := range a {
				if math.IsNaN(a[k]) || math.IsNaN(b[k]) {
					continue
				}
				xs = append(xs, a[k])
				ys = append(ys, b[k])
			}
			if len(xs) < 3 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) {
				continue
			}
			out = append(out, PairCorr{A: measures[i], B: measures[j], R: r, N: len(xs)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	return out
}

// Markdown renders the report for terminals and files.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[ROLES]\n")
	b.WriteString(fmt.Sprintf("- identifier: %s\n", orNone(r.Roles.Identifier)))
	b.WriteString(fmt.Sprintf("- year: %s\n", orNone(r.Roles.Year)))
	b.WriteString(fmt.Sprintf("- gender: %s\n", orNone(r.Roles.Gender)))
	b.WriteString(fmt.Sprintf("- measures: %s\n\n", orNone(strings.Join(r.Roles.Measures, ", "))))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s, %s (non-null %d, missing %.1f%%)", name, c.Kind, c.Role, c.NonNull, missPct))
		switch {
		case !math.IsNaN(c.Mean):
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
			if !math.IsNaN(c.Std) {
				b.WriteString(fmt.Sprintf(", std %.4g", c.Std))
			}
			if c.OutliersCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d (max |z|≈%.2f)", c.OutliersCount, c.OutliersMaxAbsZ))
			}
		case len(c.TopValues) > 0:
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Corr) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for i, p := range r.Corr {
			if i == 10 {
				break
			}
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(r.Cols)))
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // e.g., Math (%)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // e.g., Score [marks]
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
