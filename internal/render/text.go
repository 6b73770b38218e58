package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
)

// Text writes a payload as Markdown: title, metrics, grids and notes. Charts
// are listed by title only; use PNG to draw them.
func Text(w io.Writer, p *dashboard.Payload) error {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
	}
	if len(p.Metrics) > 0 {
		for _, m := range p.Metrics {
			fmt.Fprintf(&b, "- **%s**: %s\n", m.Label, m.Value)
		}
		b.WriteString("\n")
	}
	for _, g := range p.Tables {
		writeGrid(&b, g)
	}
	if len(p.Charts) > 0 {
		b.WriteString("Charts:\n")
		for i, c := range p.Charts {
			fmt.Fprintf(&b, "  %d. %s (%s, %d series)\n", i+1, c.Title, c.Kind, len(c.Series))
		}
		b.WriteString("\n")
	}
	for _, n := range p.Notes {
		fmt.Fprintf(&b, "> %s\n", n)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeGrid(b *strings.Builder, g dashboard.Grid) {
	if g.Title != "" {
		fmt.Fprintf(b, "## %s\n\n", g.Title)
	}
	if len(g.Columns) == 0 {
		return
	}
	b.WriteString("| " + strings.Join(cells(g.Columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(g.Columns)) + "\n")
	for _, r := range g.Rows {
		row := make([]string, len(g.Columns))
		copy(row, r)
		b.WriteString("| " + strings.Join(cells(row), " | ") + " |\n")
	}
	if len(g.Rows) == 0 {
		b.WriteString("_(no rows)_\n")
	}
	b.WriteString("\n")
}

// cells escapes pipes and newlines so a value stays inside its column.
func cells(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		s = strings.ReplaceAll(s, "|", "\\|")
		s = strings.ReplaceAll(s, "\n", " ")
		out[i] = s
	}
	return out
}
