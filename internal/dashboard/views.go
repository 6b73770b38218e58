package dashboard

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// View computes a payload from a table and a selection.
type View func(t *table.Table, sel Selection) (*Payload, error)

var views = map[string]View{
	"students": Students,
	"subjects": Subjects,
	"gender":   Gender,
	"toppers":  Toppers,
	"marks":    Marks,
}

// Names lists the table-backed views.
func Names() []string {
	out := make([]string, 0, len(views))
	for k := range views {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render runs the named view.
func Render(name string, t *table.Table, sel Selection) (*Payload, error) {
	v, ok := views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return v(t, sel)
}
