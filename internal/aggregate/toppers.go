package aggregate

import (
	"fmt"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Topper is the row attaining the maximum of a measure within one group.
type Topper struct {
	Key        table.Value
	Identifier string
	Score      float64
	Row        int
}

// Toppers returns, per key, the identifier of the row with the highest
// measure. When several rows share the maximum, the first one in source order
// is reported. Scores are rounded to two decimals.
func Toppers(t *table.Table, key, identifier, measure string) ([]Topper, error) {
	if !t.Has(identifier) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, identifier)
	}
	s, err := GroupBy(t, key, measure, ArgMax)
	if err != nil {
		return nil, err
	}
	out := make([]Topper, len(s))
	for i, p := range s {
		out[i] = Topper{
			Key:        p.Key,
			Identifier: t.At(p.Row, identifier).String(),
			Score:      Round(p.Value, 2),
			Row:        p.Row,
		}
	}
	return out, nil
}
