package aggregate

import (
	"sort"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Rank aggregates like GroupBy and then orders the groups by value. Ties are
// broken by key. A positive limit truncates the result.
func Rank(t *table.Table, key, measure string, r Reducer, desc bool, limit int) (Series, error) {
	s, err := GroupBy(t, key, measure, r)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Value == s[j].Value {
			return s[i].Key.Less(s[j].Key)
		}
		if desc {
			return s[i].Value > s[j].Value
		}
		return s[i].Value < s[j].Value
	})
	if limit > 0 && len(s) > limit {
		s = s[:limit]
	}
	return s, nil
}
