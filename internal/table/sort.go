package table

import "sort"

// SortValues sorts values in place using Value.Less.
func SortValues(vs []Value) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
}

func stableSort(rows [][]Value, less func(a, b []Value) bool) {
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}
