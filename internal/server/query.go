package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
)

// list reads a parameter given either repeated or comma separated.
func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func optFloat(q url.Values, key string) (*float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, v)
	}
	return &f, nil
}

// selectionFromQuery maps query parameters onto a Selection:
//
//	student, measure, measures, gender, compare, class, subjects,
//	min, max, tolerance, ma, vol, charts
func selectionFromQuery(q url.Values, set dashboard.Settings) (dashboard.Selection, error) {
	sel := dashboard.Selection{
		Settings: set,
		Student:  q.Get("student"),
		Measure:  q.Get("measure"),
		Measures: list(q, "measures"),
		Gender:   q.Get("gender"),
		Class:    q.Get("class"),
		Subjects: list(q, "subjects"),
	}
	if v := q.Get("compare"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return sel, fmt.Errorf("invalid compare: %q", v)
		}
		sel.Compare = b
	}
	var err error
	if sel.MinMarks, err = optFloat(q, "min"); err != nil {
		return sel, err
	}
	if sel.MaxMarks, err = optFloat(q, "max"); err != nil {
		return sel, err
	}
	tol, err := optFloat(q, "tolerance")
	if err != nil {
		return sel, err
	}
	if tol != nil {
		if *tol < 0 {
			return sel, fmt.Errorf("invalid tolerance: %v", *tol)
		}
		sel.Tolerance = tol
	}
	for _, w := range list(q, "ma") {
		n, err := strconv.Atoi(w)
		if err != nil || n < 1 {
			return sel, fmt.Errorf("invalid ma window: %q", w)
		}
		sel.MAWindows = append(sel.MAWindows, n)
	}
	if v := q.Get("vol"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			return sel, fmt.Errorf("invalid vol window: %q", v)
		}
		sel.VolWindow = n
	}
	sel.StockCharts = list(q, "charts")
	return sel, nil
}
