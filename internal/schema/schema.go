// Package schema classifies dataset columns into roles by name and type.
package schema

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Role is the part a column plays in a dashboard.
type Role int

const (
	Unassigned Role = iota
	Identifier
	Grouping
	Measure
)

func (r Role) String() string {
	switch r {
	case Identifier:
		return "identifier"
	case Grouping:
		return "grouping"
	case Measure:
		return "measure"
	default:
		return "unassigned"
	}
}

// Slot names the specific key a rule fills.
type Slot string

const (
	SlotIdentifier Slot = "identifier"
	SlotYear       Slot = "year"
	SlotGender     Slot = "gender"
)

// Rule maps a set of candidate names to a role. Rules are evaluated in order;
// within a rule, candidates are tried in order and the first one present wins.
type Rule struct {
	Slot       Slot
	Role       Role
	Candidates []string
	// Hint is shown to the user when the slot cannot be filled.
	Hint string
}

// DefaultRules are used for wide per-student-per-year tables.
var DefaultRules = []Rule{
	{Slot: SlotIdentifier, Role: Identifier, Candidates: []string{"name", "student", "student_name"}, Hint: "a student name column (e.g., Name or Student)"},
	{Slot: SlotYear, Role: Grouping, Candidates: []string{"year", "class_year", "grade_year"}, Hint: "a Year column"},
	{Slot: SlotGender, Role: Grouping, Candidates: []string{"gender", "sex"}, Hint: "a Gender column"},
}

// DefaultReserved names are never treated as measures even when numeric.
var DefaultReserved = []string{
	"studentid", "name", "student", "student_name", "batch", "class",
	"year", "class_year", "grade_year", "gender", "sex",
}

// MeasureHint describes the measure requirement in user-facing messages.
const MeasureHint = "numeric subject columns (e.g., Math, Science)"

// Roles is the result of detection. It is derived from a table and never stored.
type Roles struct {
	Identifier string
	Year       string
	Gender     string
	Grouping   []string
	Measures   []string

	hints map[Slot]string
}

// Of returns the role assigned to a column.
func (r Roles) Of(col string) Role {
	if col == "" {
		return Unassigned
	}
	if col == r.Identifier {
		return Identifier
	}
	for _, g := range r.Grouping {
		if g == col {
			return Grouping
		}
	}
	for _, m := range r.Measures {
		if m == col {
			return Measure
		}
	}
	return Unassigned
}

// IsMeasure reports whether col is one of the detected measures.
func (r Roles) IsMeasure(col string) bool { return r.Of(col) == Measure }

// Require returns a SchemaError listing every requested slot that was not
// detected. Measures are always required.
func (r Roles) Require(slots ...Slot) error {
	var missing []string
	for _, s := range slots {
		if r.slot(s) == "" {
			missing = append(missing, r.hint(s))
		}
	}
	if len(r.Measures) == 0 {
		missing = append(missing, MeasureHint)
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

func (r Roles) slot(s Slot) string {
	switch s {
	case SlotIdentifier:
		return r.Identifier
	case SlotYear:
		return r.Year
	case SlotGender:
		return r.Gender
	}
	return ""
}

func (r Roles) hint(s Slot) string {
	if h, ok := r.hints[s]; ok && h != "" {
		return h
	}
	return fmt.Sprintf("a %s column", s)
}

// Detector assigns roles using ordered rules and a reserved-name set.
type Detector struct {
	Rules    []Rule
	Reserved []string
}

// NewDetector returns a detector with the default student-dashboard rules.
func NewDetector() *Detector {
	return &Detector{Rules: DefaultRules, Reserved: DefaultReserved}
}

// Detect classifies columns with the default rules.
func Detect(t *table.Table) (Roles, error) { return NewDetector().Detect(t) }

// Detect classifies the columns of t. It returns the roles it could assign
// together with a *SchemaError when there is no identifier or no measure.
func (d *Detector) Detect(t *table.Table) (Roles, error) {
	roles := Classify(t, d.Rules, d.Reserved)
	return roles, roles.Require(SlotIdentifier)
}

// Classify assigns roles without enforcing any requirement.
func Classify(t *table.Table, rules []Rule, reserved []string) Roles {
	roles := Roles{hints: map[Slot]string{}}
	lower := map[string]string{}
	for _, c := range t.Columns() {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, dup := lower[key]; !dup {
			lower[key] = c
		}
	}
	taken := map[string]bool{}
	for _, rule := range rules {
		roles.hints[rule.Slot] = rule.Hint
		for _, cand := range rule.Candidates {
			col, ok := lower[strings.ToLower(cand)]
			if !ok || taken[col] {
				continue
			}
			taken[col] = true
			switch rule.Slot {
			case SlotIdentifier:
				roles.Identifier = col
			case SlotYear:
				roles.Year = col
			case SlotGender:
				roles.Gender = col
			}
			if rule.Role == Grouping {
				roles.Grouping = append(roles.Grouping, col)
			}
			break
		}
	}
	res := map[string]bool{}
	for _, r := range reserved {
		res[strings.ToLower(r)] = true
	}
	for _, c := range t.Columns() {
		if taken[c] || res[strings.ToLower(strings.TrimSpace(c))] {
			continue
		}
		if t.IsNumeric(c) {
			roles.Measures = append(roles.Measures, c)
		}
	}
	return roles
}
