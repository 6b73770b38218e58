package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Demo dataset names.
const (
	DemoMarks    = "marks"
	DemoStudents = "students"
)

var demos = map[string]func() *table.Table{
	DemoMarks:    marksDemo,
	DemoStudents: studentsDemo,
}

// Demos lists the bundled dataset names.
func Demos() []string {
	out := make([]string, 0, len(demos))
	for k := range demos {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Demo returns a fresh copy of a bundled dataset.
func Demo(name string) (*table.Table, error) {
	fn, ok := demos[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo dataset %q (available: %v)", name, Demos())
	}
	return fn(), nil
}

// marksDemo is the long-format marks table: one row per student, subject and exam.
func marksDemo() *table.Table {
	students := []struct {
		name, class, date string
		marks             [3]float64
	}{
		{"Aarav", "10A", "2025-07-01", [3]float64{88, 79, 92}},
		{"Isha", "10A", "2025-07-01", [3]float64{76, 71, 84}},
		{"Kabir", "10B", "2025-07-08", [3]float64{90, 83, 78}},
		{"Meera", "10B", "2025-07-15", [3]float64{69, 74, 81}},
		{"Rohan", "10C", "2025-07-22", [3]float64{95, 72, 68}},
	}
	subjects := []string{"Maths", "Science", "English"}
	t := table.New(DemoMarks, "Name", "Class", "Subject", "Marks", "Date")
	for _, s := range students {
		d, _ := time.Parse(table.DateLayout, s.date)
		for k, subj := range subjects {
			_ = t.Append(table.Str(s.name), table.Str(s.class), table.Str(subj), table.Num(s.marks[k]), table.DateValue(d))
		}
	}
	return t
}

// studentsDemo is the wide yearly table: one row per student and year with a
// column per subject. Marks move linearly from a base by a fixed yearly step.
func studentsDemo() *table.Table {
	students := []struct {
		name, gender string
		base, step   [3]float64
	}{
		{"Aarav", "M", [3]float64{72, 68, 80}, [3]float64{3, 2, 1}},
		{"Isha", "F", [3]float64{85, 88, 79}, [3]float64{-1, 1, 2}},
		{"Kabir", "M", [3]float64{64, 70, 75}, [3]float64{4, 3, 0}},
		{"Meera", "F", [3]float64{90, 82, 86}, [3]float64{0, -2, 1}},
		{"Rohan", "M", [3]float64{58, 66, 71}, [3]float64{5, 1, -1}},
	}
	t := table.New(DemoStudents, "StudentID", "Name", "Gender", "Year", "Math", "Science", "English")
	for id, s := range students {
		for k := 0; k < 4; k++ {
			vals := []table.Value{
				table.Num(float64(101 + id)), table.Str(s.name), table.Str(s.gender), table.Num(float64(2000 + k)),
			}
			for j := range s.base {
				vals = append(vals, table.Num(s.base[j]+s.step[j]*float64(k)))
			}
			_ = t.Append(vals...)
		}
	}
	return t
}
