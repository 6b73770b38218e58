package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabdash/internal/table"
)

func mustRead(t *testing.T, data string) *table.Table {
	t.Helper()
	tb, err := table.ReadCSV(strings.NewReader(data), "in.csv", table.ReadOptions{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return tb
}

func TestDetectWideTable(t *testing.T) {
	tb := mustRead(t, "StudentID,student,YEAR,Sex,Class,Math,Science,Remarks\n1,Asha,2000,F,10A,80,70,good\n2,Ben,2000,M,10A,90,65,ok\n")
	roles, err := Detect(tb)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if roles.Identifier != "student" || roles.Year != "YEAR" || roles.Gender != "Sex" {
		t.Fatalf("unexpected key roles: %+v", roles)
	}
	if strings.Join(roles.Measures, ",") != "Math,Science" {
		t.Fatalf("unexpected measures: %v", roles.Measures)
	}
	if roles.Of("Remarks") != Unassigned || roles.Of("YEAR") != Grouping || roles.Of("Math") != Measure {
		t.Fatalf("unexpected Of results")
	}
}

func TestDetectRolesAreDisjoint(t *testing.T) {
	inputs := []string{
		"Name,Year,Gender,Math\nA,2000,F,1\n",
		"name,Name,year,score\nA,B,2000,3\n",
		"Student,Year,Year2,Math\nA,2000,2001,10\n",
		"Name,Age\nA,12\n",
	}
	for _, in := range inputs {
		roles, _ := Detect(mustRead(t, in))
		for _, m := range roles.Measures {
			if m == roles.Identifier {
				t.Fatalf("identifier %q also a measure for %q", m, in)
			}
			for _, g := range roles.Grouping {
				if g == m {
					t.Fatalf("grouping %q also a measure for %q", m, in)
				}
			}
		}
	}
}


func TestUnderscoreColumnsCanBeMeasures(t *testing.T) {
	tb := mustRead(t, "Name,Year,_Lab,Math\nAsha,2000,5,80\n")
	roles, err := Detect(tb)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if strings.Join(roles.Measures, ",") != "_Lab,Math" {
		t.Fatalf("unexpected measures: %v", roles.Measures)
	}
	roles = Classify(tb, DefaultRules, append(append([]string(nil), DefaultReserved...), "_Lab"))
	if strings.Join(roles.Measures, ",") != "Math" {
		t.Fatalf("reserved column should not be a measure: %v", roles.Measures)
	}
}
func TestDetectMissingRoles(t *testing.T) {
	tb := mustRead(t, "Pupil,Year,Remarks\nA,2000,x\n")
	_, err := Detect(tb)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(se.Missing) != 2 {
		t.Fatalf("expected identifier and measure missing, got %v", se.Missing)
	}
	if !strings.HasPrefix(se.Error(), "please check your data, expected columns") {
		t.Fatalf("unexpected message %q", se.Error())
	}
}

func TestRequireGender(t *testing.T) {
	roles, err := Detect(mustRead(t, "Name,Year,Math\nA,2000,1\n"))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	err = roles.Require(SlotYear, SlotGender)
	var se *SchemaError
	if !errors.As(err, &se) || len(se.Missing) != 1 || !strings.Contains(se.Missing[0], "Gender") {
		t.Fatalf("expected gender to be reported missing, got %v", err)
	}
}

func TestCanonicalizeLongFormat(t *testing.T) {
	tb := mustRead(t, "name,section,course,score,exam_date,extra\nAarav,10A,Maths,88,2025-07-01,x\nIsha,10A,Maths,abc,2025-07-08,y\n,,,,,\n")
	out, err := Canonicalize(tb)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if strings.Join(out.Columns(), ",") != "Name,Class,Subject,Marks,Date" {
		t.Fatalf("unexpected columns %v", out.Columns())
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
	if out.At(0, ColMarks).Float() != 88 || !out.At(1, ColMarks).IsMissing() {
		t.Fatalf("marks not coerced: %v %v", out.At(0, ColMarks), out.At(1, ColMarks))
	}
	if out.Kind(ColDate) != table.Date {
		t.Fatalf("date not coerced: %s", out.Kind(ColDate))
	}
}

func TestCanonicalizeMissingColumns(t *testing.T) {
	_, err := Canonicalize(mustRead(t, "Name,Marks\nA,1\n"))
	var se *SchemaError
	if !errors.As(err, &se) || strings.Join(se.Missing, ",") != "Class,Subject" {
		t.Fatalf("expected Class,Subject missing, got %v", err)
	}
}
