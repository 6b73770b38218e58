package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/render"
	"github.com/KaramelBytes/tabdash/internal/trend"
	"github.com/KaramelBytes/tabdash/internal/utils"
)

var (
	viewStudent    string
	viewMeasure    string
	viewMeasures   []string
	viewGender     string
	viewCompare    bool
	viewClass      string
	viewSubjects   []string
	viewMin        float64
	viewMax        float64
	viewTolerance  float64
	viewJSON       bool
	viewChart      string
	viewChartIndex int
)

type viewSpec struct {
	name  string
	short string
	flags func(c *cobra.Command)
}

var viewSpecs = []viewSpec{
	{"students", "Yearly marks of one student with a linear trend", func(c *cobra.Command) {
		c.Flags().StringVarP(&viewStudent, "student", "s", "", "student name")
		c.Flags().StringVarP(&viewMeasure, "measure", "m", "", "subject column or \""+dashboard.OverallLabel+"\"")
	}},
	{"subjects", "Average yearly marks per subject with trend labels", func(c *cobra.Command) {
		c.Flags().StringSliceVar(&viewMeasures, "measures", nil, "subject columns (comma-separated)")
		c.Flags().StringVarP(&viewMeasure, "measure", "m", "", "single subject column")
	}},
	{"gender", "Average yearly marks by gender", func(c *cobra.Command) {
		c.Flags().StringVarP(&viewMeasure, "measure", "m", "", "subject column or \""+dashboard.OverallLabel+"\"")
		c.Flags().StringVarP(&viewGender, "gender", "g", "", "gender value to plot")
		c.Flags().BoolVar(&viewCompare, "compare", false, "compare every gender in one chart")
	}},
	{"toppers", "Top student per year for a subject", func(c *cobra.Command) {
		c.Flags().StringVarP(&viewMeasure, "measure", "m", "", "subject column or \""+dashboard.OverallLabel+"\"")
		c.Flags().StringVarP(&viewStudent, "student", "s", "", "optional student to chart alongside")
	}},
	{"marks", "KPIs, subject averages and top students from a long marks table", func(c *cobra.Command) {
		addMarksFilterFlags(c)
		c.Flags().StringVarP(&viewStudent, "student", "s", "", "student for the marks-over-time chart")
	}},
}

func addMarksFilterFlags(c *cobra.Command) {
	c.Flags().StringVar(&viewClass, "class", "", "class filter (\""+dashboard.AllClasses+"\" or empty for every class)")
	c.Flags().StringSliceVar(&viewSubjects, "subjects", nil, "subject filter (comma-separated, default all)")
	c.Flags().Float64Var(&viewMin, "min", 0, "minimum marks (inclusive, default data minimum)")
	c.Flags().Float64Var(&viewMax, "max", 0, "maximum marks (inclusive, default data maximum)")
}

// selectionFromFlags builds the selection of a view command. Range bounds
// only apply when the flag was given.
func selectionFromFlags(cmd *cobra.Command) dashboard.Selection {
	sel := dashboard.Selection{
		Settings: settings(),
		Student:  viewStudent,
		Measure:  viewMeasure,
		Measures: viewMeasures,
		Gender:   viewGender,
		Compare:  viewCompare,
		Class:    viewClass,
		Subjects: viewSubjects,
	}
	if f := cmd.Flags().Lookup("min"); f != nil && f.Changed {
		v := viewMin
		sel.MinMarks = &v
	}
	if f := cmd.Flags().Lookup("max"); f != nil && f.Changed {
		v := viewMax
		sel.MaxMarks = &v
	}
	if f := cmd.Flags().Lookup("tolerance"); f != nil && f.Changed {
		v := viewTolerance
		sel.Tolerance = &v
	}
	return sel
}

func newViewCmd(spec viewSpec) *cobra.Command {
	c := &cobra.Command{
		Use:   spec.name + " [file|demo:name]",
		Short: spec.short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTable(cmd.Context(), args)
			if err != nil {
				return err
			}
			p, err := dashboard.Render(spec.name, t, selectionFromFlags(cmd))
			return emit(cmd, p, err)
		},
	}
	spec.flags(c)
	c.Flags().Float64Var(&viewTolerance, "tolerance", trend.DefaultTolerance, "trend slope threshold; 0 labels any non-zero slope (overrides config)")
	addInputFlags(c)
	addOutputFlags(c)
	return c
}

func addOutputFlags(c *cobra.Command) {
	c.Flags().BoolVar(&viewJSON, "json", false, "print the payload as JSON")
	c.Flags().StringVar(&viewChart, "chart", "", "write a chart as PNG to this path")
	c.Flags().IntVar(&viewChartIndex, "chart-index", 0, "which chart to write with --chart (0-based)")
}

// emit prints a view result. An empty selection is not a failure: its
// prompt is shown and the command succeeds.
func emit(cmd *cobra.Command, p *dashboard.Payload, err error) error {
	var empty *dashboard.EmptySelectionError
	if errors.As(err, &empty) {
		fmt.Fprintf(cmd.OutOrStdout(), "ℹ %s\n", empty.Prompt)
		return nil
	}
	if err != nil {
		return err
	}
	if viewJSON {
		b, err := utils.PrettyJSON(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	} else if err := render.Text(cmd.OutOrStdout(), p); err != nil {
		return err
	}
	if viewChart == "" {
		return nil
	}
	if viewChartIndex < 0 || viewChartIndex >= len(p.Charts) {
		return fmt.Errorf("--chart-index %d out of range (view has %d chart(s))", viewChartIndex, len(p.Charts))
	}
	var buf bytes.Buffer
	w, h := chartSize()
	if err := render.PNG(&buf, p.Charts[viewChartIndex], w, h); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(viewChart, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote chart to %s\n", viewChart)
	return nil
}

func init() {
	for _, spec := range viewSpecs {
		rootCmd.AddCommand(newViewCmd(spec))
	}
}
