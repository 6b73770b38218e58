package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [file|demo:name]",
	Short: "Show detected column roles and kinds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd.Context(), args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Dataset: %s (%d rows, %d columns)\n", t.Name, t.Len(), t.Width())
		if long, err := schema.DetectLong(t); err == nil {
			fmt.Fprintln(out, "Layout: long (one row per mark)")
			for _, c := range t.Columns() {
				if canon, ok := long[c]; ok {
					fmt.Fprintf(out, "  %-20s -> %s\n", c, canon)
				}
			}
			return nil
		}
		roles := schema.Classify(t, schema.DefaultRules, schema.DefaultReserved)
		fmt.Fprintln(out, "Layout: wide (one row per student and year)")
		fmt.Fprintf(out, "Identifier: %s\n", orDash(roles.Identifier))
		fmt.Fprintf(out, "Year: %s\n", orDash(roles.Year))
		fmt.Fprintf(out, "Gender: %s\n", orDash(roles.Gender))
		fmt.Fprintf(out, "Measures: %s\n", orDash(strings.Join(roles.Measures, ", ")))
		fmt.Fprintln(out, "Columns:")
		for _, c := range t.Columns() {
			fmt.Fprintf(out, "  %-20s %-8s %s\n", c, t.Kind(c), roles.Of(c))
		}
		var se *schema.SchemaError
		if err := roles.Require(schema.SlotIdentifier, schema.SlotYear); errors.As(err, &se) {
			fmt.Fprintf(out, "⚠ Warning: %v\n", se)
		}
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	addInputFlags(schemaCmd)
}
