package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/table"
	"github.com/KaramelBytes/tabdash/internal/utils"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [file|demo:name]",
	Short: "Write the filtered rows as CSV or XLSX",
	Long: `Export applies the same filters as the views: --class, --subjects, --min and
--max for long marks tables; --student and --gender for wide tables. The output
format follows the extension of --output; without --output CSV goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd.Context(), args)
		if err != nil {
			return err
		}
		rows, err := dashboard.FilterRows(t, selectionFromFlags(cmd))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		switch strings.ToLower(filepath.Ext(exportOutput)) {
		case ".xlsx":
			err = dataset.WriteXLSX(&buf, rows, "")
		case "", ".csv", ".txt":
			err = table.WriteCSV(&buf, rows)
		default:
			return fmt.Errorf("unsupported output format %q (use .csv or .xlsx)", filepath.Ext(exportOutput))
		}
		if err != nil {
			return err
		}
		if exportOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(exportOutput, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d of %d rows to %s\n", rows.Len(), t.Len(), exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (.csv or .xlsx)")
	exportCmd.Flags().StringVarP(&viewStudent, "student", "s", "", "wide tables: keep one student")
	exportCmd.Flags().StringVarP(&viewGender, "gender", "g", "", "wide tables: keep one gender")
	addMarksFilterFlags(exportCmd)
	addInputFlags(exportCmd)
}
