package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/analysis"
	"github.com/KaramelBytes/tabdash/internal/utils"
)

var (
	sumOutputPath string
	sumSampleRows int
	sumGroupBy    string
	sumCorr       bool
	sumOutliers   bool
	sumOutlierThr float64
)

var summaryCmd = &cobra.Command{
	Use:   "summary [file|demo:name]",
	Short: "Summarize a CSV/TSV/XLSX table as Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd.Context(), args)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if sumSampleRows > 0 {
			opt.SampleRows = sumSampleRows
		}
		opt.GroupBy = sumGroupBy
		opt.Correlations = sumCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = sumOutliers
		}
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}
		rep, err := analysis.Summarize(t, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if sumOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.SafeWriteFile(sumOutputPath, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	summaryCmd.Flags().IntVar(&sumSampleRows, "sample-rows", 5, "number of sample rows to include")
	summaryCmd.Flags().StringVar(&sumGroupBy, "group-by", "", "column to group measures by")
	summaryCmd.Flags().BoolVar(&sumCorr, "correlations", false, "compute Pearson correlations among measures")
	summaryCmd.Flags().BoolVar(&sumOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	addInputFlags(summaryCmd)
}
