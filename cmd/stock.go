package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/market"
	"github.com/KaramelBytes/tabdash/internal/table"
	"github.com/KaramelBytes/tabdash/internal/utils"
)

var (
	stkMAWindows []int
	stkVolWindow int
	stkCharts    []string
	stkCSV       string
	stkList      bool
	stkAnySymbol bool
)

var stockCmd = &cobra.Command{
	Use:   "stock <symbol>",
	Short: "Price, drawdown and volatility of a NIFTY 50 stock over 2023",
	Args: func(cmd *cobra.Command, args []string) error {
		if stkList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if stkList {
			fmt.Fprintf(out, "Index: %s\n", market.IndexSymbol)
			for _, s := range market.Nifty50 {
				fmt.Fprintln(out, s)
			}
			return nil
		}
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		if !stkAnySymbol && !market.InUniverse(symbol) {
			return fmt.Errorf("%s is not in the NIFTY 50 universe (see --list, or pass --any)", symbol)
		}
		client := marketClient()
		prices, err := client.FetchDaily(cmd.Context(), symbol, market.Start, market.EndExclusive)
		if err != nil {
			return err
		}
		var index *table.Table
		if symbol != market.IndexSymbol {
			index, err = client.FetchDaily(cmd.Context(), market.IndexSymbol, market.Start, market.EndExclusive)
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: index unavailable, comparison skipped: %v\n", err)
				index = nil
			}
		}
		sel := dashboard.Selection{Settings: settings(), MAWindows: stkMAWindows, VolWindow: stkVolWindow, StockCharts: stkCharts}
		if stkCSV != "" {
			d, err := dashboard.EnrichStock(prices, index, sel)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := table.WriteCSV(&buf, d); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(stkCSV, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote %d rows to %s\n", d.Len(), stkCSV)
		}
		p, err := dashboard.Stock(prices, index, sel)
		return emit(cmd, p, err)
	},
}

func init() {
	rootCmd.AddCommand(stockCmd)
	stockCmd.Flags().IntSliceVar(&stkMAWindows, "ma", nil, "moving average windows in days (default 20,50)")
	stockCmd.Flags().IntVar(&stkVolWindow, "vol", 0, "rolling volatility window in days (default 20)")
	stockCmd.Flags().StringSliceVar(&stkCharts, "charts", nil, "charts: price, drawdown, volatility, excess, normalized (default price,drawdown,volatility)")
	stockCmd.Flags().StringVar(&stkCSV, "csv", "", "write the enriched daily data as CSV")
	stockCmd.Flags().BoolVar(&stkList, "list", false, "list the selectable symbols")
	stockCmd.Flags().BoolVar(&stkAnySymbol, "any", false, "allow symbols outside the NIFTY 50 list")
	addOutputFlags(stockCmd)
}
