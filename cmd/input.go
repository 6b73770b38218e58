package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/table"
)

// demoScheme addresses a bundled dataset on the command line, e.g. demo:marks.
const demoScheme = "demo:"

var (
	inDelimiter string
	inDecimal   string
	inThousands string
	inSheet     string
	inMaxRows   int
	inFallback  bool
)

// addInputFlags registers the file parsing flags shared by every command
// that reads a table.
func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&inDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	c.Flags().StringVar(&inDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&inThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	c.Flags().StringVar(&inSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	c.Flags().IntVar(&inMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	c.Flags().BoolVar(&inFallback, "fallback-demo", false, "use the default demo dataset when the file cannot be read")
}

func readOptions() (dataset.Options, error) {
	var opt dataset.Options
	switch strings.ToLower(inDelimiter) {
	case "":
	case ",":
		opt.Read.Delimiter = ','
	case "\t", "tab":
		opt.Read.Delimiter = '\t'
	case ";":
		opt.Read.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", inDelimiter)
	}
	switch strings.ToLower(strings.TrimSpace(inDecimal)) {
	case ",", "comma":
		opt.Read.DecimalSeparator = ','
	case ".", "dot":
		opt.Read.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", inDecimal)
	}
	switch strings.ToLower(inThousands) {
	case ",":
		opt.Read.ThousandsSeparator = ','
	case ".":
		opt.Read.ThousandsSeparator = '.'
	case "space", " ":
		opt.Read.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", inThousands)
	}
	opt.Read.MaxRows = inMaxRows
	opt.Sheet = inSheet
	return opt, nil
}

// sourceFor turns a command argument into a dataset source. No argument
// selects the configured default demo.
func sourceFor(args []string) (dataset.Source, error) {
	if len(args) == 0 || args[0] == "" {
		return dataset.Source{}, nil
	}
	if name, ok := strings.CutPrefix(args[0], demoScheme); ok {
		return dataset.Source{Demo: name}, nil
	}
	opt, err := readOptions()
	if err != nil {
		return dataset.Source{}, err
	}
	return dataset.Source{Path: args[0], Options: opt}, nil
}

// loadTable resolves the table named by args. With --fallback-demo a load
// failure is reported as a warning and the default demo is used instead.
func loadTable(ctx context.Context, args []string) (*table.Table, error) {
	src, err := sourceFor(args)
	if err != nil {
		return nil, err
	}
	debugf("loading %s", src)
	if !inFallback {
		return resolver.Resolve(ctx, src)
	}
	t, err := resolver.ResolveOrDefault(ctx, src)
	var dle *dataset.DataLoadError
	if errors.As(err, &dle) && t != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using demo dataset %q\n", err, resolver.Default)
		return t, nil
	}
	return t, err
}
