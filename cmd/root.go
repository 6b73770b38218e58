package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabdash/internal/config"
	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/market"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgLoaded is false when cfg holds the zero-value fallback.
	cfgLoaded bool

	// resolver memoizes parsed files for the lifetime of the process.
	resolver = dataset.NewResolver("")
)

var rootCmd = &cobra.Command{
	Use:   "tabdash",
	Short: "tabdash: trend dashboards for student marks and NIFTY 50 stocks",
	Long: `tabdash loads a CSV or XLSX table, detects which columns are students, years
and subjects, and renders trend views as text, JSON or PNG charts. It can also
serve the same views over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c
	cfgLoaded = err == nil

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if cfg.DefaultDataset != "" {
		resolver.Default = cfg.DefaultDataset
	}
	debugf("config: %+v", *cfg)
}

func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, "DEBUG: "+format+"\n", args...)
	}
}

// settings maps configuration onto the dashboard tunables.
func settings() dashboard.Settings {
	s := dashboard.DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfgLoaded {
		tol := cfg.TrendTolerance
		s.Tolerance = &tol
	}
	if cfg.YPad > 0 {
		s.YPad = cfg.YPad
	}
	if cfg.OverallColumn != "" {
		s.OverallColumn = cfg.OverallColumn
	}
	return s
}

func marketClient() *market.Client {
	if cfg == nil {
		return market.NewClient(0, 0, 0, 0)
	}
	return market.NewClientWithBaseURL(
		time.Duration(cfg.HTTPTimeoutSec)*time.Second,
		cfg.RetryMaxAttempts,
		time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(cfg.RetryMaxDelayMs)*time.Millisecond,
		cfg.MarketBaseURL,
	)
}

func chartSize() (int, int) {
	if cfg == nil {
		return 0, 0
	}
	return cfg.ChartWidth, cfg.ChartHeight
}
