package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabdash/internal/market"
	"github.com/KaramelBytes/tabdash/internal/server"
)

var (
	serveAddr    string
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboards over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := server.Options{Addr: ":8080", Settings: settings()}
		if cfg != nil {
			if cfg.ServerAddr != "" {
				opt.Addr = cfg.ServerAddr
			}
			opt.CORSOrigins = cfg.CORSOrigins
			opt.MaxUploadMB = cfg.MaxUploadMB
			opt.ChartWidth, opt.ChartHeight = chartSize()
		}
		if cmd.Flags().Changed("addr") {
			opt.Addr = serveAddr
		}
		var prices server.PriceSource
		if !serveOffline {
			prices = market.NewCache(marketClient(), market.DefaultCacheSize)
		}
		srv := server.NewServer(opt, resolver, prices)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides config server_addr)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "disable the stock endpoints")
}
