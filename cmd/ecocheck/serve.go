package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/EcoCheck/internal/api"
	"github.com/IshaanNene/EcoCheck/internal/dashboard"
)

var servePort int

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Long:  "Serve checks, stored key management and the last analysis over HTTP until interrupted.",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page fetcher: http, browser")
	cmd.Flags().BoolVar(&waitForPage, "wait", false, "watch rendered pages until product content appears (browser fetcher)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.API.Port
	if servePort > 0 {
		port = servePort
	}

	ctx, stop := signalContext(a.logger)
	defer stop()

	// Stale per-page entries from older installs are swept once at start.
	if n, err := a.store.ClearOldAnalyses(ctx); err != nil {
		a.logger.Warn("clearing old analyses failed", "error", err)
	} else if n > 0 {
		a.logger.Info("cleared old analyses", "removed", n)
	}

	if a.cfg.Metrics.Enabled {
		if err := a.metrics.StartServer(a.cfg.Metrics.Port, a.cfg.Metrics.Path); err != nil {
			a.logger.Warn("failed to start metrics server", "error", err)
		}
	}

	srv := api.NewServer(port, a.checker, a.store, a.logger,
		api.WithMetricsHandler(a.metrics),
		api.WithMount(dashboard.New(a.metrics, a.logger)),
	)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🌿 EcoCheck API listening on :%d\n", port)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("API server stopped")
	return nil
}
