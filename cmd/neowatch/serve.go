package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/neo-approach-service/internal/adapter/http"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Scan on an interval and serve the latest report over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	metrics := observability.NewMetrics()
	c := buildComponents(metrics, cfg.RankLimit, cfg.KafkaEnabled)

	srv := httpadapter.NewServer(cfg.HTTPAddr, c.scanner, c.scanner, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scanner.
	scannerDone := make(chan struct{})
	go func() {
		defer close(scannerDone)
		if err := c.scanner.Run(ctx); err != nil {
			logger.Error("scanner error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	shutdown(shutdownCtx, srv, scannerDone, c.close)

	logger.Info("shutdown complete")
	return nil
}

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown drains the HTTP server, then waits for the scanner to return
// before closeSinks runs, so an in-flight publish never meets a closed
// writer. If ctx expires first the sinks are closed anyway.
func shutdown(ctx context.Context, srv httpShutdowner, scannerDone <-chan struct{}, closeSinks func()) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-scannerDone:
	case <-ctx.Done():
		logger.Warn("scanner did not stop before shutdown timeout", "error", ctx.Err())
	}
	closeSinks()
}
