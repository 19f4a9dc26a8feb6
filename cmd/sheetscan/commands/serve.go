package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheetscan/sheetscan/internal/dispatch"
	"github.com/sheetscan/sheetscan/internal/intake"
	"github.com/sheetscan/sheetscan/internal/raster"
	"github.com/sheetscan/sheetscan/internal/recognize"
	"github.com/sheetscan/sheetscan/internal/records"
	"github.com/sheetscan/sheetscan/internal/scan"
	"github.com/sheetscan/sheetscan/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Run the HTTP scanning service",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := recognize.NewGateway(ctx, cfg.Recognition.APIKey, cfg.Recognition.Model, cfg.Recognition.CallTimeout, logger)
	if err != nil {
		return err
	}
	defer gateway.Close()

	store := records.NewStore()
	assembler := records.NewAssembler(store)
	dispatcher := dispatch.NewDispatcher(gateway, assembler, logger, dispatch.Options{
		Workers: cfg.Dispatch.Workers,
	})
	builder := intake.NewBuilder(raster.NewRasterizer(), logger)
	service := scan.NewService(builder, dispatcher, logger)

	srv := server.NewServer(logger, store, service, cfg.Server.RequestTimeout)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}
