package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/auth"
	"github.com/ebogdum/jfsio/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, metrics and a read-only browse API",
	Long: `Serve /health and /metrics, plus the authenticated /v1 browse routes
when server.api_keys is set.`,
	Args: cobra.NoArgs,
	RunE: withVolume(runServe),
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides server.listen_addr)")
}

// runServe starts the HTTP server and blocks until SIGINT or SIGTERM.
func runServe(v *volume, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := v.cfg.Server
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	logger := v.logger

	var authenticator auth.Authenticator
	if len(cfg.APIKeys) > 0 {
		a := auth.NewAPIKeyAuthenticator(cfg.APIKeys)
		logger.Info("Browse API enabled", zap.Int("api_keys", a.Len()))
		authenticator = a
	}

	srv := server.NewHTTPServer(server.NewRouter(v.Session, cfg, authenticator, logger), cfg)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.ListenAddr),
			zap.String("volume", v.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Failed to start server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}
