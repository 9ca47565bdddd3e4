package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storyboard/internal/config"
	"github.com/lehigh-university-libraries/storyboard/internal/handlers"
	"github.com/lehigh-university-libraries/storyboard/internal/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the storyboard interface",
		Long: `Starts the Storyboard web interface on the specified port.

The web interface lets you pick or drag in up to --max-images images and
shows them as a grid storyboard once every image has been decoded.`,
		Example: `  # Start server on default port 8888
  storyboard serve

  # Start server on custom port with a larger cap
  storyboard serve --port 3000 --max-images 6

  # Same settings from the environment
  STORYBOARD_PORT=3000 STORYBOARD_MAX_IMAGES=6 storyboard serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			handler := handlers.New(cfg)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go pruneSessions(cmd.Context(), handler.Sessions(), cfg.SessionTTL)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Storyboard interface available", "addr", addr, "url", "http://localhost"+addr, "max_images", cfg.MaxImages)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringP("port", "p", config.Default().Port, "Port to listen on")
	cmd.Flags().Duration("session-ttl", config.Default().SessionTTL, "Discard sessions idle for longer than this")

	return cmd
}

func pruneSessions(ctx context.Context, store *storage.SessionStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := store.Prune(now, ttl); removed > 0 {
				slog.Info("Pruned idle sessions", "removed", removed, "remaining", store.Len())
			}
		}
	}
}
