package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/flashcarder/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web front-end",
		Long: `Starts the Flashcarder web interface.

Each browser tab gets its own session: paste or type notes, attach
images, submit them to the extraction service and review the pairs
before they are added to the deck.`,
		Example: `  # Start server on the default port
  flashcarder serve

  # Start server on a custom port against a remote backend
  flashcarder serve --port 3000 --api-url http://anki-host:2341`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Port
			}
			if cmd.Flags().Changed("allowed-origin") {
				cfg.AllowedOrigins = origins
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			handler := handlers.New(cfg.Backend(slog.Default()), handlers.Defaults{
				Deck: cfg.Deck,
				Mode: cfg.ModeValue(),
			})
			defer handler.Close()

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Router(cfg.AllowedOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Flashcarder interface available", "addr", addr, "url", "http://localhost"+addr, "backend", cfg.APIURL)
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (env FLASHCARDER_PORT, default 2342)")
	cmd.Flags().StringSliceVar(&origins, "allowed-origin", nil, "CORS origin allowed to call the API (repeatable, env FLASHCARDER_ALLOWED_ORIGINS)")

	return cmd
}
