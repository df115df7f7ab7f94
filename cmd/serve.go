package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/config"
	"github.com/lehigh-university-libraries/image-analyzer/internal/handlers"
	"github.com/lehigh-university-libraries/image-analyzer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the image analysis web service",
		Long: `Starts the Image Analyzer HTTP API.

Each session holds one image, the providers toggled on and the output fields
selected. Once all three are set the session can be analyzed.`,
		Example: `  # Start server on default port 8888
  image-analyzer serve

  # Start server on custom port
  image-analyzer serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, err := newOrchestrator()
			if err != nil {
				return err
			}
			store, err := openCredentials()
			if err != nil {
				return err
			}
			metrics.Register()

			handler := handlers.New(orchestrator, store, config.GetUploadLimit(), config.GetApp(version))

			mux := handler.Routes()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + config.GetPort()
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Image analyzer available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"configured", store.Providers(),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give in-flight analyses a chance to finish
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

	cmd.Flags().StringP("port", "p", "8888", "Port to listen on")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}
