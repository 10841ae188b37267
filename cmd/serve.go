package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lehigh-university-libraries/bibresolve/internal/extract"
	"github.com/lehigh-university-libraries/bibresolve/internal/handlers"
	"github.com/lehigh-university-libraries/bibresolve/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		port     string
		history  int
		withText bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the resolution HTTP API",
		Long: `Starts the bibresolve HTTP API on the specified port.

Endpoints:
  GET    /api/resolve?isbn=...             resolve by ISBN (add &mode=parallel)
  GET    /api/resolve?title=...&author=... resolve by title and author
  POST   /api/resolve/text                 resolve from free text (--text)
  GET    /api/resolutions                  recent resolutions, newest first
  GET    /api/resolutions/{id}             one recent resolution
  DELETE /api/resolutions/{id}             forget one resolution
  GET    /healthcheck
  GET    /metrics                          Prometheus metrics`,
		Example: `  # Start server on default port 8888
  bibresolve serve

  # Custom port with the free text endpoint enabled
  bibresolve serve --port 3000 --text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			composer, cfg, err := opts.newComposer(reg)
			if err != nil {
				return err
			}

			var extractor handlers.Extractor
			if withText {
				e, err := extract.NewFromName(cfg.ExtractProvider, cfg.ExtractModel)
				if err != nil {
					return err
				}
				extractor = e
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.RealIP)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			handlers.New(composer, extractor, storage.New(history)).Register(r)
			r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("bibresolve API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
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

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().IntVar(&history, "history", storage.DefaultCapacity, "Resolutions kept for /api/resolutions")
	cmd.Flags().BoolVar(&withText, "text", false, "Enable POST /api/resolve/text (needs an LLM provider)")

	return cmd
}
