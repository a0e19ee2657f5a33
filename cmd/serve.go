package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/srcsetter/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the srcset HTTP API",
		Long: `Starts an HTTP server that renders responsive image markup on request and
serves the resized files it produces.

Endpoints:
  POST /api/srcset        render markup for a JSON request
  POST /api/tag           render a plain tag or inline SVG
  GET  /api/media         inspect ?path=
  GET|PUT /api/metadata   stored title and description for ?path=
  GET  /api/breakpoints   the active theme's breakpoint catalog`,
		Example: `  # Start server on the configured port
  srcsetter serve

  # Start server on custom port without watching breakpoints.css
  srcsetter serve --port 3000 --watch=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if port == "" {
				port = a.cfg.Server.Port
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if watch {
				bpPath := a.site.BreakpointsPath()
				go func() {
					if err := a.catalog.Watch(ctx, bpPath, a.site.Path(bpPath)); err != nil {
						slog.Warn("Breakpoint watcher stopped", "err", err)
					}
				}()
			}

			handler := handlers.New(a.resolver, a.site, a.store, a.resizer.CacheDir)

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Srcsetter API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (defaults to server.port)")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload breakpoints when the stylesheet changes")

	return cmd
}
