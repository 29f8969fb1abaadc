package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/usecase"
)

// newServeCommand creates the serve command for the HTTP control surface.
func newServeCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Addr string
		Auto bool
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API",
		Long: `Serve the JSON control API, the SSE event stream and prometheus
metrics for GUI clients.

Endpoints:
  GET  /healthz        liveness check
  GET  /metrics        prometheus metrics
  GET  /api/events     SSE event stream
  /api/...             feature and auto-mode operations

With --auto the scheduler loop starts alongside the server, so one
process both serves the API and drains the backlog.

Examples:
  # Serve on the configured address
  gaffer serve

  # Serve and drain the backlog
  gaffer serve --auto

  # Serve on another port
  gaffer serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := opts.Addr
			if addr == "" {
				addr = c.Config.HTTP.ListenAddr()
			}

			if opts.Auto {
				uc := c.StartAutoUseCase()
				if _, err := uc.Execute(ctx, usecase.StartAutoInput{
					ProjectPath: c.Paths.ProjectRoot,
				}); err != nil {
					return err
				}
				defer func() {
					stopUC := c.StopAutoUseCase()
					_, _ = stopUC.Execute(context.Background(), usecase.StopAutoInput{})
				}()
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           c.HTTPServer().Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl-C to stop)\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default: http.addr config)")
	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "Also start the auto-mode loop")

	return cmd
}
