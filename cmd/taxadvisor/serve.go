package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rgehrsitz/taxadvisor/internal/api"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engines over HTTP",
		Long: `Serve the tax engines as a JSON API:

  GET  /healthz
  GET  /v1/tables
  GET  /v1/mutations
  POST /v1/tax/compute
  POST /v1/entities/compare
  POST /v1/projections
  POST /v1/recommendations
  POST /v1/scenarios`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			if port <= 0 {
				port = c.settings.Server.Port
			}
			opts := api.OptionsFromConfig(c.settings.Server)
			opts.Logger = zap.L()

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           api.NewRouter(svc, opts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				zap.L().Info("listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return eris.Wrap(err, "serve")
			case <-ctx.Done():
			}

			zap.L().Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "shutdown")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default: server.port setting)")
	return cmd
}
