// Serve command: refresh the database, then serve the aggregation API.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/courier/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh the database and serve the aggregation API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(cfg, log)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.Run(ctx); err != nil {
			return err
		}

		srv := server.New(cfg.Server.ListenAddr, p.Store(), log)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	},
}
