// Refresh command: run the pipeline once and exit.
package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Build or refresh the local restaurant database",
	Long: `Refresh probes the local database file and acts on its staleness: a
missing file triggers a full build, a stale one an incremental refresh,
and a fresh one nothing at all.`,
	Args: cobra.NoArgs,
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

		return p.Run(ctx)
	},
}
