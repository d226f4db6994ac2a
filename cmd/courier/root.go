// Root command and shared runtime assembly for the courier CLI.
package main

import (
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/petar-djukic/courier/internal/census"
	"github.com/petar-djukic/courier/internal/logger"
	"github.com/petar-djukic/courier/internal/paths"
	"github.com/petar-djukic/courier/internal/pipeline"
	"github.com/petar-djukic/courier/internal/soda"
	"github.com/petar-djukic/courier/pkg/types"
)

var (
	// Persistent flags.
	flagConfigDir string
	flagDataDir   string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier keeps a local restaurant database in sync with NYC Open Data",
	Long: `Courier extracts NYC restaurant inspection data from the Socrata open-data
API, normalizes it into a local SQLite database, keeps that database fresh
with incremental refreshes, and serves aggregations over HTTP.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: platform data dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup resolves directories, loads configuration, and builds the logger.
// Every data-touching command starts here.
func setup() (types.Config, *slog.Logger, error) {
	log := logger.New(flagVerbose)

	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return types.Config{}, nil, fmt.Errorf("resolving config dir: %w", err)
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, nil, err
	}

	dataDir, err := paths.ResolveDataDir(flagDataDir, cfg.DataDir)
	if err != nil {
		return types.Config{}, nil, fmt.Errorf("resolving data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return types.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Debug("configuration loaded", "config_dir", configDir, "data_dir", cfg.DataDir)
	return cfg, log, nil
}

// buildPipeline assembles the extractor, population source, and pipeline
// around the configured data directory.
func buildPipeline(cfg types.Config, log *slog.Logger) (*pipeline.Pipeline, error) {
	clock := clockwork.NewRealClock()
	extractor := soda.New(cfg.Upstream, cfg.FastFoodPath(), clock, log)
	populations := func() (map[string]int64, error) {
		return census.Load(cfg.PopulationPath())
	}
	return pipeline.New(cfg.DatabasePath(), extractor, populations,
		cfg.Upstream, cfg.Refresh, clock, log)
}
