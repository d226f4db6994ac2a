// Config loading for the courier CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/petar-djukic/courier/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFile     = "config.yaml"

	// envAppToken carries the Socrata application token. It lives in the
	// environment or a .env file, never in config.yaml.
	envAppToken = "NYC_OPEN_KEY"
)

// defaultConfigYAML is written to config.yaml on first run. Every value
// shown is the default; uncomment to override.
const defaultConfigYAML = `# Courier configuration
# The Socrata app token is read from the NYC_OPEN_KEY environment
# variable or a .env file next to this one, never from here.

# data_dir:

# upstream:
#   base_url: https://data.cityofnewyork.us
#   row_limit: 200000
#   cutoff_years: 2
#   timeout: 15s
#   retries: 2
#   retry_delay: 10s
#   sleep: 10s

# refresh:
#   update_interval: 336h

# server:
#   listen_addr: ":8080"
#   shutdown_timeout: 10s
`

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run. A missing config.yaml is not an error; the
// defaults apply. A .env file in configDir is loaded before the app token
// is read from the environment.
func loadConfig(configDir string) (types.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("creating config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, err
	}

	def := types.DefaultConfig()

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetDefault("data_dir", "")
	v.SetDefault("upstream.base_url", def.Upstream.BaseURL)
	v.SetDefault("upstream.row_limit", def.Upstream.RowLimit)
	v.SetDefault("upstream.cutoff_years", def.Upstream.CutoffYears)
	v.SetDefault("upstream.timeout", def.Upstream.Timeout)
	v.SetDefault("upstream.retries", def.Upstream.Retries)
	v.SetDefault("upstream.retry_delay", def.Upstream.RetryDelay)
	v.SetDefault("upstream.sleep", def.Upstream.Sleep)
	v.SetDefault("refresh.update_interval", def.Refresh.UpdateInterval)
	v.SetDefault("server.listen_addr", def.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := types.Config{
		DataDir: v.GetString("data_dir"),
		Upstream: types.UpstreamConfig{
			BaseURL:     v.GetString("upstream.base_url"),
			RowLimit:    v.GetInt("upstream.row_limit"),
			CutoffYears: v.GetInt("upstream.cutoff_years"),
			Timeout:     v.GetDuration("upstream.timeout"),
			Retries:     v.GetInt("upstream.retries"),
			RetryDelay:  v.GetDuration("upstream.retry_delay"),
			Sleep:       v.GetDuration("upstream.sleep"),
		},
		Refresh: types.RefreshConfig{
			UpdateInterval: v.GetDuration("refresh.update_interval"),
		},
		Server: types.ServerConfig{
			ListenAddr:      v.GetString("server.listen_addr"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
	}

	// .env is optional; a missing file is fine.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	cfg.Upstream.AppToken = os.Getenv(envAppToken)

	return cfg, nil
}

// ensureDefaultConfigFile writes the commented default config.yaml if none
// exists yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFile)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
