package types

import (
	"errors"
	"path/filepath"
	"time"
)

// File names inside the data directory. The database file's modification
// time doubles as the pipeline's staleness marker, so nothing else may
// touch it.
const (
	DatabaseFile   = "courier.sqlite"
	FastFoodFile   = "fastfood.csv"
	PopulationFile = "census_population.csv"
)

// Config validation errors.
var (
	ErrDataDirEmpty       = errors.New("data directory must not be empty")
	ErrListenAddrEmpty    = errors.New("listen address must not be empty")
	ErrBaseURLEmpty       = errors.New("upstream base URL must not be empty")
	ErrRowLimitInvalid    = errors.New("row limit must be positive")
	ErrCutoffInvalid      = errors.New("cutoff years must be positive")
	ErrTimeoutInvalid     = errors.New("request timeout must be positive")
	ErrRetriesInvalid     = errors.New("retries must not be negative")
	ErrIntervalInvalid    = errors.New("update interval must be positive")
)

// UpstreamConfig holds parameters for the Socrata open-data API.
type UpstreamConfig struct {
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	AppToken    string        `json:"-" yaml:"-"` // from NYC_OPEN_KEY, never serialized
	RowLimit    int           `json:"row_limit" yaml:"row_limit"`
	CutoffYears int           `json:"cutoff_years" yaml:"cutoff_years"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Retries     int           `json:"retries" yaml:"retries"`
	RetryDelay  time.Duration `json:"retry_delay" yaml:"retry_delay"`
	Sleep       time.Duration `json:"sleep" yaml:"sleep"`
}

// RefreshConfig controls the staleness decision at pipeline construction.
type RefreshConfig struct {
	UpdateInterval time.Duration `json:"update_interval" yaml:"update_interval"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	ListenAddr      string        `json:"listen_addr" yaml:"listen_addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Config is the full runtime configuration, loaded from config.yaml and
// the environment by cmd/courier and validated before anything opens the
// database or touches the network.
type Config struct {
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	Upstream UpstreamConfig `json:"upstream" yaml:"upstream"`
	Refresh  RefreshConfig  `json:"refresh" yaml:"refresh"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// DefaultConfig returns a Config with the stock NYC Open Data settings.
// The app token is left empty; Socrata serves unauthenticated requests at
// a lower rate limit.
func DefaultConfig() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL:     "https://data.cityofnewyork.us",
			RowLimit:    200000,
			CutoffYears: 2,
			Timeout:     15 * time.Second,
			Retries:     2,
			RetryDelay:  10 * time.Second,
			Sleep:       10 * time.Second,
		},
		Refresh: RefreshConfig{
			UpdateInterval: 14 * 24 * time.Hour,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on the first failure found.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.Server.ListenAddr == "" {
		return ErrListenAddrEmpty
	}
	if c.Upstream.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	if c.Upstream.RowLimit <= 0 {
		return ErrRowLimitInvalid
	}
	if c.Upstream.CutoffYears <= 0 {
		return ErrCutoffInvalid
	}
	if c.Upstream.Timeout <= 0 {
		return ErrTimeoutInvalid
	}
	if c.Upstream.Retries < 0 {
		return ErrRetriesInvalid
	}
	if c.Refresh.UpdateInterval <= 0 {
		return ErrIntervalInvalid
	}
	return nil
}

// DatabasePath returns the location of the SQLite file.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFile)
}

// FastFoodPath returns the location of the cached fast-food name list.
func (c Config) FastFoodPath() string {
	return filepath.Join(c.DataDir, FastFoodFile)
}

// PopulationPath returns the location of the borough population CSV.
func (c Config) PopulationPath() string {
	return filepath.Join(c.DataDir, PopulationFile)
}
