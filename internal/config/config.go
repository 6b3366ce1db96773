// Package config holds the configuration types and loading logic for the
// rollcore server binary. Library packages never read config themselves; the
// server loads one Config and passes values down explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a rollcore server instance.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Blob    BlobConfig    `yaml:"blob"`
	Reports ReportsConfig `yaml:"reports"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr                 string `yaml:"addr"`
	ShutdownGraceSeconds int    `yaml:"shutdown_grace_seconds"`
}

// StorageConfig selects the persistence backend for rolls and catalogs.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite", "postgres".
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig selects where report export artifacts are stored.
type BlobConfig struct {
	// Driver is one of "fs", "s3", "memory".
	Driver string   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds bucket settings for the s3 blob driver. Credentials are
// never written to the config file; they come from the AWS environment or
// the default credentials chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// ReportsConfig bounds the stats export worker.
type ReportsConfig struct {
	QueueSize    int `yaml:"queue_size"`
	HistoryLimit int `yaml:"history_limit"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns a Config populated with safe, sensible defaults. It is the
// canonical source of truth for default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                 ":8080",
			ShutdownGraceSeconds: 10,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "./rollcore.db",
		},
		Blob: BlobConfig{
			Driver: "fs",
			FSRoot: "./artifacts",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Reports: ReportsConfig{
			QueueSize:    32,
			HistoryLimit: 100,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "rollcore",
		},
	}
}

// Load reads a YAML config file at path and overlays it on top of Default().
// If the file does not exist the default config is returned without error, so
// the server runs with no config file at all.
//
// After loading the file, environment variables are applied as overrides.
// The names match what the storage and blob factories already read, so a
// container environment keeps working unchanged:
//
//	ROLLCORE_ADDR               — server.addr
//	ROLLCORE_STORAGE_DRIVER     — storage.driver
//	ROLLCORE_SQLITE_PATH        — storage.sqlite_path
//	ROLLCORE_POSTGRES_DSN       — storage.postgres_dsn
//	ROLLCORE_BLOB_DRIVER        — blob.driver
//	ROLLCORE_BLOB_FS_ROOT       — blob.fs_root
//	ROLLCORE_BLOB_S3_BUCKET     — blob.s3.bucket
//	ROLLCORE_BLOB_S3_REGION     — blob.s3.region
//	ROLLCORE_BLOB_S3_ENDPOINT   — blob.s3.endpoint
//	ROLLCORE_BLOB_S3_PATH_STYLE — blob.s3.path_style ("true" enables)
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays environment variable overrides onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ROLLCORE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ROLLCORE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("ROLLCORE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("ROLLCORE_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("ROLLCORE_BLOB_DRIVER"); v != "" {
		cfg.Blob.Driver = v
	}
	if v := os.Getenv("ROLLCORE_BLOB_FS_ROOT"); v != "" {
		cfg.Blob.FSRoot = v
	}
	if v := os.Getenv("ROLLCORE_BLOB_S3_BUCKET"); v != "" {
		cfg.Blob.S3.Bucket = v
	}
	if v := os.Getenv("ROLLCORE_BLOB_S3_REGION"); v != "" {
		cfg.Blob.S3.Region = v
	}
	if v := os.Getenv("ROLLCORE_BLOB_S3_ENDPOINT"); v != "" {
		cfg.Blob.S3.Endpoint = v
	}
	if v := os.Getenv("ROLLCORE_BLOB_S3_PATH_STYLE"); v != "" {
		cfg.Blob.S3.PathStyle = strings.EqualFold(v, "true")
	}
}

// Validate checks that the config values are consistent and within acceptable
// ranges. It returns the first error found.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Server.ShutdownGraceSeconds < 1 {
		return errors.New("server.shutdown_grace_seconds must be at least 1")
	}
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
		// valid
	default:
		return errors.New(`storage.driver must be one of "memory", "sqlite", "postgres"`)
	}
	if c.Storage.Driver == "postgres" && c.Storage.PostgresDSN == "" {
		return errors.New("storage.postgres_dsn is required when storage.driver is postgres")
	}
	switch c.Blob.Driver {
	case "fs", "s3", "memory":
		// valid
	default:
		return errors.New(`blob.driver must be one of "fs", "s3", "memory"`)
	}
	if c.Blob.Driver == "fs" && c.Blob.FSRoot == "" {
		return errors.New("blob.fs_root must not be empty when blob.driver is fs")
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return errors.New("blob.s3.bucket is required when blob.driver is s3")
	}
	if c.Reports.QueueSize < 1 {
		return errors.New("reports.queue_size must be at least 1")
	}
	if c.Reports.HistoryLimit < 1 {
		return errors.New("reports.history_limit must be at least 1")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return errors.New("metrics.namespace must not be empty when metrics.enabled is true")
	}
	return nil
}
