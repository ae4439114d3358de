// Package config provides unified configuration for the reloader service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents the service mode to run.
type Mode string

const (
	// ModeOnce runs a single reconciliation pass and exits
	ModeOnce Mode = "once"

	// ModeDaemon runs the periodic reconciliation loop
	ModeDaemon Mode = "daemon"

	// ModeServe runs the daemon plus the HTTP trigger/metrics endpoints
	ModeServe Mode = "serve"
)

// Config holds the unified configuration for the reloader service.
type Config struct {
	// Mode specifies how to run: once, daemon, serve
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for local backend data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Catalog configuration
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// ObjectStore configuration
	ObjectStore ObjectStoreConfig `json:"object_store" yaml:"object_store"`

	// Reconcile configuration
	Reconcile ReconcileConfig `json:"reconcile" yaml:"reconcile"`

	// Notify configuration
	Notify NotifyConfig `json:"notify" yaml:"notify"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`
}

// CatalogConfig holds catalog/query service configuration.
type CatalogConfig struct {
	// Backend is the catalog backend: athena, local
	Backend string `json:"backend" yaml:"backend"`

	// Database is the catalog database the table lives in
	Database string `json:"database" yaml:"database"`

	// Table is the partitioned table to reconcile
	Table string `json:"table" yaml:"table"`

	// Workgroup is the query workgroup to submit under (athena backend)
	Workgroup string `json:"workgroup" yaml:"workgroup"`

	// OutputLocation is where the query service writes result objects
	OutputLocation string `json:"output_location" yaml:"output_location"`

	// BaseLocation is the table's base data location; derived from the
	// object store settings when empty
	BaseLocation string `json:"base_location" yaml:"base_location"`

	// LocalPath is the local catalog database path (local backend)
	LocalPath string `json:"local_path" yaml:"local_path"`
}

// ObjectStoreConfig holds object store configuration.
type ObjectStoreConfig struct {
	// Backend is the object store backend: s3, local
	Backend string `json:"backend" yaml:"backend"`

	// Bucket is the log bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// AccountID is the account segment of the log path layout
	AccountID string `json:"account_id" yaml:"account_id"`

	// LogPrefix is the first segment of the log path layout
	LogPrefix string `json:"log_prefix" yaml:"log_prefix"`

	// Region is the client region (s3 backend)
	Region string `json:"region" yaml:"region"`

	// Endpoint is the endpoint override (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle forces path-style addressing (for S3-compatible storage)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`

	// LocalPath is the local layout root (local backend)
	LocalPath string `json:"local_path" yaml:"local_path"`
}

// ReconcileConfig holds reconciliation pass configuration.
type ReconcileConfig struct {
	// Interval is the daemon tick interval between passes
	Interval time.Duration `json:"interval" yaml:"interval"`

	// PollInterval is the delay between execution status checks
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// QueryDeadline bounds how long one execution may be polled
	QueryDeadline time.Duration `json:"query_deadline" yaml:"query_deadline"`

	// RegionConcurrency bounds the per-region fan-out of one pass
	RegionConcurrency int `json:"region_concurrency" yaml:"region_concurrency"`

	// RetentionDays overrides the bucket lifecycle policy when > 0
	RetentionDays int `json:"retention_days" yaml:"retention_days"`

	// CheckExistence short-circuits adds through a catalog scan index
	CheckExistence bool `json:"check_existence" yaml:"check_existence"`
}

// NotifyConfig holds object-created notification configuration.
type NotifyConfig struct {
	// QueueURL is the notification queue; empty disables the receiver
	QueueURL string `json:"queue_url" yaml:"queue_url"`

	// WaitSeconds is the long-poll receive wait time
	WaitSeconds int `json:"wait_seconds" yaml:"wait_seconds"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP server address
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeOnce,
		DataDir: "./data/reloader",
		Catalog: CatalogConfig{
			Backend:        "local",
			Database:       "default",
			Table:          "cloudtrail_logs",
			OutputLocation: "",
			LocalPath:      "",
		},
		ObjectStore: ObjectStoreConfig{
			Backend:   "local",
			LogPrefix: "AWSLogs",
			LocalPath: "",
		},
		Reconcile: ReconcileConfig{
			Interval:          time.Hour,
			PollInterval:      250 * time.Millisecond,
			QueryDeadline:     5 * time.Minute,
			RegionConcurrency: 4,
			RetentionDays:     0,
			CheckExistence:    false,
		},
		Notify: NotifyConfig{
			QueueURL:    "",
			WaitSeconds: 20,
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Resolve resolves relative paths and derived values based on DataDir and
// the object store settings.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/reloader"
	}

	// Resolve local backend paths
	if c.Catalog.LocalPath == "" {
		c.Catalog.LocalPath = filepath.Join(c.DataDir, "catalog.db")
	}
	if c.ObjectStore.LocalPath == "" {
		c.ObjectStore.LocalPath = filepath.Join(c.DataDir, "objects")
	}
	if c.Catalog.OutputLocation == "" && c.Catalog.Backend == "local" {
		c.Catalog.OutputLocation = filepath.Join(c.DataDir, "results")
	}

	// Derive the table base location from the log path layout
	if c.Catalog.BaseLocation == "" && c.ObjectStore.Bucket != "" {
		c.Catalog.BaseLocation = fmt.Sprintf("s3://%s/%s/%s/CloudTrail",
			c.ObjectStore.Bucket, c.ObjectStore.LogPrefix, c.ObjectStore.AccountID)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeOnce, ModeDaemon, ModeServe:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be once, daemon, or serve)", c.Mode)
	}

	if c.Catalog.Backend != "local" && c.Catalog.Backend != "athena" {
		return fmt.Errorf("invalid catalog backend: %s (must be local or athena)", c.Catalog.Backend)
	}
	if c.Catalog.Database == "" {
		return fmt.Errorf("catalog.database is required")
	}
	if c.Catalog.Table == "" {
		return fmt.Errorf("catalog.table is required")
	}
	if c.Catalog.Backend == "athena" && c.Catalog.OutputLocation == "" {
		return fmt.Errorf("catalog.output_location is required when catalog backend is athena")
	}

	if c.ObjectStore.Backend != "local" && c.ObjectStore.Backend != "s3" {
		return fmt.Errorf("invalid object store backend: %s (must be local or s3)", c.ObjectStore.Backend)
	}
	if c.ObjectStore.Backend == "s3" {
		if c.ObjectStore.Bucket == "" {
			return fmt.Errorf("object_store.bucket is required when backend is s3")
		}
		if c.ObjectStore.AccountID == "" {
			return fmt.Errorf("object_store.account_id is required when backend is s3")
		}
	}

	if c.Reconcile.PollInterval <= 0 {
		return fmt.Errorf("reconcile.poll_interval must be positive, got %s", c.Reconcile.PollInterval)
	}
	if c.Reconcile.QueryDeadline <= c.Reconcile.PollInterval {
		return fmt.Errorf("reconcile.query_deadline must exceed the poll interval, got %s", c.Reconcile.QueryDeadline)
	}
	if c.Reconcile.RegionConcurrency < 1 {
		return fmt.Errorf("reconcile.region_concurrency must be at least 1, got %d", c.Reconcile.RegionConcurrency)
	}
	if c.Reconcile.RetentionDays < 0 {
		return fmt.Errorf("reconcile.retention_days must not be negative, got %d", c.Reconcile.RetentionDays)
	}

	return nil
}

// ShouldRunDaemon returns true if the periodic reconcile loop should run.
func (c *Config) ShouldRunDaemon() bool {
	return c.Mode == ModeDaemon || c.Mode == ModeServe
}

// ShouldServeHTTP returns true if the HTTP endpoints should be served.
func (c *Config) ShouldServeHTTP() bool {
	return c.Mode == ModeServe
}

// ShouldRunNotifier returns true if the notification receiver should run.
func (c *Config) ShouldRunNotifier() bool {
	return c.Notify.QueueURL != "" && c.Mode != ModeOnce
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the RELOADER_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("RELOADER_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("RELOADER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Catalog configuration
	if v := os.Getenv("RELOADER_CATALOG_BACKEND"); v != "" {
		cfg.Catalog.Backend = v
	}
	if v := os.Getenv("RELOADER_CATALOG_DATABASE"); v != "" {
		cfg.Catalog.Database = v
	}
	if v := os.Getenv("RELOADER_CATALOG_TABLE"); v != "" {
		cfg.Catalog.Table = v
	}
	if v := os.Getenv("RELOADER_CATALOG_WORKGROUP"); v != "" {
		cfg.Catalog.Workgroup = v
	}
	if v := os.Getenv("RELOADER_CATALOG_OUTPUT_LOCATION"); v != "" {
		cfg.Catalog.OutputLocation = v
	}
	if v := os.Getenv("RELOADER_CATALOG_BASE_LOCATION"); v != "" {
		cfg.Catalog.BaseLocation = v
	}

	// Object store configuration
	if v := os.Getenv("RELOADER_OBJECT_STORE_BACKEND"); v != "" {
		cfg.ObjectStore.Backend = v
	}
	if v := os.Getenv("RELOADER_BUCKET"); v != "" {
		cfg.ObjectStore.Bucket = v
	}
	if v := os.Getenv("RELOADER_ACCOUNT_ID"); v != "" {
		cfg.ObjectStore.AccountID = v
	}
	if v := os.Getenv("RELOADER_LOG_PREFIX"); v != "" {
		cfg.ObjectStore.LogPrefix = v
	}
	if v := os.Getenv("RELOADER_S3_REGION"); v != "" {
		cfg.ObjectStore.Region = v
	}
	if v := os.Getenv("RELOADER_S3_ENDPOINT"); v != "" {
		cfg.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("RELOADER_S3_PATH_STYLE"); v != "" {
		cfg.ObjectStore.UsePathStyle = v == "true" || v == "1"
	}

	// Reconcile configuration
	if v := os.Getenv("RELOADER_RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reconcile.Interval = d
		}
	}
	if v := os.Getenv("RELOADER_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reconcile.PollInterval = d
		}
	}
	if v := os.Getenv("RELOADER_QUERY_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reconcile.QueryDeadline = d
		}
	}
	if v := os.Getenv("RELOADER_REGION_CONCURRENCY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Reconcile.RegionConcurrency)
	}
	if v := os.Getenv("RELOADER_RETENTION_DAYS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Reconcile.RetentionDays)
	}
	if v := os.Getenv("RELOADER_CHECK_EXISTENCE"); v != "" {
		cfg.Reconcile.CheckExistence = v == "true" || v == "1"
	}

	// Notify configuration
	if v := os.Getenv("RELOADER_QUEUE_URL"); v != "" {
		cfg.Notify.QueueURL = v
	}
	if v := os.Getenv("RELOADER_QUEUE_WAIT_SECONDS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Notify.WaitSeconds)
	}

	// HTTP configuration
	if v := os.Getenv("RELOADER_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
}

// EnsureDirectories creates all required local backend directories.
func (c *Config) EnsureDirectories() error {
	if c.Catalog.Backend != "local" && c.ObjectStore.Backend != "local" {
		return nil
	}

	dirs := []string{c.DataDir}
	if c.Catalog.Backend == "local" {
		dirs = append(dirs, filepath.Dir(c.Catalog.LocalPath), c.Catalog.OutputLocation)
	}
	if c.ObjectStore.Backend == "local" {
		dirs = append(dirs, c.ObjectStore.LocalPath)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
