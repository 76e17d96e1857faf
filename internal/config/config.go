// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"
	// Embedded zone data keeps scrape.timezone loadable in slim images.
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	DB        DBConfig        `mapstructure:"db"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScrapeConfig governs fetching and extraction.
type ScrapeConfig struct {
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	DefaultTime       string  `mapstructure:"default_time"`
	Timezone          string  `mapstructure:"timezone"`
	GenericBlockCap   int     `mapstructure:"generic_block_cap"`
	DetailCap         int     `mapstructure:"detail_cap"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	RetryAttempts     int     `mapstructure:"retry_attempts"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MaxParallel     int  `mapstructure:"max_parallel"`
	NavTimeoutSec   int  `mapstructure:"nav_timeout_seconds"`
	PromotionThresh int  `mapstructure:"promotion_threshold"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

// ArchiveConfig selects where fetched listing pages are archived.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// NotifyConfig selects the "venue scraped" notification channel.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// WorkerConfig sizes the background scrape pool.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	QueueDepth  int `mapstructure:"queue_depth"`
}

// ProgressConfig tunes the progress event hub.
type ProgressConfig struct {
	BufferSize  int  `mapstructure:"buffer_size"`
	BatchWaitMs int  `mapstructure:"batch_wait_ms"`
	PersistRuns bool `mapstructure:"persist_runs"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelemetryConfig toggles tracing.
type TelemetryConfig struct {
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	ServiceName    string `mapstructure:"service_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONCERTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.timeout_seconds", 10)
	v.SetDefault("scrape.default_time", "19:30")
	v.SetDefault("scrape.timezone", "Europe/Warsaw")
	v.SetDefault("scrape.generic_block_cap", 15)
	v.SetDefault("scrape.detail_cap", 30)
	v.SetDefault("scrape.requests_per_second", 2.0)
	v.SetDefault("scrape.burst", 2)
	v.SetDefault("scrape.retry_attempts", 2)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.promotion_threshold", 60)
	v.SetDefault("db.driver", "memory")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.migrate", true)
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("notify.provider", "none")
	v.SetDefault("notify.topic", "venue-scraped")
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.queue_depth", 32)
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.batch_wait_ms", 200)
	v.SetDefault("progress.persist_runs", true)
	v.SetDefault("logging.development", true)
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.service_name", "concert-crawler")
}

// DefaultUserAgent is a desktop Chrome user agent; several venue sites refuse
// bot-looking agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.timeout_seconds must be > 0")
	}
	if _, _, err := c.DefaultClock(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Scrape.GenericBlockCap <= 0 || c.Scrape.DetailCap <= 0 {
		return fmt.Errorf("scrape.generic_block_cap and scrape.detail_cap must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.DB.Driver {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.driver is postgres")
		}
	default:
		return fmt.Errorf("db.driver must be postgres or memory, got %q", c.DB.Driver)
	}
	switch c.Archive.Provider {
	case "none", "memory":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set for the local archive")
		}
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set for the gcs archive")
		}
	default:
		return fmt.Errorf("archive.provider must be none, memory, local or gcs, got %q", c.Archive.Provider)
	}
	switch c.Notify.Provider {
	case "none", "memory":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic must be set for pubsub")
		}
	default:
		return fmt.Errorf("notify.provider must be none, memory or pubsub, got %q", c.Notify.Provider)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0")
	}
	return nil
}

// FetchTimeout converts scrape.timeout_seconds to a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// RequestTimeout is the HTTP handler timeout for non-scrape routes.
func (c Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// DefaultClock parses scrape.default_time as HH:MM.
func (c Config) DefaultClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.Scrape.DefaultTime)
	if err != nil {
		return 0, 0, fmt.Errorf("scrape.default_time must be HH:MM: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

// Location loads scrape.timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scrape.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scrape.timezone: %w", err)
	}
	return loc, nil
}
