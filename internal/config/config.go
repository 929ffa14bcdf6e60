package config

import "time"

// Config is the complete reputebot configuration. Values come from built-in
// defaults, then the user config file, then {PREFIX}* environment variables,
// then runtime overrides.
type Config struct {
	Bot     BotConfig     `mapstructure:"bot"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Network NetworkConfig `mapstructure:"network"`
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
	Feeds   FeedsConfig   `mapstructure:"feeds"`

	// RateLimits overrides per-category requests per minute.
	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// BotConfig controls the mention monitor.
type BotConfig struct {
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	ErrorBackoff       time.Duration `mapstructure:"error_backoff"`
	NotificationMaxAge time.Duration `mapstructure:"notification_max_age"`
	NotificationLimit  int           `mapstructure:"notification_limit"`
	LookbackDays       int           `mapstructure:"lookback_days"`
	MaxPosts           int           `mapstructure:"max_posts"`
	PageSize           int           `mapstructure:"page_size"`
	StartupSkew        time.Duration `mapstructure:"startup_skew"`
	ResetFile          string        `mapstructure:"reset_file"`
}

// QueueConfig controls retries of queued requests.
type QueueConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase float64       `mapstructure:"backoff_base"`
	BackoffUnit time.Duration `mapstructure:"backoff_unit"`
}

// NetworkConfig points the client at a PDS.
type NetworkConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	LoginRetries   int           `mapstructure:"login_retries"`
	LoginRetryWait time.Duration `mapstructure:"login_retry_wait"`
}

// ServerConfig contains the status HTTP server configuration.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Profile is one of SIMPLE, STRUCTURED, ENTERPRISE.
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// FeedsConfig locates the suggested feeds file.
type FeedsConfig struct {
	Path string `mapstructure:"path"`
}
