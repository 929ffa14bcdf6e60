// Package config provides centralized configuration management for reputebot.
//
// Settings are layered: built-in defaults, the user config file (discovered
// via app identity), {PREFIX}* environment variables, then runtime overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/reputebot/reputebot/internal/appid"
)

const defaultEnvPrefix = "REPUTEBOT_"

var (
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appidentity.Identity
)

// EnvVarSpec maps {PREFIX}{NAME} environment variables to config paths.
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// Defaults returns the built-in configuration as viper keys.
func Defaults() map[string]any {
	return map[string]any{
		"bot.poll_interval":        "30s",
		"bot.error_backoff":        "60s",
		"bot.notification_max_age": "2h",
		"bot.notification_limit":   50,
		"bot.lookback_days":        30,
		"bot.max_posts":            1000,
		"bot.page_size":            20,
		"bot.startup_skew":         "30s",
		"bot.reset_file":           "reset_bot.txt",

		"queue.max_retries":  3,
		"queue.backoff_base": 2.0,
		"queue.backoff_unit": "1s",

		"network.base_url":         "https://bsky.social",
		"network.timeout":          "30s",
		"network.user_agent":       "reputebot",
		"network.login_retries":    3,
		"network.login_retry_wait": "2s",

		"server.enabled":          true,
		"server.host":             "localhost",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",

		"store.driver":     "libsql",
		"store.path":       DefaultStorePath(),
		"store.url":        "",
		"store.auth_token": "",

		"logging.level":   "info",
		"logging.profile": "structured",

		"metrics.enabled": true,
		"metrics.port":    9090,

		"health.enabled": true,

		"feeds.path": "feeds.json",

		"rate_limit_margin": 1.0,
	}
}

// SetDefaults installs Defaults on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
}

// Load loads configuration from the discovered user config file.
//
// This function is safe to call multiple times (e.g., for config reload).
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	return LoadFile(ctx, "", runtimeOverrides...)
}

// LoadFile loads configuration with path as the user config file. An empty
// path searches the app identity config locations; a missing file there is
// not an error.
func LoadFile(ctx context.Context, path string, runtimeOverrides ...map[string]any) (*Config, error) {
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	v := viper.New()
	SetDefaults(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	envOverrides, err := loadEnvOverrides()
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(envOverrides); err != nil {
		return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
	}
	for _, overrides := range runtimeOverrides {
		if len(overrides) == 0 {
			continue
		}
		if err := v.MergeConfigMap(overrides); err != nil {
			return nil, fmt.Errorf("failed to merge runtime overrides: %w", err)
		}
	}

	cfg, err := Decode(v.AllSettings())
	if err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Decode converts merged settings into a typed Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var problems []string
	if c.Bot.PollInterval <= 0 {
		problems = append(problems, "bot.poll_interval must be positive")
	}
	if c.Bot.PageSize <= 0 || c.Bot.PageSize > 100 {
		problems = append(problems, "bot.page_size must be between 1 and 100")
	}
	if c.Bot.MaxPosts <= 0 {
		problems = append(problems, "bot.max_posts must be positive")
	}
	if c.Queue.MaxRetries < 0 {
		problems = append(problems, "queue.max_retries must not be negative")
	}
	if c.Queue.BackoffBase < 1 {
		problems = append(problems, "queue.backoff_base must be at least 1")
	}
	if c.RateLimitMargin < 0 || c.RateLimitMargin > 1 {
		problems = append(problems, "rate_limit_margin must be within [0, 1]")
	}
	for category, value := range c.RateLimits {
		if value <= 0 {
			problems = append(problems, fmt.Sprintf("rate_limits.%s must be positive", category))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func readConfigFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	for _, candidate := range getUserConfigPaths() {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() {
			candidate = filepath.Join(candidate, "config.yaml")
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", candidate, err)
		}
		return nil
	}
	return nil
}

func loadEnvOverrides() (map[string]any, error) {
	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if envOverrides == nil {
		envOverrides = map[string]any{}
	}

	prefix := envPrefix()
	if value := strings.TrimSpace(os.Getenv(prefix + "RATE_LIMIT_MARGIN")); value != "" {
		margin, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit margin: %w", err)
		}
		envOverrides["rate_limit_margin"] = margin
	}
	if value := strings.TrimSpace(os.Getenv(prefix + "QUEUE_BACKOFF_BASE")); value != "" {
		base, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid queue backoff base: %w", err)
		}
		ensureMap(envOverrides, "queue")["backoff_base"] = base
	}
	if err := applyRateLimitEnvOverrides(prefix, envOverrides); err != nil {
		return nil, err
	}
	return envOverrides, nil
}

// applyRateLimitEnvOverrides maps {PREFIX}RATE_LIMITS_<CATEGORY>=n onto
// rate_limits.<category>.
func applyRateLimitEnvOverrides(prefix string, envOverrides map[string]any) error {
	limitPrefix := prefix + "RATE_LIMITS_"
	for _, item := range os.Environ() {
		key, value, ok := strings.Cut(item, "=")
		if !ok || !strings.HasPrefix(key, limitPrefix) || strings.TrimSpace(value) == "" {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(key[len(limitPrefix):]))
		if category == "" {
			continue
		}
		limit, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid rate limit %s: %w", key, err)
		}
		ensureMap(envOverrides, "rate_limits")[category] = limit
	}
	return nil
}

func envPrefix() string {
	return appid.EnvPrefix(appIdentity, defaultEnvPrefix)
}

// getUserConfigPaths returns the user config file paths to check.
func getUserConfigPaths() []string {
	if appIdentity == nil {
		return []string{}
	}

	appName := appIdentity.ConfigName
	if strings.TrimSpace(appName) == "" {
		appName = appIdentity.BinaryName
	}
	if strings.TrimSpace(appName) == "" {
		appName = "reputebot"
	}

	legacyNames := []string{}
	if appIdentity.BinaryName != "" && appIdentity.BinaryName != appName {
		legacyNames = append(legacyNames, appIdentity.BinaryName)
	}

	return gfconfig.GetAppConfigPaths(appName, legacyNames...)
}

// getEnvSpecs maps {PREFIX}{NAME} environment variables to config paths.
func getEnvSpecs() []EnvVarSpec {
	prefix := envPrefix()

	return []EnvVarSpec{
		// Bot
		{Name: prefix + "POLL_INTERVAL", Path: []string{"bot", "poll_interval"}, Type: EnvString},
		{Name: prefix + "ERROR_BACKOFF", Path: []string{"bot", "error_backoff"}, Type: EnvString},
		{Name: prefix + "NOTIFICATION_MAX_AGE", Path: []string{"bot", "notification_max_age"}, Type: EnvString},
		{Name: prefix + "NOTIFICATION_LIMIT", Path: []string{"bot", "notification_limit"}, Type: EnvInt},
		{Name: prefix + "LOOKBACK_DAYS", Path: []string{"bot", "lookback_days"}, Type: EnvInt},
		{Name: prefix + "MAX_POSTS", Path: []string{"bot", "max_posts"}, Type: EnvInt},
		{Name: prefix + "PAGE_SIZE", Path: []string{"bot", "page_size"}, Type: EnvInt},
		{Name: prefix + "RESET_FILE", Path: []string{"bot", "reset_file"}, Type: EnvString},

		// Queue
		{Name: prefix + "QUEUE_MAX_RETRIES", Path: []string{"queue", "max_retries"}, Type: EnvInt},
		{Name: prefix + "QUEUE_BACKOFF_UNIT", Path: []string{"queue", "backoff_unit"}, Type: EnvString},

		// Network
		{Name: prefix + "PDS_URL", Path: []string{"network", "base_url"}, Type: EnvString},
		{Name: prefix + "NETWORK_TIMEOUT", Path: []string{"network", "timeout"}, Type: EnvString},

		// Server config
		{Name: prefix + "SERVER_ENABLED", Path: []string{"server", "enabled"}, Type: EnvBool},
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},

		// Logging
		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		// Store config
		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		// Metrics and health
		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},
		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},

		// Feeds
		{Name: prefix + "FEEDS_PATH", Path: []string{"feeds", "path"}, Type: EnvString},
	}
}

// appNamesForPaths returns the config name and binary name from app identity,
// falling back to "reputebot" if not set.
func appNamesForPaths() (configName string, binaryName string) {
	configName = "reputebot"
	binaryName = "reputebot"
	if appIdentity == nil {
		return configName, binaryName
	}

	if strings.TrimSpace(appIdentity.ConfigName) != "" {
		configName = appIdentity.ConfigName
	}
	if strings.TrimSpace(appIdentity.BinaryName) != "" {
		binaryName = appIdentity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths()
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	configName, _ := appNamesForPaths()
	return gfconfig.GetAppDataDir(configName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	configName, binaryName := appNamesForPaths()
	dataDir := gfconfig.GetAppDataDir(configName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dataDir, binaryName+".db")
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if parent == nil {
		return map[string]any{}
	}
	if existing, ok := parent[key]; ok {
		if typed, ok := existing.(map[string]any); ok {
			return typed
		}
	}
	next := map[string]any{}
	parent[key] = next
	return next
}
