package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment variables and flags.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	BaseURL      string        `mapstructure:"api_base_url"`
	AuthToken    string        `mapstructure:"api_auth_token"`
	TimeoutMs    int64         `mapstructure:"api_timeout_ms"`
	Timeout      time.Duration `mapstructure:"-"`
	PresetsFile  string        `mapstructure:"presets_file"`
	RelayFile    string        `mapstructure:"publishers_file"`
	ListenerPort int           `mapstructure:"listener_port"`

	ListenerShutdownTimeoutMs int64         `mapstructure:"listener_shutdown_timeout_ms"`
	ListenerShutdownTimeout   time.Duration `mapstructure:"-"`

	InboxStorageType     string        `mapstructure:"inbox_storage_type"`
	InboxBBoltPath       string        `mapstructure:"inbox_bbolt_path"`
	InboxTTLSeconds      int64         `mapstructure:"inbox_ttl_seconds"`
	InboxCleanupSeconds  int64         `mapstructure:"inbox_cleanup_interval_seconds"`
	InboxTTL             time.Duration `mapstructure:"-"`
	InboxCleanupInterval time.Duration `mapstructure:"-"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"base-url":   "api_base_url",
	"token":      "api_auth_token",
	"timeout-ms": "api_timeout_ms",
	"port":       "listener_port",
	"log-level":  "log_level",
}

// Load reads configuration from configs/.env, environment variables and the
// optional flag set. Flags that were explicitly set win over everything else.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "apiprobe")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "")
	v.SetDefault("api_auth_token", "")
	v.SetDefault("api_timeout_ms", 30000)
	v.SetDefault("presets_file", "./configs/requests.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("listener_port", 3000)
	v.SetDefault("listener_shutdown_timeout_ms", 5000)
	v.SetDefault("inbox_storage_type", "bbolt")
	v.SetDefault("inbox_bbolt_path", "./data/inbox.db")
	v.SetDefault("inbox_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("inbox_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid api_timeout_ms (must be positive milliseconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond

	if cfg.ListenerPort < 0 || cfg.ListenerPort > 65535 {
		return nil, fmt.Errorf("invalid listener_port %d", cfg.ListenerPort)
	}
	if cfg.ListenerShutdownTimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid listener_shutdown_timeout_ms (must be positive milliseconds)")
	}
	cfg.ListenerShutdownTimeout = time.Duration(cfg.ListenerShutdownTimeoutMs) * time.Millisecond

	if cfg.InboxTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid inbox_ttl_seconds (must be positive seconds)")
	}
	if cfg.InboxCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid inbox_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.InboxTTL = time.Duration(cfg.InboxTTLSeconds) * time.Second
	cfg.InboxCleanupInterval = time.Duration(cfg.InboxCleanupSeconds) * time.Second

	return &cfg, nil
}

// Redacted returns a copy safe for logging.
func (c Config) Redacted() Config {
	if c.AuthToken != "" {
		c.AuthToken = "***"
	}
	return c
}
