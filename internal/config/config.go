// internal/config/config.go
// Centralised configuration loader for the classforge CLI / embedded driver.
// Consumers (cmd/classforge or embedders of pkg/classforge) can either call
// Load() to read config from environment variables plus an optional
// YAML/TOML/JSON file, or build a Config by hand and pass it straight to the
// processor's options.
//
// Grounded on the teacher's internal/agent/config.go: same Load(filePath,
// envPrefix) shape, same "file is optional, best-effort merge" posture, same
// choice of github.com/spf13/viper over a hand-rolled parser.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds every processor setting the CLI can override, mirroring the
// driver-facing options in pkg/classforge.Processor.
type Config struct {
	// Scheduling -------------------------------------------------------
	Anchors []string `mapstructure:"anchors"` // round-order anchor transformer IDs

	// Cache backend ------------------------------------------------------
	CacheBackend string        `mapstructure:"cache_backend"` // "inmem" (default) or "redis"
	RedisAddr    string        `mapstructure:"redis_addr"`
	RedisTimeout time.Duration `mapstructure:"redis_timeout"`

	// Remote platform ----------------------------------------------------
	PlatformKind string        `mapstructure:"platform_kind"` // "http" or "grpc"
	PlatformAddr string        `mapstructure:"platform_addr"`
	PlatformAuth string        `mapstructure:"platform_auth"` // bearer token or JWT secret reference
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`

	// Selector DSL applied as a class filter on top-level inputs, compiled
	// by internal/selector.
	Selector string `mapstructure:"selector"`

	// Notification sinks: any subset of "log", "webhook", "slack".
	NotifySinks []string `mapstructure:"notify_sinks"`
	WebhookURL  string   `mapstructure:"webhook_url"`
	SlackURL    string   `mapstructure:"slack_url"`

	// Progress feed --------------------------------------------------------
	ProgressAddr  string `mapstructure:"progress_addr"` // e.g. ":8099"; empty disables
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheBackend: "inmem",
		PlatformKind: "http",
		RedisTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
		NotifySinks:  []string{"log"},
	}
}

// Load reads configuration from env + optional file. envPrefix, e.g.
// "CLASSFORGE", transforms PLATFORM_ADDR -> PlatformAddr. If filePath is
// empty only env vars (and the defaults) apply.
func Load(filePath, envPrefix string) Config {
	cfg := DefaultConfig()

	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
		// Unmarshal only sees keys viper already knows, so bind each
		// field's key to its prefixed env var explicitly.
		for _, key := range []string{
			"anchors", "cache_backend", "redis_addr", "redis_timeout",
			"platform_kind", "platform_addr", "platform_auth", "dial_timeout",
			"selector", "notify_sinks", "webhook_url", "slack_url",
			"progress_addr", "enable_metrics",
		} {
			_ = v.BindEnv(key)
		}
	}
	if filePath != "" {
		v.SetConfigFile(filePath)
		_ = v.ReadInConfig() // optional: absent/unreadable file is not fatal
	}
	_ = v.Unmarshal(&cfg) // best-effort merge env + file -> struct
	return cfg
}
