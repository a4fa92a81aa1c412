// Package config provides configuration loading and validation utilities.
package config

import "time"

// Config holds runtime configuration for the Aadee scheduling assistant.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Log       LogConfig       `mapstructure:"log"`
	Backend   BackendConfig   `mapstructure:"backend" validate:"required"`
	Widget    WidgetConfig    `mapstructure:"widget"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Bot       BotConfig       `mapstructure:"bot"`
	Web       WebConfig       `mapstructure:"web"`
	Ops       OpsConfig       `mapstructure:"ops"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// BackendConfig points at the scheduling backend.
type BackendConfig struct {
	URL            string        `mapstructure:"url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	BreakerEnabled bool          `mapstructure:"breaker_enabled"`
}

// WidgetConfig tunes the conversation.
type WidgetConfig struct {
	AvailabilityDays int           `mapstructure:"availability_days" validate:"min=1,max=30"`
	Language         string        `mapstructure:"language" validate:"required"`
	Timezone         string        `mapstructure:"timezone"`
	Frontend         string        `mapstructure:"frontend" validate:"oneof=console telegram web"`
	IdleTTL          time.Duration `mapstructure:"idle_ttl"`
}

// SessionConfig selects where the session identifier is persisted.
type SessionConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file redis memory"`
	Key     string `mapstructure:"key" validate:"required"`
	Path    string `mapstructure:"path"`
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db" validate:"gte=0"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BotConfig configures the Telegram front end.
type BotConfig struct {
	Token   string        `mapstructure:"token"`
	Mode    string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig describes the Telegram webhook endpoint.
type WebhookConfig struct {
	URL    string `mapstructure:"url"`
	Listen string `mapstructure:"listen"`
}

// WebConfig configures the browser chat front end.
type WebConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OpsConfig configures the metrics and health server.
type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

// RateLimitRule bounds requests per window.
type RateLimitRule struct {
	Limit  int           `mapstructure:"limit" validate:"gte=0"`
	Window time.Duration `mapstructure:"window"`
}

// RateLimitConfig throttles chat input per user.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []string      `mapstructure:"whitelist"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// IsProduction reports whether the assistant runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
