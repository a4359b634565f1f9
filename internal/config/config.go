package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Streak   StreakConfig   `mapstructure:"streak"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL is a postgres connection string for the postgres driver and a file
// path (or ":memory:") for sqlite.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL          string `mapstructure:"url" validate:"required"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and session settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	CookieName           string `mapstructure:"cookie_name" validate:"required"`
	CookieSecure         bool   `mapstructure:"cookie_secure"`
	BCryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// LLMConfig contains generative model settings: credentials, model choice
// and the pacing and retry knobs of the call wrapper.
type LLMConfig struct {
	APIKeys         []string      `mapstructure:"api_keys" validate:"required,min=1,dive,required"`
	ModelName       string        `mapstructure:"model_name"`
	ModelPriority   []string      `mapstructure:"model_priority"`
	Temperature     float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"gte=1"`
	MinCallInterval time.Duration `mapstructure:"min_call_interval" validate:"gte=0"`
	BackoffBase     time.Duration `mapstructure:"backoff_base" validate:"gte=0"`
	QuotaCooldown   time.Duration `mapstructure:"quota_cooldown" validate:"gte=0"`
	KeySwitchDelay  time.Duration `mapstructure:"key_switch_delay" validate:"gte=0"`
	AuthSwitchDelay time.Duration `mapstructure:"auth_switch_delay" validate:"gte=0"`
	BatchPause      time.Duration `mapstructure:"batch_pause" validate:"gte=0"`
	DailyQuota      int           `mapstructure:"daily_quota" validate:"gte=0"`
	PromptDir       string        `mapstructure:"prompt_dir"`
}

// CacheConfig selects and configures the generated-content cache.
type CacheConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=file memory redis"`
	Dir           string `mapstructure:"dir" validate:"required_if=Backend file"`
	TTLHours      int    `mapstructure:"ttl_hours" validate:"gt=0"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
}

// TTL returns the configured time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// StreakConfig controls how calendar days are computed for study streaks.
type StreakConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone, defaulting to UTC.
func (c StreakConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
