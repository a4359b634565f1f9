package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "SMARTLEARN"

// maxLegacyKeys bounds the numbered SMARTLEARN_API_KEY_<n> variables.
const maxLegacyKeys = 10

// Load configuration from an optional .env file, an optional config.yaml and
// environment variables. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"database.url", "auth.jwt_secret", "llm.api_keys", "llm.model_name"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.LLM.APIKeys = collectAPIKeys(cfg.LLM.APIKeys, os.Getenv)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Streak.Location(); err != nil {
		return nil, fmt.Errorf("config validation failed: streak.timezone: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 25)

	v.SetDefault("auth.token_lifetime_minutes", 60*24*7)
	v.SetDefault("auth.cookie_name", "smartlearn_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("llm.model_priority", []string{"gemini-2.5-flash", "gemini-1.5-flash", "gemini-pro"})
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.min_call_interval", "3s")
	v.SetDefault("llm.backoff_base", "10s")
	v.SetDefault("llm.quota_cooldown", "60s")
	v.SetDefault("llm.key_switch_delay", "5s")
	v.SetDefault("llm.auth_switch_delay", "2s")
	v.SetDefault("llm.batch_pause", "2s")
	v.SetDefault("llm.daily_quota", 1500)
	v.SetDefault("llm.prompt_dir", "")

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.ttl_hours", 72)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("streak.timezone", "UTC")
}

// collectAPIKeys merges configured keys with SMARTLEARN_API_KEY and
// SMARTLEARN_API_KEY_2 .. SMARTLEARN_API_KEY_10, dropping blanks and
// duplicates while preserving order.
func collectAPIKeys(configured []string, getenv func(string) string) []string {
	candidates := make([]string, 0, len(configured)+maxLegacyKeys)
	for _, k := range configured {
		// A comma-joined env value may arrive as a single element.
		candidates = append(candidates, strings.Split(k, ",")...)
	}
	candidates = append(candidates, getenv(EnvPrefix+"_API_KEY"))
	for i := 2; i <= maxLegacyKeys; i++ {
		candidates = append(candidates, getenv(fmt.Sprintf("%s_API_KEY_%d", EnvPrefix, i)))
	}

	seen := make(map[string]struct{}, len(candidates))
	keys := make([]string, 0, len(candidates))
	for _, k := range candidates {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
