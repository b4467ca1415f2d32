// Package config resolves runtime settings from flags, ECOSCORE_* environment
// variables and an optional ecoscore.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ECOSCORE"

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds every recognized setting.
type Config struct {
	Policy          string        `mapstructure:"policy"`
	Addr            string        `mapstructure:"addr"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	SessionStore    string        `mapstructure:"session_store"`
	SessionCapacity int           `mapstructure:"session_capacity"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	Model           string        `mapstructure:"model"`
	Tips            bool          `mapstructure:"tips"`
	TipsCacheSize   int           `mapstructure:"tips_cache_size"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"policy":           "policy",
	"addr":             "addr",
	"log-level":        "log_level",
	"log-format":       "log_format",
	"session-store":    "session_store",
	"session-capacity": "session_capacity",
	"session-ttl":      "session_ttl",
	"redis-addr":       "redis_addr",
	"model":            "model",
	"tips":             "tips",
	"tips-cache-size":  "tips_cache_size",
	"allowed-origins":  "allowed_origins",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy", "ecogame")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("session_store", StoreMemory)
	v.SetDefault("session_capacity", 1024)
	v.SetDefault("session_ttl", 2*time.Hour)
	v.SetDefault("redis_addr", "")
	v.SetDefault("model", "")
	v.SetDefault("tips", false)
	v.SetDefault("tips_cache_size", 128)
	v.SetDefault("allowed_origins", []string{"*"})
}

// Load resolves the configuration. Flags present in fs are bound to their
// keys; only flags the user actually set override lower layers. configFile
// names an explicit file; when empty, ecoscore.yaml is searched for in the
// working directory and $HOME and silently skipped if absent.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config.Load: bind %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
	} else {
		v.SetConfigName("ecoscore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config.Load: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config: redis_addr is required when session_store=redis")
		}
	default:
		return fmt.Errorf("config: session_store must be %q or %q, got %q", StoreMemory, StoreRedis, c.SessionStore)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	if c.SessionCapacity <= 0 {
		return fmt.Errorf("config: session_capacity must be positive, got %d", c.SessionCapacity)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session_ttl must be positive, got %s", c.SessionTTL)
	}
	if c.TipsCacheSize <= 0 {
		return fmt.Errorf("config: tips_cache_size must be positive, got %d", c.TipsCacheSize)
	}
	if c.Policy == "" {
		return fmt.Errorf("config: policy is required")
	}
	return nil
}
