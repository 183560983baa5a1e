// Package config loads larafront settings from YAML, environment variables
// and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. LARAFRONT_AJAX_BASE_URL.
const EnvPrefix = "LARAFRONT"

// Config is the full configuration tree.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Ajax       AjaxConfig       `mapstructure:"ajax"`
	Validation ValidationConfig `mapstructure:"validation"`
	Views      ViewsConfig      `mapstructure:"views"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
}

// AppConfig holds locale settings.
type AppConfig struct {
	Locale         string `mapstructure:"locale"`
	FallbackLocale string `mapstructure:"fallback_locale"`
}

// AjaxConfig configures the route transport.
type AjaxConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Codec   string        `mapstructure:"codec"` // json or msgpack
}

// ValidationConfig holds the classes applied to validated fields.
type ValidationConfig struct {
	ErrorClass   string `mapstructure:"error_class"`
	SuccessClass string `mapstructure:"success_class"`
}

// ViewsConfig locates view templates.
type ViewsConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// CacheConfig configures the GET response cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
	Key     string        `mapstructure:"key"`
	Sealed  bool          `mapstructure:"sealed"` // encrypt instead of sign
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Load reads configuration. An empty path looks for larafront.yaml in the
// working directory and falls back to defaults when none exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("larafront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.locale", "en")
	v.SetDefault("app.fallback_locale", "en")

	v.SetDefault("ajax.base_url", "")
	v.SetDefault("ajax.timeout", 30*time.Second)
	v.SetDefault("ajax.codec", "json")

	v.SetDefault("validation.error_class", "error")
	v.SetDefault("validation.success_class", "success")

	v.SetDefault("views.dir", "resources/views")
	v.SetDefault("views.watch", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "larafront.db")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.key", "")
	v.SetDefault("cache.sealed", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Ajax.Codec) {
	case "json", "msgpack":
	default:
		return fmt.Errorf("config: ajax.codec must be json or msgpack, got %q", c.Ajax.Codec)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Ajax.Timeout < 0 {
		return fmt.Errorf("config: ajax.timeout must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("config: cache.path is required when the cache is enabled")
	}
	return nil
}
