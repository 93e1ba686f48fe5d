// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ratecollector/internal/model"
)

// EnvPrefix prefixes every environment variable override, e.g. RATECOLLECTOR_NBP_BASE_URL.
const EnvPrefix = "RATECOLLECTOR"

// ProviderNBP is the configuration name of the NBP provider.
const ProviderNBP = "nbp"

var knownProviders = map[string]struct{}{
	ProviderNBP: {},
}

// Config holds the complete application configuration.
type Config struct {
	NBP       NBPConfig       `mapstructure:"nbp"`
	Collector CollectorConfig `mapstructure:"collector"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
}

// NBPConfig holds settings for the NBP provider.
type NBPConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// CollectorConfig holds what to collect and how.
type CollectorConfig struct {
	Currencies  []string `mapstructure:"currencies"`
	Providers   []string `mapstructure:"providers"`
	Concurrency int      `mapstructure:"concurrency"`
}

// CacheConfig holds the optional Redis provider cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	TTLSec    int    `mapstructure:"ttl_sec"`
}

// OutputConfig selects how the result is printed.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"currencies":  "collector.currencies",
	"providers":   "collector.providers",
	"concurrency": "collector.concurrency",
	"output":      "output.format",
	"cache-addr":  "cache.redis_addr",
	"debug":       "log.development",
}

// LoadConfig reads configuration from an optional config file, environment variables, flags and defaults.
// An empty configFile searches for config.yaml in the working directory and ./config.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// default values
	v.SetDefault("nbp.base_url", "http://api.nbp.pl/api/exchangerates/rates/c")
	v.SetDefault("nbp.timeout_sec", 10)
	v.SetDefault("collector.currencies", []string{"EUR", "USD"})
	v.SetDefault("collector.providers", []string{ProviderNBP})
	v.SetDefault("collector.concurrency", 1)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl_sec", 3600)
	v.SetDefault("output.format", "json")
	v.SetDefault("log.development", false)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// It's okay if there is no config file unless one was asked for explicitly
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	for i, cur := range c.Collector.Currencies {
		c.Collector.Currencies[i] = strings.ToUpper(strings.TrimSpace(cur))
	}
	for i, p := range c.Collector.Providers {
		c.Collector.Providers[i] = strings.ToLower(strings.TrimSpace(p))
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.NBP.BaseURL = strings.TrimRight(c.NBP.BaseURL, "/")
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.NBP.BaseURL == "" {
		errs = append(errs, fmt.Errorf("nbp.base_url is required"))
	}
	if c.NBP.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("nbp.timeout_sec must be positive, got %d", c.NBP.TimeoutSec))
	}

	if len(c.Collector.Currencies) == 0 {
		errs = append(errs, fmt.Errorf("collector.currencies must not be empty"))
	}
	for _, cur := range c.Collector.Currencies {
		if !model.IsValidCurrencyCode(cur) {
			errs = append(errs, fmt.Errorf("collector.currencies: %q is not a 3-letter currency code", cur))
		}
	}
	if len(c.Collector.Providers) == 0 {
		errs = append(errs, fmt.Errorf("collector.providers must not be empty"))
	}
	for _, p := range c.Collector.Providers {
		if _, ok := knownProviders[p]; !ok {
			errs = append(errs, fmt.Errorf("collector.providers: unknown provider %q", p))
		}
	}
	if c.Collector.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("collector.concurrency must be positive, got %d", c.Collector.Concurrency))
	}

	if c.Cache.RedisAddr != "" && c.Cache.TTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_sec must be positive when cache.redis_addr is set, got %d", c.Cache.TTLSec))
	}

	return errors.Join(errs...)
}
