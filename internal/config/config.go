// Package config loads the relay configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Service ServiceConfig
	Relay   RelayConfig
	Feed    FeedConfig
	Logging LoggingConfig
}

// ServiceConfig describes the MJAPI account and endpoint.
type ServiceConfig struct {
	URL       string
	User      string
	Secret    string
	SessionID string `mapstructure:"session_id"`
	Model4P   string `mapstructure:"model_4p"`
	Model3P   string `mapstructure:"model_3p"`
	Timeout   time.Duration
}

// RelayConfig carries the sequencing/batching/retry knobs.
type RelayConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	Retries       int
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	Bound         int
}

// FeedConfig points at the game-side websocket event feed. An empty URL
// selects stdin/stdout relaying instead.
type FeedConfig struct {
	URL string
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the given file, overlaid with MJAI_*
// environment variables. An empty path skips the file and uses defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// String keys get empty defaults so environment overlays are picked up
	// even without a config file.
	v.SetDefault("service.url", "")
	v.SetDefault("service.user", "")
	v.SetDefault("service.secret", "")
	v.SetDefault("service.session_id", "")
	v.SetDefault("service.model_4p", "")
	v.SetDefault("service.model_3p", "")
	v.SetDefault("feed.url", "")
	v.SetDefault("service.timeout", 15*time.Second)
	v.SetDefault("relay.batch_size", 24)
	v.SetDefault("relay.retries", 3)
	v.SetDefault("relay.retry_interval", time.Second)
	v.SetDefault("relay.bound", 256)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("MJAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Service.URL == "" {
		return fmt.Errorf("service.url is required")
	}
	if c.Relay.BatchSize <= 0 {
		return fmt.Errorf("relay.batch_size must be positive")
	}
	if c.Relay.Retries <= 0 {
		return fmt.Errorf("relay.retries must be positive")
	}
	if c.Relay.Bound <= 0 {
		return fmt.Errorf("relay.bound must be positive")
	}
	return nil
}
