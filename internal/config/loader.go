package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "FLOWBROKER"

// Load builds the configuration. Path names an optional YAML config
// file; empty means defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("correlation.ttl", 10*time.Second)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8790)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("replay.max_line_bytes", 1<<20)
	v.SetDefault("replay.rate", 0.0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Correlation.TTL <= 0 {
		return fmt.Errorf("correlation.ttl must be positive, got %s", c.Correlation.TTL)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Replay.Rate < 0 {
		return fmt.Errorf("replay.rate must be >= 0, got %f", c.Replay.Rate)
	}
	return nil
}
