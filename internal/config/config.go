// Package config loads flowbroker configuration from defaults, an
// optional YAML file, and FLOWBROKER_* environment variables, in
// ascending precedence.
package config

import "time"

// Config is the full runtime configuration.
type Config struct {
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Replay      ReplayConfig      `mapstructure:"replay"`
}

// CorrelationConfig tunes the event-correlation engine.
type CorrelationConfig struct {
	// TTL is how long an unresolved correlation entry is retained
	// before the periodic sweep reclaims it. The sweep fires at this
	// interval.
	TTL time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the metrics/health HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ReplayConfig tunes record stream replay.
type ReplayConfig struct {
	// MaxLineBytes bounds a single JSONL record line.
	MaxLineBytes int `mapstructure:"max_line_bytes"`

	// Rate caps replayed records per second. Zero means unlimited.
	Rate float64 `mapstructure:"rate"`
}
