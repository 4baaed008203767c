package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"log-level" yaml:"log-level" validate:"omitempty,oneof=debug info warn error"`

	// File, when set, receives JSON logs in addition to the console.
	File string `mapstructure:"log-file" yaml:"log-file"`

	// MaxSize is the maximum size in megabytes of the log file before it gets rotated.
	MaxSize int `mapstructure:"log-max-size" yaml:"log-max-size" default:"50"`

	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int `mapstructure:"log-max-backups" yaml:"log-max-backups" default:"5"`

	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `mapstructure:"log-max-age" yaml:"log-max-age" default:"30"`

	// Compress determines if the rotated log files should be compressed using gzip.
	Compress bool `mapstructure:"log-compress" yaml:"log-compress"`

	TimeFormat string `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		TimeFormat: "15:04:05.000",
	}
}

// Levels lists the accepted level names.
var Levels = []string{"debug", "info", "warn", "error"}

// TransportLevel converts the string level to zapcore.Level.
func (c Config) TransportLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// applyDefaults applies default values to empty fields.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.MaxSize <= 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = defaults.MaxBackups
	}
	if c.MaxAge <= 0 {
		c.MaxAge = defaults.MaxAge
	}
	if c.TimeFormat == "" {
		c.TimeFormat = defaults.TimeFormat
	}
}
