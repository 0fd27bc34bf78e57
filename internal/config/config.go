package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HistoryCapacity is the number of messages each room retains.
	HistoryCapacity int `mapstructure:"history_capacity" yaml:"history_capacity"`
	// SendBuffer is the per-connection outbox size.
	SendBuffer      int   `mapstructure:"send_buffer" yaml:"send_buffer"`
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`

	TypingDebounce time.Duration `mapstructure:"typing_debounce" yaml:"typing_debounce"`
	// RateLimitPerMinute caps inbound events per connection; 0 disables it.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		WriteTimeout:       10 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		HistoryCapacity:    100,
		SendBuffer:         32,
		MaxMessageBytes:    64 << 10,
		TypingDebounce:     time.Second,
		RateLimitPerMinute: 0,
		MetricsEnabled:     true,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.HistoryCapacity != 0 {
		c.HistoryCapacity = other.HistoryCapacity
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.TypingDebounce != 0 {
		c.TypingDebounce = other.TypingDebounce
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
}

// Validate rejects values the relay cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.HistoryCapacity < 0 {
		errs = append(errs, fmt.Errorf("history_capacity must be >= 0, got %d", c.HistoryCapacity))
	}
	if c.SendBuffer < 0 {
		errs = append(errs, fmt.Errorf("send_buffer must be >= 0, got %d", c.SendBuffer))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_minute must be >= 0, got %d", c.RateLimitPerMinute))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
