package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds relay configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigin      string        `mapstructure:"allowed_origin" yaml:"allowed_origin"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientBuffer       int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string        `mapstructure:"log_format" yaml:"log_format"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		AllowedOrigin:     "http://localhost:3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageBytes:   1 << 20,
		ClientBuffer:      64,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.AllowedOrigin != "" {
		c.AllowedOrigin = other.AllowedOrigin
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.AllowedOrigin == "" {
		errs = append(errs, errors.New("allowed_origin is required"))
	} else if !c.AllowAnyOrigin() {
		if _, err := c.originHost(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max_message_bytes must be positive"))
	}
	if c.ClientBuffer <= 0 {
		errs = append(errs, errors.New("client_buffer must be positive"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("rate_limit_per_minute must not be negative"))
	}
	return errors.Join(errs...)
}

// AllowAnyOrigin reports whether cross-origin checks are disabled.
func (c Config) AllowAnyOrigin() bool {
	return strings.TrimSpace(c.AllowedOrigin) == "*"
}

// OriginPatterns returns the host patterns accepted during the WebSocket handshake.
func (c Config) OriginPatterns() []string {
	if c.AllowAnyOrigin() {
		return nil
	}
	host, err := c.originHost()
	if err != nil {
		return nil
	}
	return []string{host}
}

func (c Config) originHost() (string, error) {
	origin := strings.TrimSpace(c.AllowedOrigin)
	if !strings.Contains(origin, "://") {
		return origin, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("allowed_origin: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("allowed_origin %q has no host", origin)
	}
	return u.Host, nil
}
