package config

import (
	"fmt"
	"time"

	"github.com/rowsense/rowsense/internal/rower"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Rower     rower.Profile   `mapstructure:"rower"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	ImpulseSubject string `mapstructure:"impulse_subject"` // Subject prefix impulse samples arrive on
	MetricsSubject string `mapstructure:"metrics_subject"` // Subject prefix metrics are published on
}

// TelemetryConfig represents metrics publishing and session recording
// configuration
type TelemetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`          // Enable metrics publishing
	PublishInterval time.Duration `mapstructure:"publish_interval"` // How often metrics are broadcast
	SessionDir      string        `mapstructure:"session_dir"`      // Directory for recorded session logs
	RecordSessions  bool          `mapstructure:"record_sessions"`  // Record raw impulse streams to disk
}

// AuthConfig represents API key authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // Valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry config: %w", err)
	}

	if err := c.Rower.Validate(); err != nil {
		return fmt.Errorf("rower config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if c.Type != "nats" && c.Type != "memory" {
		return fmt.Errorf("queue.type must be 'nats' or 'memory'")
	}

	if c.Type == "nats" && c.URL == "" {
		return fmt.Errorf("queue.url is required for nats")
	}

	if c.ImpulseSubject == "" {
		return fmt.Errorf("queue.impulse_subject is required")
	}

	if c.MetricsSubject == "" {
		return fmt.Errorf("queue.metrics_subject is required")
	}

	return nil
}

// Validate validates telemetry configuration
func (c *TelemetryConfig) Validate() error {
	if c.Enabled && c.PublishInterval <= 0 {
		return fmt.Errorf("telemetry.publish_interval must be positive")
	}

	if c.RecordSessions && c.SessionDir == "" {
		return fmt.Errorf("telemetry.session_dir is required when recording sessions")
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
