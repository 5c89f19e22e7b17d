package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	if !c.Telemetry.RecordSessions {
		return nil
	}

	return os.MkdirAll(c.Telemetry.SessionDir, 0755)
}

// GetSessionPath returns the full path for a session log file
func (c *Config) GetSessionPath(filename string) string {
	return filepath.Join(c.Telemetry.SessionDir, filename)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// ImpulseSubjectFor returns the queue subject a device's impulse samples
// arrive on
func (c *QueueConfig) ImpulseSubjectFor(deviceID string) string {
	return c.ImpulseSubject + "." + deviceID
}

// MetricsSubjectFor returns the queue subject a metrics kind is
// published on (e.g. "rowing", "calibration")
func (c *QueueConfig) MetricsSubjectFor(kind string) string {
	return c.MetricsSubject + "." + kind
}
