package config

import (
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "invalid queue type",
			mutate:  func(c *Config) { c.Queue.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name:    "nats queue without url",
			mutate:  func(c *Config) { c.Queue.URL = "" },
			wantErr: true,
		},
		{
			name: "memory queue needs no url",
			mutate: func(c *Config) {
				c.Queue.Type = "memory"
				c.Queue.URL = ""
			},
			wantErr: false,
		},
		{
			name:    "missing impulse subject",
			mutate:  func(c *Config) { c.Queue.ImpulseSubject = "" },
			wantErr: true,
		},
		{
			name: "telemetry enabled without interval",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.PublishInterval = 0
			},
			wantErr: true,
		},
		{
			name: "recording without session dir",
			mutate: func(c *Config) {
				c.Telemetry.RecordSessions = true
				c.Telemetry.SessionDir = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid impulses per revolution",
			mutate:  func(c *Config) { c.Rower.ImpulsesPerRevolution = 0 },
			wantErr: true,
		},
		{
			name:    "aggressiveness out of range",
			mutate:  func(c *Config) { c.Rower.CalibrationAggressiveness = 1.5 },
			wantErr: true,
		},
		{
			name:    "inverted drag thresholds",
			mutate:  func(c *Config) { c.Rower.LowerDragFactorThreshold = 5000 },
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			mutate: func(c *Config) {
				c.Auth.Enabled = true
			},
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("expected HTTPPort 7070, got %d", cfg.Server.HTTPPort)
	}

	if cfg.Queue.Type != "nats" {
		t.Errorf("expected queue type nats, got %s", cfg.Queue.Type)
	}

	if cfg.Rower.ImpulsesPerRevolution != 4 {
		t.Errorf("expected 4 impulses per revolution, got %d", cfg.Rower.ImpulsesPerRevolution)
	}

	if cfg.Rower.RowingStoppedThreshold != 7*time.Second {
		t.Errorf("expected 7s stopped threshold, got %v", cfg.Rower.RowingStoppedThreshold)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsProduction() {
		t.Error("default config should be production mode")
	}

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	if !cfg.IsDevelopment() {
		t.Error("config with debug/console should be development mode")
	}

	if got := cfg.GetServerAddress(); got != "0.0.0.0:7070" {
		t.Errorf("expected '0.0.0.0:7070', got %s", got)
	}

	if got := cfg.Queue.ImpulseSubjectFor("erg-01"); got != "rowsense.impulse.erg-01" {
		t.Errorf("expected 'rowsense.impulse.erg-01', got %s", got)
	}

	if got := cfg.Queue.MetricsSubjectFor("rowing"); got != "rowsense.metrics.rowing" {
		t.Errorf("expected 'rowsense.metrics.rowing', got %s", got)
	}

	sessionPath := cfg.GetSessionPath("session.log")
	if sessionPath != "sessions/session.log" {
		t.Errorf("expected 'sessions/session.log', got %s", sessionPath)
	}
}
