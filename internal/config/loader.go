package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/rowsense/rowsense/internal/rower"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("./config")      // Alternative config directory
		v.AddConfigPath("/etc/rowsense") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("ROWSENSE")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 7070)

	// Queue defaults
	v.SetDefault("queue.type", "nats")
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.impulse_subject", "rowsense.impulse")
	v.SetDefault("queue.metrics_subject", "rowsense.metrics")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.publish_interval", "500ms")
	v.SetDefault("telemetry.session_dir", "./sessions")
	v.SetDefault("telemetry.record_sessions", false)

	// Rower profile defaults (Kettler Stroker)
	profile := rower.DefaultProfile()
	v.SetDefault("rower.impulses_per_revolution", profile.ImpulsesPerRevolution)
	v.SetDefault("rower.flywheel_inertia", profile.FlywheelInertia)
	v.SetDefault("rower.sprocket_radius", profile.SprocketRadius)
	v.SetDefault("rower.concept2_magic_number", profile.Concept2MagicNumber)
	v.SetDefault("rower.enable_debounce_filter", profile.EnableDebounceFilter)
	v.SetDefault("rower.rotation_debounce_min", profile.RotationDebounceMin)
	v.SetDefault("rower.rowing_stopped_threshold", profile.RowingStoppedThreshold)
	v.SetDefault("rower.goodness_of_fit_threshold", profile.GoodnessOfFitThreshold)
	v.SetDefault("rower.max_drag_factor_recovery_period", profile.MaxDragFactorRecoveryPeriod)
	v.SetDefault("rower.lower_drag_factor_threshold", profile.LowerDragFactorThreshold)
	v.SetDefault("rower.upper_drag_factor_threshold", profile.UpperDragFactorThreshold)
	v.SetDefault("rower.drag_coefficients_length", profile.DragCoefficientsLength)
	v.SetDefault("rower.minimum_powered_torque", profile.MinimumPoweredTorque)
	v.SetDefault("rower.minimum_drag_torque", profile.MinimumDragTorque)
	v.SetDefault("rower.minimum_recovery_time", profile.MinimumRecoveryTime)
	v.SetDefault("rower.minimum_drive_time", profile.MinimumDriveTime)
	v.SetDefault("rower.impulse_data_length", profile.ImpulseDataLength)
	v.SetDefault("rower.calibration_aggressiveness", profile.CalibrationAggressiveness)
	v.SetDefault("rower.calibration_buffer_capacity", profile.CalibrationBufferCapacity)

	// Auth defaults
	v.SetDefault("auth.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 7070,
		},
		Queue: QueueConfig{
			Type:           "nats",
			URL:            "nats://localhost:4222",
			ImpulseSubject: "rowsense.impulse",
			MetricsSubject: "rowsense.metrics",
		},
		Telemetry: TelemetryConfig{
			Enabled:         true,
			PublishInterval: 500 * time.Millisecond,
			SessionDir:      "./sessions",
			RecordSessions:  false,
		},
		Rower: rower.DefaultProfile(),
		Auth: AuthConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
