package rower

import (
	"fmt"
	"time"
)

// Profile carries the physical constants and detection thresholds of one
// rowing machine. The defaults describe a Kettler-style magnetic rower
// with four impulses per flywheel revolution.
type Profile struct {
	ImpulsesPerRevolution int     `mapstructure:"impulses_per_revolution"`
	FlywheelInertia       float64 `mapstructure:"flywheel_inertia"`
	SprocketRadius        float64 `mapstructure:"sprocket_radius"`
	Concept2MagicNumber   float64 `mapstructure:"concept2_magic_number"`

	EnableDebounceFilter   bool          `mapstructure:"enable_debounce_filter"`
	RotationDebounceMin    time.Duration `mapstructure:"rotation_debounce_min"`
	RowingStoppedThreshold time.Duration `mapstructure:"rowing_stopped_threshold"`

	GoodnessOfFitThreshold      float64       `mapstructure:"goodness_of_fit_threshold"`
	MaxDragFactorRecoveryPeriod time.Duration `mapstructure:"max_drag_factor_recovery_period"`
	LowerDragFactorThreshold    float64       `mapstructure:"lower_drag_factor_threshold"`
	UpperDragFactorThreshold    float64       `mapstructure:"upper_drag_factor_threshold"`
	DragCoefficientsLength      int           `mapstructure:"drag_coefficients_length"`

	MinimumPoweredTorque float64       `mapstructure:"minimum_powered_torque"`
	MinimumDragTorque    float64       `mapstructure:"minimum_drag_torque"`
	MinimumRecoveryTime  time.Duration `mapstructure:"minimum_recovery_time"`
	MinimumDriveTime     time.Duration `mapstructure:"minimum_drive_time"`
	ImpulseDataLength    int           `mapstructure:"impulse_data_length"`

	CalibrationAggressiveness float64 `mapstructure:"calibration_aggressiveness"`
	CalibrationBufferCapacity int     `mapstructure:"calibration_buffer_capacity"`
}

// Validate checks the profile for values the engine cannot work with.
func (p *Profile) Validate() error {
	if p.ImpulsesPerRevolution < 1 {
		return fmt.Errorf("impulses_per_revolution must be at least 1, got %d", p.ImpulsesPerRevolution)
	}
	if p.FlywheelInertia <= 0 {
		return fmt.Errorf("flywheel_inertia must be positive, got %v", p.FlywheelInertia)
	}
	if p.Concept2MagicNumber <= 0 {
		return fmt.Errorf("concept2_magic_number must be positive, got %v", p.Concept2MagicNumber)
	}
	if p.CalibrationAggressiveness < 0 || p.CalibrationAggressiveness > 1 {
		return fmt.Errorf("calibration_aggressiveness must be in [0, 1], got %v", p.CalibrationAggressiveness)
	}
	if p.CalibrationBufferCapacity < 1 {
		return fmt.Errorf("calibration_buffer_capacity must be at least 1, got %d", p.CalibrationBufferCapacity)
	}
	if p.LowerDragFactorThreshold >= p.UpperDragFactorThreshold {
		return fmt.Errorf("lower_drag_factor_threshold (%v) must be below upper_drag_factor_threshold (%v)",
			p.LowerDragFactorThreshold, p.UpperDragFactorThreshold)
	}
	if p.DragCoefficientsLength < 1 {
		return fmt.Errorf("drag_coefficients_length must be at least 1, got %d", p.DragCoefficientsLength)
	}
	if p.ImpulseDataLength < 4 {
		return fmt.Errorf("impulse_data_length must be at least 4, got %d", p.ImpulseDataLength)
	}
	return nil
}

// DefaultProfile returns the Kettler Stroker profile.
func DefaultProfile() Profile {
	return Profile{
		ImpulsesPerRevolution: 4,
		FlywheelInertia:       0.0293,
		// Driven pulley radii multiplied, divided by the driving pulley
		// radius: one equivalent radius for the whole pulley train.
		SprocketRadius:      6.5 / 8.0 * 1.6875,
		Concept2MagicNumber: 2.8,

		EnableDebounceFilter:   false,
		RotationDebounceMin:    8 * time.Millisecond,
		RowingStoppedThreshold: 7 * time.Second,

		GoodnessOfFitThreshold:      0.8,
		MaxDragFactorRecoveryPeriod: 6 * time.Second,
		LowerDragFactorThreshold:    25,
		UpperDragFactorThreshold:    2500,
		DragCoefficientsLength:      10,

		MinimumPoweredTorque: 0,
		MinimumDragTorque:    0.4,
		MinimumRecoveryTime:  500 * time.Millisecond,
		MinimumDriveTime:     200 * time.Millisecond,
		ImpulseDataLength:    8,

		CalibrationAggressiveness: 0.5,
		CalibrationBufferCapacity: 250,
	}
}
