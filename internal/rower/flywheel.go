// Package rower turns raw flywheel impulse delta-times into calibrated
// angular motion, stroke phases and rowing metrics.
//
// The pipeline per impulse: optional debounce merge, cyclic error
// correction, then a robust quadratic fit of cumulative angular position
// against time from which angular velocity and acceleration are read.
// The stroke engine on top classifies drive and recovery phases from the
// estimated handle torque and derives drag, power, speed and distance.
package rower

import (
	"math"
	"time"

	"github.com/rowsense/rowsense/internal/calibration"
	"github.com/rowsense/rowsense/internal/series"
)

// Flywheel tracks the angular motion of the machine's flywheel from
// impulse delta-times. It owns the cyclic error filter and feeds it the
// raw samples the stroke engine marks as trend-worthy.
//
// A Flywheel is not safe for concurrent use; one goroutine owns it.
type Flywheel struct {
	profile Profile
	filter  *calibration.CyclicErrorFilter
	angular *series.TSQuadraticSeries

	anglePerImpulse float64
	pendingBounce   float64

	rawImpulseCount int
	lastPosition    int
	totalTime       float64
	totalAngle      float64
	lastRawDelta    float64
	lastCleanDelta  float64
}

func NewFlywheel(profile Profile) *Flywheel {
	return &Flywheel{
		profile: profile,
		filter: calibration.NewCyclicErrorFilter(
			profile.ImpulsesPerRevolution,
			profile.ImpulseDataLength,
			profile.CalibrationAggressiveness,
			profile.CalibrationBufferCapacity,
		),
		angular:         series.NewTSQuadraticSeries(profile.ImpulseDataLength),
		anglePerImpulse: 2 * math.Pi / float64(profile.ImpulsesPerRevolution),
	}
}

// OnImpulse ingests one raw impulse delta-time. It returns false when
// the impulse was swallowed by the debounce filter; its time is then
// merged into the next accepted impulse so no rotation is lost.
func (fw *Flywheel) OnImpulse(rawDelta time.Duration) bool {
	raw := rawDelta.Seconds()
	if fw.profile.EnableDebounceFilter && rawDelta < fw.profile.RotationDebounceMin {
		fw.pendingBounce += raw
		return false
	}
	raw += fw.pendingBounce
	fw.pendingBounce = 0

	fw.lastPosition = fw.rawImpulseCount
	fw.rawImpulseCount++

	clean := fw.filter.ApplyFilter(fw.lastPosition, raw)
	fw.lastRawDelta = raw
	fw.lastCleanDelta = clean
	fw.totalTime += clean
	fw.totalAngle += fw.anglePerImpulse
	fw.angular.Push(fw.totalTime, fw.totalAngle)

	// Learning is paced to one buffered sample per impulse.
	fw.filter.ProcessNextRawDatapoint()
	return true
}

// RecordTrendDatapoint hands the last accepted raw sample to the filter's
// learning buffer. The stroke engine calls this only during recovery,
// where the deceleration trend makes the regression target valid.
func (fw *Flywheel) RecordTrendDatapoint() {
	fw.filter.RecordRawDatapoint(fw.lastPosition, fw.totalTime, fw.lastRawDelta)
}

// UpdateRegression installs the recovery trend line the filter learns
// against.
func (fw *Flywheel) UpdateRegression(slope, intercept, goodnessOfFit float64) {
	fw.filter.UpdateRegressionCoefficients(slope, intercept, goodnessOfFit)
}

// AngularVelocity returns the current flywheel angular velocity in rad/s,
// 0 until enough impulses are in the fit window.
func (fw *Flywheel) AngularVelocity() float64 {
	return fw.angular.FirstDerivative(fw.angular.Size() - 1)
}

// AngularAcceleration returns the current angular acceleration in rad/s².
func (fw *Flywheel) AngularAcceleration() float64 {
	return fw.angular.SecondDerivative(fw.angular.Size() - 1)
}

// Torque estimates the net handle torque in N·m given the current drag
// coefficient: the torque accelerating the flywheel plus the torque
// spent against drag.
func (fw *Flywheel) Torque(dragCoefficient float64) float64 {
	omega := fw.AngularVelocity()
	return fw.profile.FlywheelInertia*fw.AngularAcceleration() + dragCoefficient*omega*omega
}

func (fw *Flywheel) TotalTime() time.Duration {
	return time.Duration(fw.totalTime * float64(time.Second))
}

// TotalTimeSeconds is the calibrated cumulative time in seconds, the
// x-axis shared by the angular fit and the recovery regressors.
func (fw *Flywheel) TotalTimeSeconds() float64 { return fw.totalTime }

func (fw *Flywheel) TotalAngle() float64      { return fw.totalAngle }
func (fw *Flywheel) AnglePerImpulse() float64 { return fw.anglePerImpulse }
func (fw *Flywheel) RawImpulseCount() int     { return fw.rawImpulseCount }
func (fw *Flywheel) RawDelta() float64        { return fw.lastRawDelta }
func (fw *Flywheel) CleanDelta() float64      { return fw.lastCleanDelta }

// Filter exposes the calibration filter for diagnostics.
func (fw *Flywheel) Filter() *calibration.CyclicErrorFilter { return fw.filter }

// ResetMotion clears the angular fit window after a rowing stop so stale
// derivatives cannot leak into the next session. Calibration state,
// cumulative time and displacement survive.
func (fw *Flywheel) ResetMotion() {
	fw.angular.Reset()
	fw.pendingBounce = 0
}
