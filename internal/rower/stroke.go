package rower

import (
	"math"
	"time"

	"github.com/rowsense/rowsense/internal/series"
)

// Phase is the engine's position in the stroke cycle.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseDrive
	PhaseRecovery
)

func (p Phase) String() string {
	switch p {
	case PhaseDrive:
		return "drive"
	case PhaseRecovery:
		return "recovery"
	default:
		return "stopped"
	}
}

// Metrics is the rowing state derived from the impulse stream.
type Metrics struct {
	TotalTime          time.Duration `json:"total_time"`
	Distance           float64       `json:"distance"`
	StrokeCount        int           `json:"stroke_count"`
	StrokeRate         float64       `json:"stroke_rate"`
	DriveDuration      time.Duration `json:"drive_duration"`
	RecoveryDuration   time.Duration `json:"recovery_duration"`
	AverageStrokePower float64       `json:"average_stroke_power"`
	DragFactor         float64       `json:"drag_factor"`
	Speed              float64       `json:"speed"`
}

// The recovery trend line is handed to the calibration filter only once
// it rests on at least this many samples.
const minRegressionSamples = 3

// Engine classifies impulses into drive and recovery phases and derives
// rowing metrics. Drag is learned from the recovery-phase deceleration
// trend; the same trend backs the calibration filter's learning target.
//
// An Engine is owned by a single goroutine.
type Engine struct {
	profile  Profile
	flywheel *Flywheel

	phase            Phase
	phaseStartTime   float64
	strokeStartTime  float64
	strokeStartAngle float64
	lastDriveTime    float64

	recoveryTS  *series.TSLinearSeries
	recoveryOLS *series.OLSLinearSeries

	dragCoefficients *series.Series
	dragCoefficient  float64

	metrics       Metrics
	lastImpulseAt time.Time
	now           func() time.Time
}

func NewEngine(profile Profile) *Engine {
	return &Engine{
		profile:  profile,
		flywheel: NewFlywheel(profile),
		// The recovery regressors are unbounded within an epoch; they are
		// reset at every drive start.
		recoveryTS:       series.NewTSLinearSeries(0),
		recoveryOLS:      series.NewOLSLinearSeries(0),
		dragCoefficients: series.NewSeries(profile.DragCoefficientsLength),
		now:              time.Now,
	}
}

// OnImpulse ingests one raw impulse delta-time and advances the stroke
// state machine.
func (e *Engine) OnImpulse(rawDelta time.Duration) {
	e.lastImpulseAt = e.now()
	if !e.flywheel.OnImpulse(rawDelta) {
		return
	}

	// Distance accrues continuously once the drag coefficient is known:
	// each impulse advances the boat by the Concept2 distance-per-angle.
	if e.dragCoefficient > 0 {
		e.metrics.Distance += math.Cbrt(e.dragCoefficient/e.profile.Concept2MagicNumber) * e.flywheel.AnglePerImpulse()
	}

	torque := e.flywheel.Torque(e.dragCoefficient)

	switch e.phase {
	case PhaseStopped:
		if torque > e.profile.MinimumPoweredTorque {
			e.beginDrive()
		}
	case PhaseDrive:
		if torque < e.profile.MinimumDragTorque && e.phaseElapsed() >= e.profile.MinimumDriveTime.Seconds() {
			e.beginRecovery()
		}
	case PhaseRecovery:
		if torque > e.profile.MinimumPoweredTorque && e.phaseElapsed() >= e.profile.MinimumRecoveryTime.Seconds() {
			e.completeStroke()
			e.beginDrive()
		} else {
			e.onRecoveryImpulse()
		}
	}

	e.metrics.TotalTime = e.flywheel.TotalTime()
}

// Tick checks the rowing-stopped timeout; the owning service calls it
// periodically between impulses.
func (e *Engine) Tick() {
	if e.phase == PhaseStopped {
		return
	}
	if e.now().Sub(e.lastImpulseAt) >= e.profile.RowingStoppedThreshold {
		e.stop()
	}
}

func (e *Engine) phaseElapsed() float64 {
	return e.flywheel.TotalTimeSeconds() - e.phaseStartTime
}

func (e *Engine) beginDrive() {
	e.phase = PhaseDrive
	e.phaseStartTime = e.flywheel.TotalTimeSeconds()
	e.strokeStartTime = e.phaseStartTime
	e.strokeStartAngle = e.flywheel.TotalAngle()
}

func (e *Engine) beginRecovery() {
	e.lastDriveTime = e.phaseElapsed()
	e.phase = PhaseRecovery
	e.phaseStartTime = e.flywheel.TotalTimeSeconds()
	e.recoveryTS.Reset()
	e.recoveryOLS.Reset()
}

// onRecoveryImpulse extends the deceleration trend. During recovery the
// calibrated delta-times grow linearly with time, which makes them both
// the drag source and the calibration filter's regression target.
func (e *Engine) onRecoveryImpulse() {
	t := e.flywheel.TotalTimeSeconds()
	clean := e.flywheel.CleanDelta()
	e.recoveryTS.Push(t, clean)
	e.recoveryOLS.Push(t, clean)
	e.flywheel.RecordTrendDatapoint()

	if e.recoveryOLS.Size() >= minRegressionSamples {
		e.flywheel.UpdateRegression(e.recoveryTS.CoefficientA(), e.recoveryTS.CoefficientB(), e.recoveryOLS.GoodnessOfFit())
	}
}

func (e *Engine) completeStroke() {
	recoveryTime := e.phaseElapsed()
	e.updateDrag(recoveryTime)

	strokeTime := e.flywheel.TotalTimeSeconds() - e.strokeStartTime
	strokeAngle := e.flywheel.TotalAngle() - e.strokeStartAngle
	if strokeTime > 0 {
		avgVelocity := strokeAngle / strokeTime
		e.metrics.AverageStrokePower = e.dragCoefficient * math.Pow(avgVelocity, 3)
		e.metrics.Speed = math.Cbrt(e.dragCoefficient/e.profile.Concept2MagicNumber) * avgVelocity
		e.metrics.StrokeRate = 60 / strokeTime
	}

	e.metrics.StrokeCount++
	e.metrics.DriveDuration = secondsToDuration(e.lastDriveTime)
	e.metrics.RecoveryDuration = secondsToDuration(recoveryTime)
}

// updateDrag derives the drag coefficient from the recovery trend slope:
// the delta-time growth rate equals k/I times the angle per impulse. The
// sample is accepted only for a trustworthy, plausibly long recovery and
// a drag factor inside the machine's plausible range.
func (e *Engine) updateDrag(recoveryTime float64) {
	if e.recoveryOLS.GoodnessOfFit() < e.profile.GoodnessOfFitThreshold {
		return
	}
	if recoveryTime > e.profile.MaxDragFactorRecoveryPeriod.Seconds() {
		return
	}

	k := e.profile.FlywheelInertia * e.recoveryTS.CoefficientA() / e.flywheel.AnglePerImpulse()
	dragFactor := k * 1e6
	if dragFactor < e.profile.LowerDragFactorThreshold || dragFactor > e.profile.UpperDragFactorThreshold {
		return
	}

	e.dragCoefficients.Push(k)
	e.dragCoefficient = e.dragCoefficients.Median()
	e.metrics.DragFactor = e.dragCoefficient * 1e6
}

func (e *Engine) stop() {
	e.phase = PhaseStopped
	e.flywheel.ResetMotion()
	e.recoveryTS.Reset()
	e.recoveryOLS.Reset()
	e.metrics.StrokeRate = 0
	e.metrics.Speed = 0
}

// Phase returns the current stroke phase.
func (e *Engine) Phase() Phase { return e.phase }

// Metrics returns a copy of the current rowing metrics.
func (e *Engine) Metrics() Metrics { return e.metrics }

// DragCoefficient returns the current smoothed drag coefficient.
func (e *Engine) DragCoefficient() float64 { return e.dragCoefficient }

// Flywheel exposes the underlying flywheel for diagnostics.
func (e *Engine) Flywheel() *Flywheel { return e.flywheel }

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
