package models

import "github.com/rowsense/rowsense/internal/rower"

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// MetricsResponse represents the current rowing metrics snapshot
type MetricsResponse struct {
	Phase     string        `json:"phase"`
	Metrics   rower.Metrics `json:"metrics"`
	Timestamp string        `json:"timestamp"`
}

// CalibrationResponse represents the impulse calibration state
type CalibrationResponse struct {
	Slots             int       `json:"slots"`
	CorrectionFactors []float64 `json:"correction_factors"`
	WeightCorrection  float64   `json:"weight_correction"`
	Stabilized        bool      `json:"stabilized"`
	Misaligned        bool      `json:"misaligned"`
	Timestamp         string    `json:"timestamp"`
}

// SeriesPoint is a single point of the impulse trace
type SeriesPoint struct {
	Time  float64 `json:"time"`  // seconds since session start
	Value float64 `json:"value"` // inter-impulse interval in seconds
}

// SeriesResponse represents a (possibly downsampled) impulse trace
type SeriesResponse struct {
	Field  string        `json:"field"` // "raw" or "clean"
	Mode   string        `json:"mode"`
	Count  int           `json:"count"`
	Points []SeriesPoint `json:"points"`
}

// ResetResponse represents a session reset acknowledgment
type ResetResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
