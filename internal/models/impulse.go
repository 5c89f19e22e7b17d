package models

import (
	"fmt"
	"time"
)

// ImpulseMessage is the wire format published by sensor firmware for every
// flywheel impulse. DeltaMicros is the time between this impulse and the
// previous one, measured by the sensor clock.
type ImpulseMessage struct {
	DeviceID    string `json:"device_id"`
	Sequence    uint64 `json:"sequence"`
	DeltaMicros int64  `json:"delta_micros"`
	Timestamp   int64  `json:"timestamp,omitempty"` // unix micros, sensor wall clock
}

// Delta returns the inter-impulse interval as a duration.
func (m *ImpulseMessage) Delta() time.Duration {
	return time.Duration(m.DeltaMicros) * time.Microsecond
}

// Validate checks that the message is usable by the stroke engine.
func (m *ImpulseMessage) Validate() error {
	if m.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if m.DeltaMicros <= 0 {
		return fmt.Errorf("delta_micros must be positive, got %d", m.DeltaMicros)
	}
	return nil
}
