package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestImpulseMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     ImpulseMessage
		wantErr bool
	}{
		{"valid", ImpulseMessage{DeviceID: "erg-01", Sequence: 1, DeltaMicros: 50000}, false},
		{"missing device", ImpulseMessage{DeltaMicros: 50000}, true},
		{"zero delta", ImpulseMessage{DeviceID: "erg-01"}, true},
		{"negative delta", ImpulseMessage{DeviceID: "erg-01", DeltaMicros: -10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImpulseMessageDelta(t *testing.T) {
	msg := ImpulseMessage{DeviceID: "erg-01", DeltaMicros: 50000}
	if got := msg.Delta(); got != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", got)
	}
}

func TestImpulseMessageJSON(t *testing.T) {
	data := []byte(`{"device_id":"erg-01","sequence":42,"delta_micros":48120}`)

	var msg ImpulseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if msg.DeviceID != "erg-01" || msg.Sequence != 42 || msg.DeltaMicros != 48120 {
		t.Errorf("unexpected message: %+v", msg)
	}

	if msg.Timestamp != 0 {
		t.Errorf("expected zero timestamp when omitted, got %d", msg.Timestamp)
	}
}
