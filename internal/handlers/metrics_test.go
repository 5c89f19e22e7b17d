package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/rowsense/rowsense/internal/config"
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/models"
	"github.com/rowsense/rowsense/internal/services"
)

func testApp(t *testing.T) (*fiber.App, *services.MonitorService) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Queue.Type = "memory"
	cfg.Queue.URL = ""
	cfg.Telemetry.Enabled = false

	logger := logging.NewDevelopment()
	monitor := services.NewMonitorService(cfg, nil, nil, nil, logger)
	handler := New(logger, monitor)

	app := fiber.New()
	app.Get("/api/v1/metrics", handler.Metrics)
	app.Get("/api/v1/calibration", handler.Calibration)
	app.Get("/api/v1/series", handler.Series)
	app.Post("/api/v1/session/reset", handler.ResetSession)

	return app, monitor
}

func feedImpulses(t *testing.T, monitor *services.MonitorService, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		data, err := json.Marshal(models.ImpulseMessage{
			DeviceID:    "erg-01",
			Sequence:    uint64(i),
			DeltaMicros: 50000,
		})
		if err != nil {
			t.Fatalf("Failed to marshal impulse: %v", err)
		}
		if err := monitor.HandleImpulse(data); err != nil {
			t.Fatalf("Failed to handle impulse: %v", err)
		}
	}
}

func TestHandler_Metrics(t *testing.T) {
	app, monitor := testApp(t)
	feedImpulses(t, monitor, 20)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/metrics", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var snapshot models.MetricsResponse
	if err := json.Unmarshal(body, &snapshot); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if snapshot.Metrics.TotalTime <= 0 {
		t.Errorf("Expected positive total time, got %v", snapshot.Metrics.TotalTime)
	}
	if snapshot.Phase == "" {
		t.Error("Expected non-empty phase")
	}
}

func TestHandler_Calibration(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/calibration", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var cal models.CalibrationResponse
	if err := json.Unmarshal(body, &cal); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if cal.Slots != 4 {
		t.Errorf("Expected 4 slots, got %d", cal.Slots)
	}
	if len(cal.CorrectionFactors) != 4 {
		t.Errorf("Expected 4 correction factors, got %d", len(cal.CorrectionFactors))
	}
}

func TestHandler_Series(t *testing.T) {
	app, monitor := testApp(t)
	feedImpulses(t, monitor, 100)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/series?field=raw&mode=none", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var series models.SeriesResponse
	if err := json.Unmarshal(body, &series); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if series.Count != 100 {
		t.Errorf("Expected 100 points, got %d", series.Count)
	}
	if series.Field != "raw" {
		t.Errorf("Expected field raw, got %s", series.Field)
	}
}

func TestHandler_SeriesInvalidField(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/series?field=bogus", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", fiber.StatusBadRequest, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if errResp.Error.Code != "INVALID_FIELD" {
		t.Errorf("Expected error code INVALID_FIELD, got %s", errResp.Error.Code)
	}
}

func TestHandler_ResetSession(t *testing.T) {
	app, monitor := testApp(t)
	feedImpulses(t, monitor, 50)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/session/reset", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	if snapshot := monitor.MetricsSnapshot(); snapshot.Metrics.TotalTime != 0 {
		t.Errorf("Expected zero total time after reset, got %v", snapshot.Metrics.TotalTime)
	}
}
