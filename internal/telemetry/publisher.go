package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rowsense/rowsense/internal/config"
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/models"
	"github.com/rowsense/rowsense/internal/queue"
)

// Publisher broadcasts metrics and calibration snapshots over the queue.
type Publisher struct {
	publisher          queue.Publisher
	metricsSubject     string
	calibrationSubject string
	logger             *logging.Logger
}

// NewPublisher creates a telemetry publisher on top of an existing
// queue connection.
func NewPublisher(pub queue.Publisher, cfg config.QueueConfig, logger *logging.Logger) *Publisher {
	return &Publisher{
		publisher:          pub,
		metricsSubject:     cfg.MetricsSubjectFor("rowing"),
		calibrationSubject: cfg.MetricsSubjectFor("calibration"),
		logger:             logger,
	}
}

// PublishMetrics publishes a rowing metrics snapshot.
func (p *Publisher) PublishMetrics(ctx context.Context, metrics models.MetricsResponse) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := p.publisher.Publish(ctx, p.metricsSubject, data); err != nil {
		return fmt.Errorf("failed to publish metrics: %w", err)
	}
	return nil
}

// PublishCalibration publishes a calibration state snapshot.
func (p *Publisher) PublishCalibration(ctx context.Context, cal models.CalibrationResponse) error {
	data, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration state: %w", err)
	}

	if err := p.publisher.Publish(ctx, p.calibrationSubject, data); err != nil {
		return fmt.Errorf("failed to publish calibration state: %w", err)
	}
	return nil
}

// PublishSnapshot publishes metrics and calibration state as a single batch.
// Returns the number of messages accepted by the queue.
func (p *Publisher) PublishSnapshot(ctx context.Context, metrics models.MetricsResponse, cal models.CalibrationResponse) (int, error) {
	metricsData, err := json.Marshal(metrics)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	calData, err := json.Marshal(cal)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal calibration state: %w", err)
	}

	count, err := p.publisher.PublishBatch(ctx, []queue.BatchMessage{
		{Subject: p.metricsSubject, Data: metricsData},
		{Subject: p.calibrationSubject, Data: calData},
	})
	if err != nil {
		return count, fmt.Errorf("failed to publish snapshot batch: %w", err)
	}
	return count, nil
}
