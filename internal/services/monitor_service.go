package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rowsense/rowsense/internal/config"
	"github.com/rowsense/rowsense/internal/downsampling"
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/models"
	"github.com/rowsense/rowsense/internal/queue"
	"github.com/rowsense/rowsense/internal/rower"
	"github.com/rowsense/rowsense/internal/telemetry"
)

const (
	// tickInterval drives the stopped-rowing timeout check
	tickInterval = 250 * time.Millisecond

	// publishTimeout bounds a single telemetry broadcast
	publishTimeout = 2 * time.Second

	// maxTracePoints caps the in-memory impulse trace. When the cap is
	// reached the oldest half is discarded.
	maxTracePoints = 1 << 16
)

// MonitorService consumes impulse messages from the queue, drives the
// stroke engine and exposes thread safe snapshots for the HTTP API and
// telemetry broadcasting.
type MonitorService struct {
	mu     sync.RWMutex
	cfg    *config.Config
	engine *rower.Engine
	logger *logging.Logger

	subscriber queue.Subscriber
	publisher  *telemetry.Publisher // nil when telemetry is disabled
	recorder   *telemetry.Recorder  // nil when session recording is disabled

	rawTrace   []downsampling.Point
	cleanTrace []downsampling.Point

	lastSequence    uint64
	lastStrokeCount int
	misaligned      bool
	dropped         uint64

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewMonitorService creates a monitor service. Publisher and recorder are
// optional and may be nil.
func NewMonitorService(cfg *config.Config, sub queue.Subscriber,
	pub *telemetry.Publisher, rec *telemetry.Recorder, logger *logging.Logger,
) *MonitorService {
	return &MonitorService{
		cfg:        cfg,
		engine:     rower.NewEngine(cfg.Rower),
		logger:     logger,
		subscriber: sub,
		publisher:  pub,
		recorder:   rec,
		stopCh:     make(chan struct{}),
	}
}

// Start subscribes to the impulse subject and starts the background loops.
func (s *MonitorService) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("monitor service already started")
	}
	s.started = true
	s.mu.Unlock()

	if s.subscriber != nil {
		if err := s.subscriber.Subscribe(s.cfg.Queue.ImpulseSubject, s.HandleImpulse); err != nil {
			return fmt.Errorf("failed to subscribe to impulse subject: %w", err)
		}
		s.logger.Info("Subscribed to impulse stream", "subject", s.cfg.Queue.ImpulseSubject)
	}

	s.wg.Add(1)
	go s.tickLoop()

	if s.publisher != nil && s.cfg.Telemetry.Enabled {
		s.wg.Add(1)
		go s.publishLoop()
	}

	return nil
}

// Stop stops the background loops and unsubscribes from the queue.
func (s *MonitorService) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	if s.subscriber != nil {
		if err := s.subscriber.Unsubscribe(s.cfg.Queue.ImpulseSubject); err != nil {
			s.logger.Warn("Failed to unsubscribe from impulse stream", "error", err)
		}
	}

	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			return fmt.Errorf("failed to close session recorder: %w", err)
		}
	}

	return nil
}

// HandleImpulse processes one impulse message from the queue.
// Malformed messages are dropped rather than redelivered.
func (s *MonitorService) HandleImpulse(data []byte) error {
	var msg models.ImpulseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("Dropping unparsable impulse message", "error", err)
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return nil
	}

	if err := msg.Validate(); err != nil {
		s.logger.Warn("Dropping invalid impulse message",
			"error", err, "device_id", msg.DeviceID)
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	if msg.Sequence != 0 && s.lastSequence != 0 && msg.Sequence != s.lastSequence+1 {
		s.logger.Warn("Impulse sequence gap",
			"expected", s.lastSequence+1, "got", msg.Sequence, "device_id", msg.DeviceID)
	}
	if msg.Sequence != 0 {
		s.lastSequence = msg.Sequence
	}

	s.engine.OnImpulse(msg.Delta())

	fw := s.engine.Flywheel()
	t := fw.TotalTimeSeconds()
	s.rawTrace = appendTrace(s.rawTrace, downsampling.Point{Time: t, Value: fw.RawDelta()})
	s.cleanTrace = appendTrace(s.cleanTrace, downsampling.Point{Time: t, Value: fw.CleanDelta()})

	// Re-evaluate sensor misalignment once per completed stroke, when the
	// recovery regressors hold a full sweep.
	if count := s.engine.Metrics().StrokeCount; count != s.lastStrokeCount {
		s.lastStrokeCount = count
		s.misaligned = fw.Filter().IsPotentiallyMisaligned()
		if s.misaligned {
			s.logger.Warn("Impulse calibration potentially misaligned",
				"stroke", count, "device_id", msg.DeviceID)
		}
	}
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Record(msg); err != nil {
			s.logger.Error("Failed to record impulse", "error", err)
		}
	}

	return nil
}

// appendTrace appends a point, discarding the oldest half when full.
func appendTrace(trace []downsampling.Point, p downsampling.Point) []downsampling.Point {
	if len(trace) >= maxTracePoints {
		half := len(trace) / 2
		trace = append(trace[:0], trace[half:]...)
	}
	return append(trace, p)
}

// MetricsSnapshot returns the current rowing metrics.
func (s *MonitorService) MetricsSnapshot() models.MetricsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.MetricsResponse{
		Phase:     s.engine.Phase().String(),
		Metrics:   s.engine.Metrics(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CalibrationSnapshot returns the current impulse calibration state.
func (s *MonitorService) CalibrationSnapshot() models.CalibrationResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := s.engine.Flywheel().Filter()
	return models.CalibrationResponse{
		Slots:             filter.NumberOfSlots(),
		CorrectionFactors: filter.CorrectionFactors(),
		WeightCorrection:  filter.WeightCorrection(),
		Stabilized:        filter.IsStabilized(),
		Misaligned:        s.misaligned,
		Timestamp:         time.Now().Format(time.RFC3339),
	}
}

// Series returns the impulse trace for the given field, downsampled with
// the given mode and threshold.
func (s *MonitorService) Series(field string, mode downsampling.Mode, threshold int) (models.SeriesResponse, error) {
	if field != "raw" && field != "clean" {
		return models.SeriesResponse{}, NewServiceError("INVALID_FIELD",
			fmt.Sprintf("field must be 'raw' or 'clean', got '%s'", field))
	}
	if !downsampling.IsValid(string(mode)) {
		return models.SeriesResponse{}, NewServiceError("INVALID_MODE",
			fmt.Sprintf("invalid downsampling mode '%s'", mode))
	}

	s.mu.RLock()
	trace := s.rawTrace
	if field == "clean" {
		trace = s.cleanTrace
	}
	points := make([]downsampling.Point, len(trace))
	copy(points, trace)
	s.mu.RUnlock()

	sampled, err := downsampling.Apply(points, mode, threshold)
	if err != nil {
		return models.SeriesResponse{}, NewServiceError("INVALID_MODE", err.Error())
	}

	resp := models.SeriesResponse{
		Field:  field,
		Mode:   string(mode),
		Count:  len(sampled),
		Points: make([]models.SeriesPoint, len(sampled)),
	}
	for i, p := range sampled {
		resp.Points[i] = models.SeriesPoint{Time: p.Time, Value: p.Value}
	}
	return resp, nil
}

// ResetSession discards the current session: a fresh engine replaces the
// old one and the impulse traces are cleared. Learned calibration does not
// survive a reset.
func (s *MonitorService) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine = rower.NewEngine(s.cfg.Rower)
	s.rawTrace = nil
	s.cleanTrace = nil
	s.lastSequence = 0
	s.lastStrokeCount = 0
	s.misaligned = false

	s.logger.Info("Session reset")
}

// DroppedMessages returns the number of discarded queue messages.
func (s *MonitorService) DroppedMessages() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Engine exposes the underlying engine for tools that drive it directly.
// Callers must not use it concurrently with a started service.
func (s *MonitorService) Engine() *rower.Engine {
	return s.engine
}

func (s *MonitorService) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.engine.Tick()
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MonitorService) publishLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Telemetry.PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := s.MetricsSnapshot()
			cal := s.CalibrationSnapshot()

			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if _, err := s.publisher.PublishSnapshot(ctx, metrics, cal); err != nil {
				s.logger.Error("Failed to publish telemetry snapshot", "error", err)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}
