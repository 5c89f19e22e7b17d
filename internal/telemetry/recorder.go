// Package telemetry broadcasts live rowing metrics over the message queue
// and records raw impulse streams to disk for later replay.
package telemetry

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/rowsense/rowsense/internal/compression"
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/models"
)

// SessionFileExt is the extension used for recorded session logs
const SessionFileExt = ".rlog"

// Frame layout on disk:
//
//	[varint payload length][4 byte crc32][snappy compressed JSON payload]
//
// The crc covers the compressed payload so corruption is detected before
// decompression.
const frameCRCSize = 4

// Recorder appends impulse messages to a session log file.
// Safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	file       *os.File
	w          *bufio.Writer
	compressor compression.Compressor
	sessionID  string
	path       string
	count      int
	closed     bool
	logger     *logging.Logger
}

// NewRecorder creates a session log in dir with a fresh session ID.
func NewRecorder(dir string, logger *logging.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", dir, err)
	}

	sessionID := uuid.New().String()
	path := filepath.Join(dir, sessionID+SessionFileExt)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create session file %s: %w", path, err)
	}

	logger.Info("Session recording started", "session_id", sessionID, "path", path)

	return &Recorder{
		file:       file,
		w:          bufio.NewWriter(file),
		compressor: compression.NewSnappyCompressor(),
		sessionID:  sessionID,
		path:       path,
		logger:     logger,
	}, nil
}

// SessionID returns the session identifier of this recording.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Path returns the session log file path.
func (r *Recorder) Path() string {
	return r.path
}

// Count returns the number of recorded messages.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Record appends one impulse message to the session log.
func (r *Recorder) Record(msg models.ImpulseMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal impulse message: %w", err)
	}

	compressed, err := r.compressor.Compress(payload)
	if err != nil {
		return fmt.Errorf("failed to compress impulse message: %w", err)
	}

	header := compression.AppendVarint(nil, uint64(len(compressed)))
	crc := make([]byte, frameCRCSize)
	binary.LittleEndian.PutUint32(crc, crc32.ChecksumIEEE(compressed))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder is closed")
	}

	if _, err := r.w.Write(header); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := r.w.Write(crc); err != nil {
		return fmt.Errorf("failed to write frame checksum: %w", err)
	}
	if _, err := r.w.Write(compressed); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}

	r.count++
	return nil
}

// Flush flushes buffered frames to disk.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush session log: %w", err)
	}
	return r.file.Sync()
}

// Close flushes and closes the session log.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.w.Flush(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("failed to flush session log: %w", err)
	}

	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}

	r.logger.Info("Session recording closed",
		"session_id", r.sessionID, "messages", r.count)
	return nil
}

// ReadSession reads a recorded session log back into impulse messages.
// Corrupted frames abort the read with an error.
func ReadSession(path string) ([]models.ImpulseMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
	}

	compressor := compression.NewSnappyCompressor()
	var messages []models.ImpulseMessage

	offset := 0
	for offset < len(data) {
		length, n := compression.ReadVarint(data[offset:])
		if n <= 0 {
			return nil, fmt.Errorf("corrupt frame header at offset %d", offset)
		}
		offset += n

		if offset+frameCRCSize > len(data) {
			return nil, fmt.Errorf("truncated frame checksum at offset %d", offset)
		}
		crc := binary.LittleEndian.Uint32(data[offset:])
		offset += frameCRCSize

		if offset+int(length) > len(data) {
			return nil, fmt.Errorf("truncated frame payload at offset %d", offset)
		}
		compressed := data[offset : offset+int(length)]
		offset += int(length)

		if crc32.ChecksumIEEE(compressed) != crc {
			return nil, fmt.Errorf("frame checksum mismatch at offset %d", offset)
		}

		payload, err := compressor.Decompress(compressed)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress frame: %w", err)
		}

		var msg models.ImpulseMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
