package handlers

import (
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	monitor *services.MonitorService
}

// New creates a new handler instance
func New(logger *logging.Logger, monitor *services.MonitorService) *Handler {
	return &Handler{
		logger:  logger,
		monitor: monitor,
	}
}
