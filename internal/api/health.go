package api

import (
	"context"
	"net/http"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	database Pinger
}

func NewHealthHandler(database Pinger) *HealthHandler {
	return &HealthHandler{database: database}
}

// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK

	if err := h.database.PingContext(r.Context()); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	}

	result := "ok"
	message := "Service is healthy"
	if status != http.StatusOK {
		result = "degraded"
		message = "Service is degraded"
	}

	writeJSON(w, status, Envelope{
		Success:    status == http.StatusOK,
		Message:    message,
		StatusCode: status,
		Data: map[string]any{
			"status": result,
			"checks": map[string]string{
				"database": dbStatus,
			},
		},
		Timestamp: timestamp(),
	})
}
