package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"blogify/internal/apperr"
)

// Envelope is the single response shape used by every endpoint.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"statusCode"`
	Code       string              `json:"code,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
	Timestamp  string              `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{
		Success:    true,
		Message:    message,
		StatusCode: status,
		Data:       data,
		Timestamp:  timestamp(),
	})
}

// writeError renders err as a failure envelope. Internal failures are logged
// and reported with a generic message only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.As(err)
	status := appErr.Kind.Status()

	if appErr.Kind == apperr.KindInternal {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	writeJSON(w, status, Envelope{
		Success:    false,
		Message:    appErr.Message,
		StatusCode: status,
		Code:       appErr.Kind.Code(),
		Errors:     appErr.Fields,
		Timestamp:  timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
