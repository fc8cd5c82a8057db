package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-auth-api/internal/domain"
	"github.com/google/uuid"
)

// productionMode controls 5xx message shaping: when set, internal error
// details are replaced with a generic message. Set once at router build time.
var productionMode bool

// SetProduction toggles production error shaping.
func SetProduction(v bool) { productionMode = v }

// SuccessEnvelope is the generic success wrapper.
type SuccessEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorEnvelope is the generic error wrapper. ErrorID correlates the response
// with the server-side log line.
type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Error     ErrorBody `json:"error"`
	ErrorID   string    `json:"error_id"`
	Timestamp string    `json:"timestamp"`
}

type ErrorBody struct {
	Type string `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, SuccessEnvelope{Success: true, Message: message, Data: data})
}

// writeError maps a domain sentinel to its HTTP status and error type and
// writes the error envelope. Unrecognised errors become 500s; in production
// their message is masked and the original is only logged.
func writeError(w http.ResponseWriter, err error) {
	status, errType := classify(err)
	errorID := uuid.NewString()
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error_id", errorID, "err", err)
		if productionMode {
			msg = "something went wrong, please try again later"
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, ErrorEnvelope{
		Success:   false,
		Message:   msg,
		Error:     ErrorBody{Type: errType},
		ErrorID:   errorID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, domain.ErrRequestTimeout):
		return http.StatusRequestTimeout, "REQUEST_TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// badRequest wraps a plain message as a 400 sentinel error.
func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, &envelopeError{msg: msg, sentinel: domain.ErrBadRequest})
}

type envelopeError struct {
	msg      string
	sentinel error
}

func (e *envelopeError) Error() string { return e.msg }
func (e *envelopeError) Unwrap() error { return e.sentinel }
