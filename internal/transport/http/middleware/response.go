package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// writeJSONError writes the standard error envelope. Gate rejections carry no
// internal detail beyond the message and error type.
func writeJSONError(w http.ResponseWriter, status int, errType, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   false,
		"message":   msg,
		"error":     map[string]string{"type": errType},
		"error_id":  uuid.NewString(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
