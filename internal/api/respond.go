package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "valetbay/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps the typed service errors onto their HTTP status and hides
// internals behind a generic 500 message.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.StatusCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		message = "internal server error"
	}
	writeJSON(w, code, map[string]string{"error": message})
}
