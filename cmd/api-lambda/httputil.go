package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
)

// respondJSON writes data with the given status. Success and error payloads
// share this path so every response is shaped the same way.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps a domain error onto its HTTP status and wire payload.
func respondError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	payload := apperr.Wire(err)
	log.Error().
		Int("status", status).
		Str("type", string(payload.Type)).
		Str("error", payload.Error).
		Str("details", payload.Details).
		Msg("Request failed")
	respondJSON(w, status, payload)
}
