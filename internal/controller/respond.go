package controller

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps typed service errors onto JSON error bodies.
func writeError(w http.ResponseWriter, err error) {
	status := appErrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
