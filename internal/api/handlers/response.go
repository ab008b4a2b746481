package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an AppError type onto an HTTP status. Internal details are not
// echoed to the client.
func respondWithAppError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		respondWithError(w, http.StatusBadRequest, messageOf(err))
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		respondWithError(w, http.StatusNotFound, messageOf(err))
	case apperrors.IsType(err, apperrors.ErrorTypeExternal):
		respondWithError(w, http.StatusBadGateway, "upstream service failed")
	default:
		log.Error().Err(err).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func messageOf(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
