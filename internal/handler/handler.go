package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a service error to an HTTP response. Domain errors
// carry their code and message to the client; anything else is a 500 with a
// generic message.
func writeDomainError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, fallback, logger)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case model.ErrCodeOrderNotFound, model.ErrCodeProductNotFound:
		status = http.StatusNotFound
	case model.ErrCodeUnauthorised:
		status = http.StatusForbidden
	case model.ErrCodeInvalidQuantity, model.ErrCodeMissingField, model.ErrCodeInvalidJSON:
		status = http.StatusBadRequest
	case model.ErrCodeInvalidState, model.ErrCodeAlreadyPaid, model.ErrCodeConflict:
		status = http.StatusConflict
	case model.ErrCodePaymentNotCompleted, model.ErrCodeAmountMismatch, model.ErrCodeCurrencyMismatch:
		status = http.StatusUnprocessableEntity
	case model.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	}

	logger.Warn().
		Str("code", domainErr.Code).
		Int("status", status).
		Msg("domain error")
	writeJSON(w, status, ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
}
