package handler

import (
	"net/http"

	"github.com/rs/zerolog"
)

// ConfigHandler exposes client-facing store configuration.
type ConfigHandler struct {
	paymentClientID string
	logger          zerolog.Logger
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(paymentClientID string, logger zerolog.Logger) *ConfigHandler {
	return &ConfigHandler{
		paymentClientID: paymentClientID,
		logger:          logger.With().Str("handler", "config").Logger(),
	}
}

// GetPayConfig handles GET /api/config/pay requests. The client needs the
// payment provider client ID to render the checkout button.
func (h *ConfigHandler) GetPayConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"clientId": h.paymentClientID})
}
