package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/JeonghakHeo/Proshop-again/internal/middleware"
	"github.com/JeonghakHeo/Proshop-again/internal/model"
	"github.com/JeonghakHeo/Proshop-again/internal/payment"
	"github.com/JeonghakHeo/Proshop-again/internal/service"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// payRequest is the payment callback body. The shape follows the capture
// object the payment provider posts back: id, status, update_time and the
// payer block, plus the captured amount and currency.
type payRequest struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	UpdateTime string          `json:"update_time"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), actor, &req)
	if err != nil {
		// Validation failures from the service are plain errors with a
		// descriptive message; surface those as 400s.
		if msg := err.Error(); strings.Contains(msg, "required") ||
			strings.Contains(msg, "must contain") ||
			strings.Contains(msg, "incomplete") {
			writeError(w, http.StatusBadRequest, msg, h.logger)
			return
		}
		writeDomainError(w, err, "failed to create order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	orderID, ok := h.orderID(w, r, "")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetMine handles GET /api/orders/mine requests.
func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err, "failed to list orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// List handles GET /api/orders requests (admin).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.service.ListOrders(r.Context(), actor, limit, offset)
	if err != nil {
		writeDomainError(w, err, "failed to list orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Pay handles PUT /api/orders/{id}/pay requests.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	orderID, ok := h.orderID(w, r, "/pay")
	if !ok {
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	assertion := payment.Assertion{
		ExternalID: req.ID,
		Status:     req.Status,
		Amount:     req.Amount,
		Currency:   req.Currency,
		PayerEmail: req.Payer.EmailAddress,
		UpdateTime: req.UpdateTime,
	}

	order, err := h.service.PayOrder(r.Context(), actor, orderID, assertion)
	if err != nil {
		writeDomainError(w, err, "failed to pay order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Sent handles PUT /api/orders/{id}/sent requests (admin).
func (h *OrderHandler) Sent(w http.ResponseWriter, r *http.Request) {
	h.fulfil(w, r, "/sent", h.service.MarkSent)
}

// Deliver handles PUT /api/orders/{id}/deliver requests (admin).
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.fulfil(w, r, "/deliver", h.service.MarkDelivered)
}

// Delete handles DELETE /api/orders/{id} requests (admin).
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	orderID, ok := h.orderID(w, r, "")
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), actor, orderID); err != nil {
		writeDomainError(w, err, "failed to delete order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order removed"})
}

// fulfil runs an admin fulfilment transition endpoint.
func (h *OrderHandler) fulfil(
	w http.ResponseWriter,
	r *http.Request,
	suffix string,
	transition func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error),
) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", h.logger)
		return
	}

	orderID, ok := h.orderID(w, r, suffix)
	if !ok {
		return
	}

	order, err := transition(r.Context(), actor, orderID)
	if err != nil {
		writeDomainError(w, err, "failed to update order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// orderID extracts and parses the order ID segment from the request path,
// expecting /api/orders/{id}{suffix}. It writes the error response itself
// when the path is malformed.
func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request, suffix string) (uuid.UUID, bool) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if suffix != "" {
		idStr = strings.TrimSuffix(idStr, suffix)
	}
	idStr = strings.Trim(idStr, "/")

	if idStr == "" {
		writeError(w, http.StatusBadRequest, "order ID is required", h.logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}

	return orderID, true
}
