package handler

import (
	"net/http"
	"strings"

	"orderdesk/internal/middleware"
	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/refund"
	"orderdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StatusRequest is the body of POST /api/orders/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ItemRequest is the body of PATCH /api/orders/{id}/items/{itemId}.
type ItemRequest struct {
	IsReady *bool `json:"isReady"`
}

// RefundRequest is the body of POST /api/orders/{id}/refunds.
type RefundRequest struct {
	TransactionID      string            `json:"transactionId,omitempty"`
	Amount             money.MinorAmount `json:"amount"`
	ItemIDs            []uuid.UUID       `json:"itemIds"`
	ReturnToStock      bool              `json:"returnToStock"`
	IncludeDeliveryFee bool              `json:"includeDeliveryFee"`
}

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

// GetByID handles GET /api/orders/{id} requests. Cache-Control: no-cache
// reads past the order cache.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	get := h.service.GetOrderView
	if strings.Contains(r.Header.Get("Cache-Control"), "no-cache") {
		get = h.service.RefreshOrderView
	}
	view, err := get(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateStatus handles POST /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.Status == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "status is required", h.logger)
		return
	}
	target, err := model.ParseStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	view, err := h.service.TransitionStatus(r.Context(), orderID, target, middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateItem handles PATCH /api/orders/{id}/items/{itemId} requests.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(w, r, "itemId")
	if !ok {
		return
	}

	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.IsReady == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "isReady is required", h.logger)
		return
	}

	view, err := h.service.SetItemReady(r.Context(), orderID, itemID, *req.IsReady, middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Refund handles POST /api/orders/{id}/refunds requests.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	res, err := h.service.Refund(r.Context(), refund.Request{
		OrderID:            orderID,
		TransactionID:      req.TransactionID,
		Amount:             req.Amount,
		ItemIDs:            req.ItemIDs,
		ReturnToStock:      req.ReturnToStock,
		IncludeDeliveryFee: req.IncludeDeliveryFee,
		Actor:              middleware.ActorFromContext(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// QuoteRefund handles POST /api/orders/{id}/refunds/quote requests.
func (h *OrderHandler) QuoteRefund(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	var sel refund.Selection
	if err := decodeJSON(r, &sel); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	mode, err := refund.ParseMode(string(sel.Mode))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error(), h.logger)
		return
	}
	sel.Mode = mode

	quote, err := h.service.QuoteRefund(r.Context(), orderID, sel)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (h *OrderHandler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid "+name+" format", h.logger)
		return uuid.Nil, false
	}
	return id, true
}
