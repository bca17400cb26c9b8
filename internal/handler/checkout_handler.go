package handler

import (
	"net/http"

	"bookstore/internal/model"
	"bookstore/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout and payment initiation requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Checkout handles POST /api/checkout requests.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		var orderID int64
		if resp != nil && resp.Order != nil {
			orderID = resp.Order.ID
		}
		writeDomainError(w, r, err, orderID, h.logger)
		return
	}

	status := http.StatusCreated
	if resp.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// CreatePayment handles POST /api/create-payment requests.
func (h *CheckoutHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.OrderID <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "order_id is required", h.logger)
		return
	}

	session, err := h.service.InitiatePayment(r.Context(), req.OrderID)
	if err != nil {
		writeDomainError(w, r, err, req.OrderID, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
