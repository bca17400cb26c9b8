package handler

import (
	"net/http"
	"strings"
	"time"

	"bookstore/internal/model"
	"bookstore/internal/service"

	"github.com/rs/zerolog"
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

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err, 0, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// Get handles GET /api/orders/{orderId} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "orderId")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid order ID", h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, 0, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{orderId}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "orderId")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid order ID", h.logger)
		return
	}

	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	status, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err, id, h.logger)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		writeDomainError(w, r, err, id, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// List handles GET /api/admin/orders requests.
//
// Query parameters: status, startDate and endDate (YYYY-MM-DD or RFC 3339),
// sortBy (created_at, total_amount), order (asc, desc), page, limit.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		writeDomainError(w, r, err, 0, h.logger)
		return
	}

	page, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err, 0, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func parseOrderFilter(r *http.Request) (model.OrderFilter, error) {
	q := r.URL.Query()
	var filter model.OrderFilter

	if s := q.Get("status"); s != "" && s != "all" {
		status, err := model.ParsePaymentStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	from, err := parseDate(q.Get("startDate"), false)
	if err != nil {
		return filter, model.NewValidationError(model.ErrCodeInvalidField, "startDate must be YYYY-MM-DD or RFC 3339")
	}
	to, err := parseDate(q.Get("endDate"), true)
	if err != nil {
		return filter, model.NewValidationError(model.ErrCodeInvalidField, "endDate must be YYYY-MM-DD or RFC 3339")
	}
	filter.From, filter.To = from, to

	switch sortBy := q.Get("sortBy"); sortBy {
	case "", string(model.OrderSortCreatedAt):
		filter.SortBy = model.OrderSortCreatedAt
	case string(model.OrderSortTotalAmount):
		filter.SortBy = model.OrderSortTotalAmount
	default:
		return filter, model.NewValidationError(model.ErrCodeInvalidField, "sortBy must be created_at or total_amount")
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		return filter, model.NewValidationError(model.ErrCodeInvalidField, "order must be asc or desc")
	}

	if filter.Page, err = queryInt(r, "page"); err != nil {
		return filter, model.NewValidationError(model.ErrCodeInvalidField, "page must be an integer")
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, model.NewValidationError(model.ErrCodeInvalidField, "limit must be an integer")
	}

	return filter, nil
}

// parseDate accepts a calendar date or a full timestamp. A bare end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
