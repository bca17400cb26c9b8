package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bookstore/internal/model"
	"bookstore/internal/payment"
	"bookstore/internal/service"

	"github.com/rs/zerolog"
)

// Signature headers used by the supported gateways. PayU signs inside the
// form body instead.
var signatureHeaders = []string{"X-Razorpay-Signature", "X-VERIFY"}

// PaymentHandler receives gateway callbacks.
type PaymentHandler struct {
	service     service.CheckoutService
	frontendURL string
	logger      zerolog.Logger
}

// NewPaymentHandler creates a new payment callback handler. Customers are
// redirected to frontendURL once their payment settles.
func NewPaymentHandler(service service.CheckoutService, frontendURL string, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.With().Str("handler", "payment").Logger(),
	}
}

// WebhookAck is the body of every webhook response.
type WebhookAck struct {
	Received  bool `json:"received"`
	Processed bool `json:"processed"`
}

// Webhook handles POST /api/payments/webhook. It always acknowledges with
// 200 so gateways do not retry callbacks that will never verify.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	cb, err := readCallback(w, r)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read webhook body")
		writeJSON(w, http.StatusOK, WebhookAck{Received: true})
		return
	}

	outcome, err := h.service.HandleCallback(r.Context(), cb)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("kind", model.KindOf(err).String()).
			Msg("webhook not processed")
		writeJSON(w, http.StatusOK, WebhookAck{Received: true})
		return
	}

	writeJSON(w, http.StatusOK, WebhookAck{Received: true, Processed: outcome.Applied || outcome.Duplicate})
}

// Return handles the customer's browser coming back from the hosted
// payment page, as either a GET or a form POST.
func (h *PaymentHandler) Return(w http.ResponseWriter, r *http.Request) {
	cb, err := readCallback(w, r)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read payment return")
		h.redirect(w, r, nil)
		return
	}

	outcome, err := h.service.HandleCallback(r.Context(), cb)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("kind", model.KindOf(err).String()).
			Msg("payment return not processed")
		outcome = nil
	}

	h.redirect(w, r, outcome)
}

func (h *PaymentHandler) redirect(w http.ResponseWriter, r *http.Request, outcome *model.CallbackOutcome) {
	target := h.frontendURL + "/payment-failed"
	q := url.Values{}

	if outcome != nil {
		q.Set("orderId", fmt.Sprintf("%d", outcome.OrderID))
		if outcome.Status == model.PaymentStatusPaid {
			target = h.frontendURL + "/payment-success"
		} else {
			q.Set("status", string(outcome.Status))
		}
	}

	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// readCallback captures a callback exactly as received. GET redirects carry
// their payload in the query string.
func readCallback(w http.ResponseWriter, r *http.Request) (payment.Callback, error) {
	cb := payment.Callback{ContentType: r.Header.Get("Content-Type")}
	for _, name := range signatureHeaders {
		if sig := r.Header.Get(name); sig != "" {
			cb.Signature = sig
			break
		}
	}

	if r.Method == http.MethodGet {
		cb.Payload = []byte(r.URL.RawQuery)
		cb.ContentType = "application/x-www-form-urlencoded"
		return cb, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return cb, err
	}
	cb.Payload = body
	return cb, nil
}
