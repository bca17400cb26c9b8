package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bookstore/internal/config"
	"bookstore/internal/model"

	"github.com/rs/zerolog"
)

// razorpayGateway uses Payment Links, which give a hosted page without any
// client-side SDK.
type razorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	apiURL        string
	client        *http.Client
	logger        zerolog.Logger
}

// NewRazorpay creates a Razorpay Payment Links gateway.
func NewRazorpay(cfg config.RazorpayConfig, apiURL string, client *http.Client, logger zerolog.Logger) Gateway {
	return &razorpayGateway{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiURL:        apiURL,
		client:        client,
		logger:        logger.With().Str("gateway", config.GatewayRazorpay).Logger(),
	}
}

func (g *razorpayGateway) Name() string { return config.GatewayRazorpay }

type razorpayCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type razorpayLinkRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	AcceptPartial  bool              `json:"accept_partial"`
	ReferenceID    string            `json:"reference_id"`
	Description    string            `json:"description"`
	Customer       razorpayCustomer  `json:"customer"`
	Notify         map[string]bool   `json:"notify"`
	Notes          map[string]string `json:"notes"`
	CallbackURL    string            `json:"callback_url"`
	CallbackMethod string            `json:"callback_method"`
}

type razorpayLink struct {
	ID         string `json:"id"`
	ShortURL   string `json:"short_url"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
}

func (g *razorpayGateway) CreateSession(ctx context.Context, order *model.Order) (*model.PaymentSession, error) {
	paise, err := ToMinorUnits(order.TotalAmount)
	if err != nil {
		return nil, model.NewGatewayError("payment initiation failed", err)
	}

	orderID := strconv.FormatInt(order.ID, 10)
	req := razorpayLinkRequest{
		Amount:        paise,
		Currency:      "INR",
		AcceptPartial: false,
		ReferenceID:   fmt.Sprintf("order_%d_%s", order.ID, shortID()),
		Description:   "Bookstore order " + orderID,
		Customer: razorpayCustomer{
			Name:    order.CustomerName,
			Email:   order.CustomerEmail,
			Contact: order.CustomerPhone,
		},
		Notify:         map[string]bool{"sms": false, "email": false},
		Notes:          map[string]string{"order_id": orderID},
		CallbackURL:    g.apiURL + ReturnPath,
		CallbackMethod: "get",
	}

	var link razorpayLink
	err = doJSON(ctx, g.client, apiRequest{
		method:   http.MethodPost,
		url:      g.baseURL + "/v1/payment_links",
		username: g.keyID,
		password: g.keySecret,
		body:     req,
	}, &link)
	if err != nil {
		return nil, err
	}
	if link.ID == "" || link.ShortURL == "" {
		return nil, model.NewGatewayError("payment initiation failed", fmt.Errorf("payment link response missing id or short_url"))
	}

	g.logger.Debug().
		Int64("order_id", order.ID).
		Str("payment_link_id", link.ID).
		Int64("amount_paise", paise).
		Msg("razorpay payment link created")

	return &model.PaymentSession{
		Gateway:     g.Name(),
		SessionID:   link.ID,
		RedirectURL: link.ShortURL,
		Method:      http.MethodGet,
	}, nil
}

// VerifyCallback handles both the signed webhook (X-Razorpay-Signature over
// the raw body) and the customer redirect (razorpay_signature over the
// payment link fields).
func (g *razorpayGateway) VerifyCallback(ctx context.Context, cb Callback) (*Verification, error) {
	if cb.Signature != "" {
		return g.verifyWebhook(cb)
	}
	return g.verifyRedirect(cb)
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink *struct {
			Entity razorpayLink `json:"entity"`
		} `json:"payment_link"`
		Payment *struct {
			Entity struct {
				ID     string `json:"id"`
				Amount int64  `json:"amount"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (g *razorpayGateway) verifyWebhook(cb Callback) (*Verification, error) {
	if g.webhookSecret == "" {
		g.logger.Warn().Msg("webhook received but no webhook secret is configured")
		return nil, model.ErrSignatureMismatch
	}
	if !signaturesEqual(hmacSHA256Hex(g.webhookSecret, string(cb.Payload)), cb.Signature) {
		return nil, model.ErrSignatureMismatch
	}

	var event razorpayWebhook
	if err := json.Unmarshal(cb.Payload, &event); err != nil {
		return nil, invalidCallback("webhook body is not valid JSON")
	}
	if event.Payload.PaymentLink == nil || event.Payload.PaymentLink.Entity.ID == "" {
		return nil, invalidCallback("unsupported webhook event " + event.Event)
	}

	link := event.Payload.PaymentLink.Entity
	v := &Verification{
		SessionID: link.ID,
		Status:    g.MapStatus(link.Status),
	}
	if p := event.Payload.Payment; p != nil {
		v.PaymentID = p.Entity.ID
		amount := FromMinorUnits(p.Entity.Amount)
		v.Amount = &amount
	}
	if v.Status == model.PaymentStatusPaid && v.PaymentID == "" {
		return nil, invalidCallback("paid webhook has no payment entity")
	}
	return v, nil
}

func (g *razorpayGateway) verifyRedirect(cb Callback) (*Verification, error) {
	form, err := url.ParseQuery(string(cb.Payload))
	if err != nil {
		return nil, invalidCallback("redirect parameters are not form encoded")
	}

	linkID := form.Get("razorpay_payment_link_id")
	signature := form.Get("razorpay_signature")
	if linkID == "" || signature == "" {
		return nil, invalidCallback("redirect is missing payment link id or signature")
	}

	paymentID := form.Get("razorpay_payment_id")
	status := form.Get("razorpay_payment_link_status")
	message := strings.Join([]string{
		linkID,
		form.Get("razorpay_payment_link_reference_id"),
		status,
		paymentID,
	}, "|")

	if !signaturesEqual(hmacSHA256Hex(g.keySecret, message), signature) {
		return nil, model.ErrSignatureMismatch
	}

	v := &Verification{
		SessionID: linkID,
		PaymentID: paymentID,
		Status:    g.MapStatus(status),
	}
	if v.Status == model.PaymentStatusPaid && v.PaymentID == "" {
		return nil, invalidCallback("paid redirect has no payment id")
	}
	return v, nil
}

func (g *razorpayGateway) MapStatus(gatewayStatus string) model.PaymentStatus {
	switch strings.ToLower(gatewayStatus) {
	case "paid", "captured":
		return model.PaymentStatusPaid
	case "created", "issued", "partially_paid", "authorized":
		return model.PaymentStatusPending
	default:
		return model.PaymentStatusFailed
	}
}
