package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bookstore/internal/config"
	"bookstore/internal/model"

	"github.com/rs/zerolog"
)

const phonePePayPath = "/pg/v1/pay"

// phonePeGateway uses the PhonePe PG v1 pay page. Requests and callbacks
// are signed with SHA-256 over the base64 payload, the endpoint and the
// salt key, suffixed with ###<salt index>.
type phonePeGateway struct {
	merchantID string
	saltKey    string
	saltIndex  string
	baseURL    string
	apiURL     string
	client     *http.Client
	logger     zerolog.Logger
}

// NewPhonePe creates a PhonePe pay page gateway.
func NewPhonePe(cfg config.PhonePeConfig, apiURL string, client *http.Client, logger zerolog.Logger) Gateway {
	return &phonePeGateway{
		merchantID: cfg.MerchantID,
		saltKey:    cfg.SaltKey,
		saltIndex:  cfg.SaltIndex,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiURL:     apiURL,
		client:     client,
		logger:     logger.With().Str("gateway", config.GatewayPhonePe).Logger(),
	}
}

func (g *phonePeGateway) Name() string { return config.GatewayPhonePe }

func (g *phonePeGateway) checksum(parts ...string) string {
	return sha256Hex(strings.Join(parts, "")+g.saltKey) + "###" + g.saltIndex
}

type phonePePayRequest struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	MerchantUserID        string `json:"merchantUserId"`
	Amount                int64  `json:"amount"`
	RedirectURL           string `json:"redirectUrl"`
	RedirectMode          string `json:"redirectMode"`
	CallbackURL           string `json:"callbackUrl"`
	MobileNumber          string `json:"mobileNumber,omitempty"`
	PaymentInstrument     struct {
		Type string `json:"type"`
	} `json:"paymentInstrument"`
}

// phonePeResponse is shared by the pay API, the status API and decoded
// server-to-server callbacks.
type phonePeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantID            string `json:"merchantId"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL    string `json:"url"`
				Method string `json:"method"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

func (g *phonePeGateway) CreateSession(ctx context.Context, order *model.Order) (*model.PaymentSession, error) {
	paise, err := ToMinorUnits(order.TotalAmount)
	if err != nil {
		return nil, model.NewGatewayError("payment initiation failed", err)
	}

	req := phonePePayRequest{
		MerchantID:            g.merchantID,
		MerchantTransactionID: fmt.Sprintf("MT%d_%s", order.ID, shortID()),
		MerchantUserID:        fmt.Sprintf("MU%d", order.ID),
		Amount:                paise,
		RedirectURL:           g.apiURL + ReturnPath,
		RedirectMode:          "POST",
		CallbackURL:           g.apiURL + WebhookPath,
		MobileNumber:          order.CustomerPhone,
	}
	req.PaymentInstrument.Type = "PAY_PAGE"

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, model.NewGatewayError("payment initiation failed", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	var resp phonePeResponse
	err = doJSON(ctx, g.client, apiRequest{
		method:  http.MethodPost,
		url:     g.baseURL + phonePePayPath,
		headers: map[string]string{"X-VERIFY": g.checksum(encoded, phonePePayPath)},
		body:    map[string]string{"request": encoded},
	}, &resp)
	if err != nil {
		return nil, err
	}

	redirect := resp.Data.InstrumentResponse.RedirectInfo.URL
	if !resp.Success || redirect == "" {
		return nil, model.NewGatewayError("payment initiation failed",
			fmt.Errorf("phonepe rejected pay request: %s %s", resp.Code, resp.Message))
	}

	g.logger.Debug().
		Int64("order_id", order.ID).
		Str("merchant_transaction_id", req.MerchantTransactionID).
		Int64("amount_paise", paise).
		Msg("phonepe pay page created")

	method := resp.Data.InstrumentResponse.RedirectInfo.Method
	if method == "" {
		method = http.MethodGet
	}
	return &model.PaymentSession{
		Gateway:     g.Name(),
		SessionID:   req.MerchantTransactionID,
		RedirectURL: redirect,
		Method:      method,
	}, nil
}

// VerifyCallback accepts the signed server-to-server callback. The customer
// redirect carries no usable signature, so its outcome is confirmed with the
// status API instead.
func (g *phonePeGateway) VerifyCallback(ctx context.Context, cb Callback) (*Verification, error) {
	if cb.Signature != "" {
		return g.verifyServerCallback(cb)
	}
	return g.confirmRedirect(ctx, cb)
}

func (g *phonePeGateway) verifyServerCallback(cb Callback) (*Verification, error) {
	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(cb.Payload, &envelope); err != nil || envelope.Response == "" {
		return nil, invalidCallback("callback body has no response field")
	}

	if !g.checksumMatches(cb.Signature, envelope.Response) {
		return nil, model.ErrSignatureMismatch
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, invalidCallback("callback response is not base64")
	}

	var resp phonePeResponse
	if err := json.Unmarshal(decoded, &resp); err != nil {
		return nil, invalidCallback("callback response is not valid JSON")
	}
	return g.verification(resp)
}

func (g *phonePeGateway) checksumMatches(header string, parts ...string) bool {
	digest, index, ok := strings.Cut(header, "###")
	if !ok || index != g.saltIndex {
		return false
	}
	expected, _, _ := strings.Cut(g.checksum(parts...), "###")
	return signaturesEqual(expected, digest)
}

func (g *phonePeGateway) confirmRedirect(ctx context.Context, cb Callback) (*Verification, error) {
	form, err := url.ParseQuery(string(cb.Payload))
	if err != nil {
		return nil, invalidCallback("redirect parameters are not form encoded")
	}
	txnID := form.Get("transactionId")
	if txnID == "" {
		txnID = form.Get("merchantTransactionId")
	}
	if txnID == "" {
		return nil, invalidCallback("redirect is missing transactionId")
	}

	path := fmt.Sprintf("/pg/v1/status/%s/%s", url.PathEscape(g.merchantID), url.PathEscape(txnID))
	var resp phonePeResponse
	err = doJSON(ctx, g.client, apiRequest{
		method: http.MethodGet,
		url:    g.baseURL + path,
		headers: map[string]string{
			"X-VERIFY":      g.checksum(path),
			"X-MERCHANT-ID": g.merchantID,
		},
		verify: g.verifyStatusResponse,
	}, &resp)
	if err != nil {
		return nil, err
	}
	switch resp.Data.MerchantTransactionID {
	case "":
		resp.Data.MerchantTransactionID = txnID
	case txnID:
	default:
		return nil, model.ErrSignatureMismatch
	}
	return g.verification(resp)
}

// verifyStatusResponse checks the X-VERIFY checksum of a status API response
// when PhonePe sends one. Responses without the header rely on the TLS
// connection to the configured API host.
func (g *phonePeGateway) verifyStatusResponse(header http.Header, body []byte) error {
	sig := header.Get("X-VERIFY")
	if sig == "" {
		return nil
	}
	if !g.checksumMatches(sig, string(body)) {
		g.logger.Warn().Msg("status response checksum mismatch")
		return model.ErrSignatureMismatch
	}
	return nil
}

func (g *phonePeGateway) verification(resp phonePeResponse) (*Verification, error) {
	if resp.Data.MerchantID != "" && resp.Data.MerchantID != g.merchantID {
		return nil, model.ErrSignatureMismatch
	}
	if resp.Data.MerchantTransactionID == "" {
		return nil, invalidCallback("callback has no merchantTransactionId")
	}

	amount := FromMinorUnits(resp.Data.Amount)
	v := &Verification{
		SessionID: resp.Data.MerchantTransactionID,
		PaymentID: resp.Data.TransactionID,
		Status:    g.MapStatus(resp.Code),
		Amount:    &amount,
	}
	if v.Status == model.PaymentStatusPaid && v.PaymentID == "" {
		return nil, invalidCallback("successful callback has no transactionId")
	}
	return v, nil
}

func (g *phonePeGateway) MapStatus(gatewayStatus string) model.PaymentStatus {
	switch strings.ToUpper(gatewayStatus) {
	case "PAYMENT_SUCCESS":
		return model.PaymentStatusPaid
	case "PAYMENT_PENDING", "PAYMENT_INITIATED", "INTERNAL_SERVER_ERROR":
		return model.PaymentStatusPending
	default:
		return model.PaymentStatusFailed
	}
}
