package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bookstore/internal/config"
	"bookstore/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Paths on this service that gateways send customers and notifications to.
const (
	ReturnPath  = "/api/payments/return"
	WebhookPath = "/api/payments/webhook"
)

// Gateway is a hosted-checkout payment provider. Exactly one implementation
// is active per deployment.
type Gateway interface {
	// Name identifies the gateway in persisted payment attempts.
	Name() string

	// CreateSession asks the gateway for a hosted checkout page for the
	// order's total.
	CreateSession(ctx context.Context, order *model.Order) (*model.PaymentSession, error)

	// VerifyCallback authenticates an inbound redirect or webhook and
	// extracts its outcome. It returns model.ErrSignatureMismatch when the
	// signature does not match and a validation error when the payload is
	// malformed.
	VerifyCallback(ctx context.Context, cb Callback) (*Verification, error)

	// MapStatus translates the gateway's status vocabulary.
	MapStatus(gatewayStatus string) model.PaymentStatus
}

// Callback is an inbound gateway notification exactly as received.
type Callback struct {
	// Payload is the raw request body, or the raw query string for
	// redirects that arrive as GET.
	Payload     []byte
	Signature   string
	ContentType string
}

// Verification is the authenticated outcome carried by a callback.
type Verification struct {
	SessionID string
	PaymentID string
	Status    model.PaymentStatus
	// Amount is nil when the gateway does not report one in this callback.
	Amount *decimal.Decimal
}

// New returns the gateway selected by configuration.
func New(cfg config.PaymentConfig, client *http.Client, logger zerolog.Logger) (Gateway, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}

	switch cfg.Gateway {
	case config.GatewayPayU:
		return NewPayU(cfg.PayU, cfg.APIURL, logger), nil
	case config.GatewayRazorpay:
		return NewRazorpay(cfg.Razorpay, cfg.APIURL, client, logger), nil
	case config.GatewayPhonePe:
		return NewPhonePe(cfg.PhonePe, cfg.APIURL, client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported payment gateway: %s", cfg.Gateway)
	}
}

func invalidCallback(message string) error {
	return model.NewValidationError(model.ErrCodeInvalidCallback, message)
}

func hmacSHA256Hex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func sha256Hex(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// signaturesEqual compares hex digests in constant time. Hex case is not
// significant.
func signaturesEqual(expected, received string) bool {
	return hmac.Equal(
		[]byte(strings.ToLower(expected)),
		[]byte(strings.ToLower(strings.TrimSpace(received))),
	)
}

// shortID returns eight hex characters for gateway reference ids that have
// length limits.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// apiRequest describes one outbound JSON call to a gateway.
type apiRequest struct {
	method   string
	url      string
	headers  map[string]string
	username string
	password string
	body     any
	// verify, when set, authenticates a 2xx response before it is decoded.
	verify func(header http.Header, body []byte) error
}

// doJSON performs a gateway API call and decodes a 2xx JSON response into
// out. Transport failures and non-2xx responses are returned as gateway
// errors that keep the response body for logs.
func doJSON(ctx context.Context, client *http.Client, r apiRequest, out any) error {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return model.NewGatewayError("payment initiation failed", fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return model.NewGatewayError("payment initiation failed", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.NewGatewayError("payment initiation failed", fmt.Errorf("gateway unreachable: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.NewGatewayError("payment initiation failed", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.NewGatewayError("payment initiation failed",
			fmt.Errorf("gateway returned %d: %s", resp.StatusCode, truncate(string(respBody), 512)))
	}

	if r.verify != nil {
		if err := r.verify(resp.Header, respBody); err != nil {
			return err
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return model.NewGatewayError("payment initiation failed", fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
