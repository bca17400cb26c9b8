package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bookstore/internal/config"
	"bookstore/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	payuProductionURL = "https://secure.payu.in"
	payuTestURL       = "https://sandboxsecure.payu.in"
)

// payuGateway submits a signed form to PayU's hosted checkout. No API call
// is needed to create a session: the signed form is the session.
type payuGateway struct {
	key     string
	salt    string
	baseURL string
	apiURL  string
	logger  zerolog.Logger
}

// NewPayU creates a PayU hosted checkout gateway.
func NewPayU(cfg config.PayUConfig, apiURL string, logger zerolog.Logger) Gateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = payuTestURL
		if cfg.Mode == "production" {
			baseURL = payuProductionURL
		}
	}
	return &payuGateway{
		key:     cfg.MerchantKey,
		salt:    cfg.MerchantSalt,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiURL:  apiURL,
		logger:  logger.With().Str("gateway", config.GatewayPayU).Logger(),
	}
}

func (g *payuGateway) Name() string { return config.GatewayPayU }

// payuField strips the hash separator so customer input cannot shift the
// positions of the signed fields.
func payuField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "|", " "))
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// requestHash signs key|txnid|amount|productinfo|firstname|email|udf1..udf5||||||salt.
func (g *payuGateway) requestHash(f map[string]string) string {
	return sha512Hex(strings.Join([]string{
		g.key, f["txnid"], f["amount"], f["productinfo"], f["firstname"], f["email"],
		f["udf1"], f["udf2"], f["udf3"], f["udf4"], f["udf5"],
		"", "", "", "", "",
		g.salt,
	}, "|"))
}

// responseHash signs salt|status||||||udf5..udf1|email|firstname|productinfo|amount|txnid|key,
// prefixed with additional charges when PayU reports them.
func (g *payuGateway) responseHash(f url.Values) string {
	fields := []string{
		g.salt, f.Get("status"),
		"", "", "", "", "",
		f.Get("udf5"), f.Get("udf4"), f.Get("udf3"), f.Get("udf2"), f.Get("udf1"),
		f.Get("email"), f.Get("firstname"), f.Get("productinfo"), f.Get("amount"), f.Get("txnid"), g.key,
	}
	if charges := f.Get("additionalCharges"); charges != "" {
		fields = append([]string{charges}, fields...)
	}
	return sha512Hex(strings.Join(fields, "|"))
}

func (g *payuGateway) CreateSession(ctx context.Context, order *model.Order) (*model.PaymentSession, error) {
	if _, err := ToMinorUnits(order.TotalAmount); err != nil {
		return nil, model.NewGatewayError("payment initiation failed", err)
	}

	// PayU limits txnid to 25 characters.
	txnID := "TXN_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	returnURL := g.apiURL + ReturnPath

	fields := map[string]string{
		"key":         g.key,
		"txnid":       txnID,
		"amount":      FormatAmount(order.TotalAmount),
		"productinfo": fmt.Sprintf("Bookstore order %d", order.ID),
		"firstname":   payuField(order.CustomerName),
		"email":       payuField(order.CustomerEmail),
		"phone":       payuField(order.CustomerPhone),
		"surl":        returnURL,
		"furl":        returnURL,
		"udf1":        strconv.FormatInt(order.ID, 10),
	}
	fields["hash"] = g.requestHash(fields)

	g.logger.Debug().
		Int64("order_id", order.ID).
		Str("txnid", txnID).
		Str("amount", fields["amount"]).
		Msg("payu session prepared")

	return &model.PaymentSession{
		Gateway:     g.Name(),
		SessionID:   txnID,
		RedirectURL: g.baseURL + "/_payment",
		Method:      http.MethodPost,
		Fields:      fields,
	}, nil
}

func (g *payuGateway) VerifyCallback(ctx context.Context, cb Callback) (*Verification, error) {
	form, err := url.ParseQuery(string(cb.Payload))
	if err != nil {
		return nil, invalidCallback("callback body is not form encoded")
	}

	for _, field := range []string{"txnid", "status", "hash", "amount"} {
		if form.Get(field) == "" {
			return nil, invalidCallback("callback is missing " + field)
		}
	}

	if key := form.Get("key"); key != "" && key != g.key {
		g.logger.Debug().Str("txnid", form.Get("txnid")).Msg("callback for a different merchant key")
		return nil, model.ErrSignatureMismatch
	}

	if !signaturesEqual(g.responseHash(form), form.Get("hash")) {
		return nil, model.ErrSignatureMismatch
	}

	amount, err := decimal.NewFromString(form.Get("amount"))
	if err != nil {
		return nil, invalidCallback("callback amount is not a number")
	}

	v := &Verification{
		SessionID: form.Get("txnid"),
		PaymentID: form.Get("mihpayid"),
		Status:    g.MapStatus(form.Get("status")),
		Amount:    &amount,
	}
	if v.Status == model.PaymentStatusPaid && v.PaymentID == "" {
		return nil, invalidCallback("successful callback has no mihpayid")
	}
	return v, nil
}

func (g *payuGateway) MapStatus(gatewayStatus string) model.PaymentStatus {
	switch strings.ToLower(gatewayStatus) {
	case "success":
		return model.PaymentStatusPaid
	case "pending":
		return model.PaymentStatusPending
	default:
		return model.PaymentStatusFailed
	}
}
