package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the persisted payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// ParsePaymentStatus canonicalises the status vocabulary used by the
// storefront and the gateways onto pending, paid and failed.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return PaymentStatusPending, nil
	case "paid", "completed", "success", "captured":
		return PaymentStatusPaid, nil
	case "failed", "failure":
		return PaymentStatusFailed, nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal reports whether no automatic transition leaves this status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// CheckoutState is the orchestrator's view of an order.
type CheckoutState string

const (
	CheckoutStateCreated         CheckoutState = "created"
	CheckoutStateAwaitingPayment CheckoutState = "awaiting_payment"
	CheckoutStatePaid            CheckoutState = "paid"
	CheckoutStateFailed          CheckoutState = "failed"
)

// ShippingAddress is stored as JSON on the order row.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Street        string `json:"street"`
	Apartment     string `json:"apartment,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// Validate checks that every required address line is present.
func (a ShippingAddress) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"shipping_address.recipient_name", a.RecipientName},
		{"shipping_address.street", a.Street},
		{"shipping_address.city", a.City},
		{"shipping_address.state", a.State},
		{"shipping_address.postal_code", a.PostalCode},
		{"shipping_address.country", a.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return NewValidationError(ErrCodeMissingField, f.name+" is required")
		}
	}
	return nil
}

// Order represents a customer order.
type Order struct {
	ID              int64           `json:"order_id" db:"order_id"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   string          `json:"customer_email" db:"customer_email"`
	CustomerPhone   string          `json:"customer_phone" db:"customer_phone"`
	TransactionID   *string         `json:"transaction_id" db:"transaction_id"`
	PaymentID       *string         `json:"payment_id" db:"payment_id"`
	Gateway         *string         `json:"gateway,omitempty" db:"gateway"`
	CartFingerprint string          `json:"-" db:"cart_fingerprint"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CheckoutState derives the orchestrator state from the persisted columns.
func (o *Order) CheckoutState() CheckoutState {
	switch o.PaymentStatus {
	case PaymentStatusPaid:
		return CheckoutStatePaid
	case PaymentStatusFailed:
		return CheckoutStateFailed
	}
	if o.TransactionID != nil {
		return CheckoutStateAwaitingPayment
	}
	return CheckoutStateCreated
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID       int64           `json:"id" db:"id"`
	OrderID  int64           `json:"order_id" db:"order_id"`
	BookID   int64           `json:"book_id" db:"book_id"`
	Title    string          `json:"title,omitempty" db:"title"`
	Quantity int             `json:"quantity" db:"quantity"`
	Price    decimal.Decimal `json:"price" db:"price"`
}

// Subtotal is price multiplied by quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums the line item subtotals.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderRequest represents the request payload for creating an order.
// Any client-side total is deliberately absent: the server computes it.
type OrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress ShippingAddress    `json:"shipping_address"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	BookID   int64           `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Validate rejects malformed requests before anything is written.
func (r *OrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyCart
	}
	for i, item := range r.Items {
		if item.BookID <= 0 {
			return NewValidationError(ErrCodeInvalidID, fmt.Sprintf("items[%d].book_id must be a positive integer", i))
		}
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.Price.IsNegative() || !item.Price.Equal(item.Price.Round(2)) {
			return ErrInvalidPrice
		}
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return NewValidationError(ErrCodeMissingField, "customer_name is required")
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return NewValidationError(ErrCodeMissingField, "customer_email is required")
	}
	if _, err := mail.ParseAddress(r.CustomerEmail); err != nil {
		return NewValidationError(ErrCodeInvalidField, "customer_email is not a valid address")
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return NewValidationError(ErrCodeMissingField, "customer_phone is required")
	}
	return r.ShippingAddress.Validate()
}

// BookIDs returns the distinct book ids referenced by the request.
func (r *OrderRequest) BookIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Items))
	ids := make([]int64, 0, len(r.Items))
	for _, item := range r.Items {
		if _, ok := seen[item.BookID]; ok {
			continue
		}
		seen[item.BookID] = struct{}{}
		ids = append(ids, item.BookID)
	}
	return ids
}

// CartFingerprint identifies a customer's cart independent of item order.
// Two checkouts with the same fingerprint are the same purchase attempt.
func (r *OrderRequest) CartFingerprint() string {
	lines := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, fmt.Sprintf("%d:%d:%s", item.BookID, item.Quantity, item.Price.StringFixed(2)))
	}
	sort.Strings(lines)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(r.CustomerEmail))))
	h.Write([]byte{'\n'})
	h.Write([]byte(strings.Join(lines, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order         *Order        `json:"order"`
	CheckoutState CheckoutState `json:"checkout_state"`
	Items         []OrderItem   `json:"items"`
}

// NewOrderResponse pairs an order with its items.
func NewOrderResponse(order *Order, items []OrderItem) *OrderResponse {
	if items == nil {
		items = []OrderItem{}
	}
	return &OrderResponse{Order: order, CheckoutState: order.CheckoutState(), Items: items}
}

// StatusUpdateRequest is the body of an administrative status override.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// CheckAdminTransition applies the override policy for manual status
// changes. Only a pending order may be cancelled; paid can only be reached
// through a verified gateway confirmation and terminal states never move.
func CheckAdminTransition(from, to PaymentStatus) error {
	if from == to {
		return nil
	}
	if from == PaymentStatusPending && to == PaymentStatusFailed {
		return nil
	}
	return ErrInvalidTransition
}

// OrderSort is a column admins may sort order listings by.
type OrderSort string

const (
	OrderSortCreatedAt   OrderSort = "created_at"
	OrderSortTotalAmount OrderSort = "total_amount"
)

// OrderFilter narrows an administrative order listing.
type OrderFilter struct {
	Status    *PaymentStatus
	From      *time.Time
	To        *time.Time
	SortBy    OrderSort
	Ascending bool
	Page      int
	Limit     int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalise applies defaults and bounds to pagination and sorting.
func (f *OrderFilter) Normalise() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.SortBy != OrderSortTotalAmount {
		f.SortBy = OrderSortCreatedAt
	}
}

// Offset is the row offset for the current page.
func (f *OrderFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}
