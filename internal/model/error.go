package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	OrderID       int64  `json:"order_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidField       = "INVALID_FIELD"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidPrice       = "INVALID_PRICE"
	ErrCodePriceMismatch      = "PRICE_MISMATCH"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeBookNotFound       = "BOOK_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeInvalidTransition  = "INVALID_STATUS_TRANSITION"
	ErrCodeOrderNotPending    = "ORDER_NOT_PENDING"
	ErrCodePaymentInitFailed  = "PAYMENT_INITIATION_FAILED"
	ErrCodeInvalidCallback    = "INVALID_CALLBACK"
	ErrCodeSignatureMismatch  = "SIGNATURE_MISMATCH"
	ErrCodeOrderCreateFailed  = "ORDER_CREATION_FAILED"
	ErrCodeUploadFailed       = "UPLOAD_FAILED"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeRouteNotFound      = "NOT_FOUND"
	ErrCodeUnsupportedGateway = "UNSUPPORTED_GATEWAY"
)

// ErrorKind classifies domain errors so the HTTP layer can choose a status
// code without inspecting individual codes.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindGateway
	KindAuthenticity
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindGateway:
		return "gateway"
	case KindAuthenticity:
		return "authenticity"
	case KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so wrapped copies of a sentinel still compare
// equal with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

func NewGatewayError(message string, err error) *DomainError {
	return &DomainError{Kind: KindGateway, Code: ErrCodePaymentInitFailed, Message: message, Err: err}
}

func NewAuthenticityError(message string) *DomainError {
	return NewDomainError(KindAuthenticity, ErrCodeSignatureMismatch, message)
}

// NewPersistenceError wraps a database failure. Message is safe to show to
// clients; err is kept for logs only.
func NewPersistenceError(code, message string, err error) *DomainError {
	return &DomainError{Kind: KindPersistence, Code: code, Message: message, Err: err}
}

// KindOf reports the kind of the first DomainError in err's chain.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common domain errors
var (
	ErrEmptyCart          = NewValidationError(ErrCodeEmptyCart, "Order must contain at least one item")
	ErrInvalidQuantity    = NewValidationError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidPrice       = NewValidationError(ErrCodeInvalidPrice, "Price must be non-negative with at most two decimal places")
	ErrInvalidStatus      = NewValidationError(ErrCodeInvalidStatus, "Status must be one of pending, paid, failed")
	ErrPriceMismatch      = NewValidationError(ErrCodePriceMismatch, "Item price does not match the catalogue price")
	ErrBookNotFound       = NewDomainError(KindNotFound, ErrCodeBookNotFound, "One or more books not found")
	ErrOrderNotFound      = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrSessionNotFound    = NewDomainError(KindNotFound, ErrCodeSessionNotFound, "No order matches the payment session")
	ErrInvalidTransition  = NewDomainError(KindConflict, ErrCodeInvalidTransition, "Order status cannot change this way")
	ErrOrderNotPending    = NewDomainError(KindConflict, ErrCodeOrderNotPending, "Order is no longer awaiting payment")
	ErrSignatureMismatch  = NewAuthenticityError("Callback signature verification failed")
	ErrOrderCreateFailed  = NewPersistenceError(ErrCodeOrderCreateFailed, "order creation failed", nil)
	ErrUnsupportedGateway = NewValidationError(ErrCodeUnsupportedGateway, "Callback does not belong to the active payment gateway")
)
