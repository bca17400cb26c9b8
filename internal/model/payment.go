package model

// PaymentSession is a hosted checkout session created at a gateway.
// Method is GET for plain redirects and POST when Fields must be submitted
// as a form to RedirectURL.
type PaymentSession struct {
	Gateway     string            `json:"gateway"`
	SessionID   string            `json:"session_id"`
	RedirectURL string            `json:"redirect_url"`
	Method      string            `json:"method"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// CreatePaymentRequest starts, or retries, payment for an existing order.
type CreatePaymentRequest struct {
	OrderID int64 `json:"order_id"`
}

// CheckoutResponse is returned by the one-step checkout endpoint.
type CheckoutResponse struct {
	*OrderResponse
	Reused  bool            `json:"reused"`
	Payment *PaymentSession `json:"payment,omitempty"`
}

// CallbackOutcome reports what a gateway callback did to its order.
type CallbackOutcome struct {
	OrderID   int64         `json:"order_id"`
	Status    PaymentStatus `json:"status"`
	Applied   bool          `json:"applied"`
	Duplicate bool          `json:"duplicate"`
	// Conflict marks a verified callback that disagrees with the settled
	// order, such as a second capture on a paid order.
	Conflict bool `json:"conflict"`
}
