package service

import (
	"context"

	"bookstore/internal/model"
	"bookstore/internal/payment"
)

// BookService defines read access to the catalogue.
type BookService interface {
	// ListBooks retrieves a page of active books, newest first.
	ListBooks(ctx context.Context, page, limit int) (*model.BookPage, error)

	// GetBook retrieves a single book by ID.
	GetBook(ctx context.Context, id int64) (*model.Book, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder validates the request and persists a pending order with
	// its items in one transaction.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetOrder retrieves an order with all items.
	GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error)

	// UpdateOrderStatus applies an administrative status override.
	UpdateOrderStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.OrderResponse, error)

	// ListOrders retrieves a filtered page of orders for administrators.
	ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error)
}

// CheckoutService drives an order from creation through payment.
type CheckoutService interface {
	// Checkout creates (or reuses) an order and starts payment for it. On a
	// gateway failure the response is still returned alongside the error so
	// the caller can name the order to retry.
	Checkout(ctx context.Context, req *model.OrderRequest) (*model.CheckoutResponse, error)

	// InitiatePayment creates a new gateway session for a pending order.
	InitiatePayment(ctx context.Context, orderID int64) (*model.PaymentSession, error)

	// HandleCallback verifies a gateway callback and applies its outcome.
	HandleCallback(ctx context.Context, cb payment.Callback) (*model.CallbackOutcome, error)
}
