package repository

import (
	"context"
	"time"

	"bookstore/internal/model"

	"github.com/jackc/pgx/v5"
)

// BookRepository defines read access to the book catalogue.
type BookRepository interface {
	// List retrieves active books, newest first, with the total active count.
	List(ctx context.Context, limit, offset int) ([]model.Book, int64, error)

	// GetByID retrieves a single book by its ID.
	GetByID(ctx context.Context, id int64) (*model.Book, error)

	// GetByIDs retrieves multiple books by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Book, error)

	// ValidateBooksExist checks if all provided book IDs exist in the database.
	// Returns model.ErrBookNotFound if any book ID does not exist.
	ValidateBooksExist(ctx context.Context, ids []int64) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and
	// fills in its generated ID and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderItem, error)

	// GetBySessionID finds the order a gateway session was created for,
	// including sessions superseded by a retry.
	GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error)

	// FindReusable returns the newest pending order for the same customer
	// and cart created at or after since.
	FindReusable(ctx context.Context, email, fingerprint string, since time.Time) (*model.Order, error)

	// RecordPaymentAttempt stores a new gateway session and makes it the
	// order's current transaction. Reports false if the order is no longer
	// pending.
	RecordPaymentAttempt(ctx context.Context, tx pgx.Tx, orderID int64, gateway, sessionID string) (bool, error)

	// MarkPaid moves a pending order to paid. Reports false if the order
	// was not pending.
	MarkPaid(ctx context.Context, orderID int64, paymentID, sessionID string) (bool, error)

	// MarkFailed moves a pending order to failed. Reports false if the
	// order was not pending.
	MarkFailed(ctx context.Context, orderID int64) (bool, error)

	// MarkSessionFailed moves a pending order to failed only while
	// sessionID is its current transaction. Reports false if the order was
	// not pending or a newer session has replaced it.
	MarkSessionFailed(ctx context.Context, orderID int64, sessionID string) (bool, error)

	// List retrieves a filtered page of orders with the total match count.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
}
