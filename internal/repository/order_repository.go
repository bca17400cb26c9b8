package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	o.order_id, o.payment_status, o.total_amount, o.shipping_address,
	o.customer_name, o.customer_email, o.customer_phone,
	o.transaction_id, o.payment_id, o.gateway, o.cart_fingerprint,
	o.created_at, o.updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		order   model.Order
		address []byte
	)
	err := row.Scan(
		&order.ID,
		&order.PaymentStatus,
		&order.TotalAmount,
		&address,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.TransactionID,
		&order.PaymentID,
		&order.Gateway,
		&order.CartFingerprint,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	return &order, nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (
			payment_status, total_amount, shipping_address,
			customer_name, customer_email, customer_phone, cart_fingerprint
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING order_id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		order.PaymentStatus,
		order.TotalAmount,
		address,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.CartFingerprint,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("customer_email", order.CustomerEmail).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, book_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.BookID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if err := results.QueryRow().Scan(&items[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("book_id", items[i].BookID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items. Item titles
// come from the current catalogue, not from the time of ordering.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders o WHERE o.order_id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.book_id, COALESCE(b.title, ''), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", id).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.BookID, &item.Title, &item.Quantity, &item.Price)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return order, items, nil
}

func (r *orderRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.transaction_id = $1
		   OR o.order_id = (SELECT pa.order_id FROM payment_attempts pa WHERE pa.session_id = $1)
		LIMIT 1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("session_id", sessionID).Msg("no order for session")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to query order by session")
		return nil, fmt.Errorf("failed to query order by session: %w", err)
	}

	return order, nil
}

func (r *orderRepository) FindReusable(ctx context.Context, email, fingerprint string, since time.Time) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.customer_email = $1
		  AND o.cart_fingerprint = $2
		  AND o.payment_status = 'pending'
		  AND o.created_at >= $3
		ORDER BY o.created_at DESC, o.order_id DESC
		LIMIT 1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, email, fingerprint, since))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("customer_email", email).Msg("failed to query reusable order")
		return nil, fmt.Errorf("failed to query reusable order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) RecordPaymentAttempt(ctx context.Context, tx pgx.Tx, orderID int64, gateway, sessionID string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET transaction_id = $2, gateway = $3, updated_at = NOW()
		WHERE order_id = $1 AND payment_status = 'pending'
	`, orderID, sessionID, gateway)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to set transaction id")
		return false, fmt.Errorf("failed to set transaction id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_attempts (order_id, gateway, session_id)
		VALUES ($1, $2, $3)
	`, orderID, gateway, sessionID)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("order_id", orderID).
			Str("session_id", sessionID).
			Msg("failed to record payment attempt")
		return false, fmt.Errorf("failed to record payment attempt: %w", err)
	}

	return true, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID int64, paymentID, sessionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid', payment_id = $2, transaction_id = $3, updated_at = NOW()
		WHERE order_id = $1 AND payment_status = 'pending'
	`, orderID, paymentID, sessionID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkFailed(ctx context.Context, orderID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', updated_at = NOW()
		WHERE order_id = $1 AND payment_status = 'pending'
	`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to mark order failed")
		return false, fmt.Errorf("failed to mark order failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkSessionFailed(ctx context.Context, orderID int64, sessionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', updated_at = NOW()
		WHERE order_id = $1
		  AND payment_status = 'pending'
		  AND (transaction_id = $2 OR transaction_id IS NULL)
	`, orderID, sessionID)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("order_id", orderID).
			Str("session_id", sessionID).
			Msg("failed to mark order failed for session")
		return false, fmt.Errorf("failed to mark order failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	filter.Normalise()

	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("o.payment_status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("o.created_at <= $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o `+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	// SortBy is restricted to known columns by Normalise.
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		%s
		ORDER BY o.%s %s, o.order_id %s
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, filter.SortBy, direction, direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}
