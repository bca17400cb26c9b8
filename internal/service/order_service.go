package service

import (
	"context"
	"fmt"
	"strings"

	"bookstore/internal/model"
	"bookstore/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	bookRepo  repository.BookRepository
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	bookRepo repository.BookRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		bookRepo:  bookRepo,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// normaliseRequest trims customer fields so equivalent checkouts compare
// equal.
func normaliseRequest(req *model.OrderRequest) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
}

// CreateOrder validates the request against the catalogue and writes the
// order with its items. Nothing is written unless every check passes; the
// total is always computed here from catalogue prices.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error) {
	if req == nil {
		return nil, model.ErrEmptyCart
	}
	normaliseRequest(req)
	if err := req.Validate(); err != nil {
		s.logger.Debug().Err(err).Msg("order request rejected")
		return nil, err
	}

	bookIDs := req.BookIDs()
	if err := s.bookRepo.ValidateBooksExist(ctx, bookIDs); err != nil {
		s.logger.Warn().
			Int("book_count", len(bookIDs)).
			Err(err).
			Msg("book validation failed")
		return nil, err
	}

	items, err := s.priceItems(ctx, req, bookIDs)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		PaymentStatus:   model.PaymentStatusPending,
		TotalAmount:     model.OrderTotal(items),
		ShippingAddress: req.ShippingAddress,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CartFingerprint: req.CartFingerprint(),
	}

	if err := s.persist(ctx, order, items); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int("item_count", len(items)).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return model.NewOrderResponse(order, items), nil
}

// persist writes the order and its items in one transaction.
func (s *orderService) persist(ctx context.Context, order *model.Order, items []model.OrderItem) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return model.NewPersistenceError(model.ErrCodeOrderCreateFailed, "order creation failed", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Msg("failed to create order")
		return model.NewPersistenceError(model.ErrCodeOrderCreateFailed, "order creation failed", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Int64("order_id", order.ID).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return model.NewPersistenceError(model.ErrCodeOrderCreateFailed, "order creation failed", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return model.NewPersistenceError(model.ErrCodeOrderCreateFailed, "order creation failed", err)
	}

	return nil
}

// priceItems builds the line items from the catalogue. The submitted price
// must equal the current catalogue price; the stored snapshot and the
// title always come from the catalogue.
func (s *orderService) priceItems(ctx context.Context, req *model.OrderRequest, bookIDs []int64) ([]model.OrderItem, error) {
	books, err := s.bookRepo.GetByIDs(ctx, bookIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalogue prices")
		return nil, fmt.Errorf("failed to load catalogue prices: %w", err)
	}

	catalogue := make(map[int64]model.Book, len(books))
	for _, b := range books {
		catalogue[b.ID] = b
	}

	items := make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		book, ok := catalogue[item.BookID]
		if !ok || !book.IsActive {
			return nil, model.ErrBookNotFound
		}
		if !item.Price.Equal(book.Price) {
			s.logger.Warn().
				Int64("book_id", item.BookID).
				Str("submitted", item.Price.StringFixed(2)).
				Str("catalogue", book.Price.StringFixed(2)).
				Msg("item price does not match catalogue")
			return nil, model.ErrPriceMismatch
		}
		items[i] = model.OrderItem{
			BookID:   item.BookID,
			Title:    book.Title,
			Quantity: item.Quantity,
			Price:    book.Price,
		}
	}
	return items, nil
}

// GetOrder retrieves an order by its ID with all items.
func (s *orderService) GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Int64("order_id", id).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return model.NewOrderResponse(order, items), nil
}

// UpdateOrderStatus applies an administrative override. Only cancelling a
// pending order changes anything; re-applying the current status is a
// no-op.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.OrderResponse, error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	from := current.Order.PaymentStatus
	if err := model.CheckAdminTransition(from, status); err != nil {
		s.logger.Warn().
			Int64("order_id", id).
			Str("from", string(from)).
			Str("to", string(status)).
			Msg("status override rejected")
		return nil, err
	}
	if from == status {
		return current, nil
	}

	changed, err := s.orderRepo.MarkFailed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !changed {
		// A gateway callback settled the order first.
		s.logger.Warn().Int64("order_id", id).Msg("order left pending before override applied")
		return nil, model.ErrInvalidTransition
	}

	s.logger.Info().
		Int64("order_id", id).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("order status overridden")

	return s.GetOrder(ctx, id)
}

// ListOrders retrieves a filtered page of orders.
func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	filter.Normalise()

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	return &model.OrderPage{Orders: orders, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
