package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/internal/model"
	"bookstore/internal/notify"
	"bookstore/internal/payment"
	"bookstore/internal/repository"

	"github.com/rs/zerolog"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	orders      OrderService
	orderRepo   repository.OrderRepository
	gateway     payment.Gateway
	notifier    notify.Notifier
	reuseWindow time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCheckoutService creates the checkout orchestrator. Orders created
// within reuseWindow for the same customer and cart are reused instead of
// duplicated.
func NewCheckoutService(
	orders OrderService,
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	notifier notify.Notifier,
	reuseWindow time.Duration,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orders:      orders,
		orderRepo:   orderRepo,
		gateway:     gateway,
		notifier:    notifier,
		reuseWindow: reuseWindow,
		now:         time.Now,
		logger: logger.With().
			Str("service", "checkout").
			Str("gateway", gateway.Name()).
			Logger(),
	}
}

// Checkout creates or reuses an order and starts payment for it.
func (s *checkoutService) Checkout(ctx context.Context, req *model.OrderRequest) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, model.ErrEmptyCart
	}
	normaliseRequest(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.reusableOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		created, err := s.orders.CreateOrder(ctx, req)
		if err != nil {
			return nil, err
		}
		resp = &model.CheckoutResponse{OrderResponse: created}
	}

	session, err := s.InitiatePayment(ctx, resp.Order.ID)
	if err != nil {
		return resp, err
	}
	resp.Payment = session

	// InitiatePayment moved the order to awaiting payment.
	resp.Order.TransactionID = &session.SessionID
	resp.Order.Gateway = &session.Gateway
	resp.CheckoutState = resp.Order.CheckoutState()

	return resp, nil
}

func (s *checkoutService) reusableOrder(ctx context.Context, req *model.OrderRequest) (*model.CheckoutResponse, error) {
	if s.reuseWindow <= 0 {
		return nil, nil
	}

	since := s.now().Add(-s.reuseWindow)
	existing, err := s.orderRepo.FindReusable(ctx, req.CustomerEmail, req.CartFingerprint(), since)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up reusable order")
		return nil, fmt.Errorf("failed to look up reusable order: %w", err)
	}
	if existing == nil {
		return nil, nil
	}

	order, items, err := s.orderRepo.GetByID(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reusable order: %w", err)
	}
	if order == nil {
		return nil, nil
	}

	s.logger.Info().Int64("order_id", order.ID).Msg("reusing pending order for repeated checkout")
	return &model.CheckoutResponse{OrderResponse: model.NewOrderResponse(order, items), Reused: true}, nil
}

// InitiatePayment creates a gateway session for a pending order and records
// it. A gateway failure leaves the order pending so the caller can retry.
func (s *checkoutService) InitiatePayment(ctx context.Context, orderID int64) (*model.PaymentSession, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to load order for payment")
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return nil, model.ErrOrderNotPending
	}

	session, err := s.gateway.CreateSession(ctx, order)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("payment session creation failed")
		var de *model.DomainError
		if errors.As(err, &de) && de.Kind == model.KindGateway {
			return nil, err
		}
		return nil, model.NewGatewayError("payment initiation failed", err)
	}

	if err := s.recordAttempt(ctx, orderID, session); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Str("session_id", session.SessionID).
		Msg("payment session created")

	return session, nil
}

func (s *checkoutService) recordAttempt(ctx context.Context, orderID int64, session *model.PaymentSession) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to record payment attempt: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	recorded, err := s.orderRepo.RecordPaymentAttempt(ctx, tx, orderID, session.Gateway, session.SessionID)
	if err != nil {
		return fmt.Errorf("failed to record payment attempt: %w", err)
	}
	if !recorded {
		// Settled between the read and the write.
		err = model.ErrOrderNotPending
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to record payment attempt: %w", err)
	}
	return nil
}

// HandleCallback authenticates a gateway callback and applies its outcome
// to the order it belongs to. Only verified callbacks change state, and an
// order leaves pending at most once.
func (s *checkoutService) HandleCallback(ctx context.Context, cb payment.Callback) (*model.CallbackOutcome, error) {
	v, err := s.gateway.VerifyCallback(ctx, cb)
	if err != nil {
		switch model.KindOf(err) {
		case model.KindAuthenticity:
			s.logger.Warn().
				Str("event", "security").
				Str("content_type", cb.ContentType).
				Int("payload_bytes", len(cb.Payload)).
				Msg("payment callback rejected: signature mismatch")
		case model.KindValidation:
			s.logger.Warn().Err(err).Msg("malformed payment callback")
		default:
			s.logger.Error().Err(err).Msg("payment callback verification failed")
		}
		return nil, err
	}

	log := s.logger.With().Str("session_id", v.SessionID).Str("status", string(v.Status)).Logger()

	order, err := s.orderRepo.GetBySessionID(ctx, v.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment session: %w", err)
	}
	if order == nil {
		log.Warn().Msg("callback for unknown payment session")
		return nil, model.ErrSessionNotFound
	}
	log = log.With().Int64("order_id", order.ID).Logger()

	outcome := &model.CallbackOutcome{OrderID: order.ID, Status: order.PaymentStatus}

	target := v.Status
	switch target {
	case model.PaymentStatusPending:
		log.Info().Msg("payment still pending")
		return outcome, nil
	case model.PaymentStatusPaid:
		if v.Amount != nil && !v.Amount.Equal(order.TotalAmount) {
			log.Error().
				Str("expected", order.TotalAmount.StringFixed(2)).
				Str("received", v.Amount.StringFixed(2)).
				Msg("amount mismatch on paid callback, failing order")
			target = model.PaymentStatusFailed
		}
	}

	if target == model.PaymentStatusFailed && superseded(order, v.SessionID) {
		log.Warn().
			Str("current_session_id", *order.TransactionID).
			Msg("failure for superseded payment session ignored")
		return outcome, nil
	}

	var changed bool
	if target == model.PaymentStatusPaid {
		// A capture on any session of a pending order settles it.
		changed, err = s.orderRepo.MarkPaid(ctx, order.ID, v.PaymentID, v.SessionID)
	} else {
		changed, err = s.orderRepo.MarkSessionFailed(ctx, order.ID, v.SessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment outcome: %w", err)
	}

	current, _, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	if current == nil {
		return nil, model.ErrOrderNotFound
	}
	outcome.Status = current.PaymentStatus

	if changed {
		outcome.Applied = true
		log.Info().Str("payment_id", v.PaymentID).Msg("payment outcome applied")
		s.publish(ctx, current)
		return outcome, nil
	}

	switch {
	case current.PaymentStatus == model.PaymentStatusPending:
		// A retry replaced the session between the read and the update.
		log.Warn().Msg("failure for superseded payment session ignored")
	case current.PaymentStatus == model.PaymentStatusPaid && target == model.PaymentStatusPaid &&
		current.PaymentID != nil && v.PaymentID != "" && *current.PaymentID != v.PaymentID:
		outcome.Conflict = true
		log.Error().
			Str("payment_id", v.PaymentID).
			Str("settled_payment_id", *current.PaymentID).
			Msg("second payment captured for paid order, refund required")
	case current.PaymentStatus == target:
		outcome.Duplicate = true
		log.Info().Msg("duplicate payment callback ignored")
	default:
		log.Warn().
			Str("current_status", string(current.PaymentStatus)).
			Msg("conflicting late payment callback ignored")
	}
	return outcome, nil
}

// superseded reports whether a retry has replaced sessionID as the order's
// current payment session.
func superseded(order *model.Order, sessionID string) bool {
	return order.PaymentStatus == model.PaymentStatusPending &&
		order.TransactionID != nil &&
		*order.TransactionID != sessionID
}

// publish is best-effort: the transition is already committed.
func (s *checkoutService) publish(ctx context.Context, order *model.Order) {
	event := notify.NewOrderEvent(order)
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Int64("order_id", order.ID).
			Str("event", event.Type).
			Msg("failed to publish order event")
	}
}
