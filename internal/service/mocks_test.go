package service

import (
	"context"
	"time"

	"bookstore/internal/model"
	"bookstore/internal/notify"
	"bookstore/internal/payment"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func orderArg(args mock.Arguments, i int) *model.Order {
	o, _ := args.Get(i).(*model.Order)
	return o
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	items, _ := args.Get(1).([]model.OrderItem)
	return orderArg(args, 0), items, args.Error(2)
}

func (m *MockOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	args := m.Called(ctx, sessionID)
	return orderArg(args, 0), args.Error(1)
}

func (m *MockOrderRepository) FindReusable(ctx context.Context, email, fingerprint string, since time.Time) (*model.Order, error) {
	args := m.Called(ctx, email, fingerprint, since)
	return orderArg(args, 0), args.Error(1)
}

func (m *MockOrderRepository) RecordPaymentAttempt(ctx context.Context, tx pgx.Tx, orderID int64, gateway, sessionID string) (bool, error) {
	args := m.Called(ctx, tx, orderID, gateway, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, orderID int64, paymentID, sessionID string) (bool, error) {
	args := m.Called(ctx, orderID, paymentID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkFailed(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkSessionFailed(ctx context.Context, orderID int64, sessionID string) (bool, error) {
	args := m.Called(ctx, orderID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

// MockBookRepository is a mock implementation of BookRepository.
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) List(ctx context.Context, limit, offset int) ([]model.Book, int64, error) {
	args := m.Called(ctx, limit, offset)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Get(1).(int64), args.Error(2)
}

func (m *MockBookRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*model.Book)
	return book, args.Error(1)
}

func (m *MockBookRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	args := m.Called(ctx, ids)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Error(1)
}

func (m *MockBookRepository) ValidateBooksExist(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "payu" }

func (m *MockGateway) CreateSession(ctx context.Context, order *model.Order) (*model.PaymentSession, error) {
	args := m.Called(ctx, order)
	session, _ := args.Get(0).(*model.PaymentSession)
	return session, args.Error(1)
}

func (m *MockGateway) VerifyCallback(ctx context.Context, cb payment.Callback) (*payment.Verification, error) {
	args := m.Called(ctx, cb)
	v, _ := args.Get(0).(*payment.Verification)
	return v, args.Error(1)
}

func (m *MockGateway) MapStatus(gatewayStatus string) model.PaymentStatus {
	return model.PaymentStatus(m.Called(gatewayStatus).String(0))
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event notify.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockNotifier) Close() error { return nil }

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
