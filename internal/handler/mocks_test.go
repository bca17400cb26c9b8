package handler

import (
	"context"
	"io"
	"net/http"

	"bookstore/internal/model"
	"bookstore/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// MockBookService is a mock implementation of BookService.
type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) ListBooks(ctx context.Context, page, limit int) (*model.BookPage, error) {
	args := m.Called(ctx, page, limit)
	p, _ := args.Get(0).(*model.BookPage)
	return p, args.Error(1)
}

func (m *MockBookService) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*model.Book)
	return b, args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*model.OrderResponse)
	return resp, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*model.OrderResponse)
	return resp, args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.OrderResponse, error) {
	args := m.Called(ctx, id, status)
	resp, _ := args.Get(0).(*model.OrderResponse)
	return resp, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*model.OrderPage)
	return p, args.Error(1)
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, req *model.OrderRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*model.CheckoutResponse)
	return resp, args.Error(1)
}

func (m *MockCheckoutService) InitiatePayment(ctx context.Context, orderID int64) (*model.PaymentSession, error) {
	args := m.Called(ctx, orderID)
	s, _ := args.Get(0).(*model.PaymentSession)
	return s, args.Error(1)
}

func (m *MockCheckoutService) HandleCallback(ctx context.Context, cb payment.Callback) (*model.CallbackOutcome, error) {
	args := m.Called(ctx, cb)
	o, _ := args.Get(0).(*model.CallbackOutcome)
	return o, args.Error(1)
}

// MockStore is a mock implementation of asset.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, name, string(data))
	return args.String(0), args.Error(1)
}

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
