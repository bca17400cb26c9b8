package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bookstore/internal/handler"
	"bookstore/internal/middleware"
	"bookstore/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookService struct{}

func (stubBookService) ListBooks(ctx context.Context, page, limit int) (*model.BookPage, error) {
	return &model.BookPage{Books: []model.Book{}, Page: page, Limit: limit}, nil
}

func (stubBookService) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	return nil, model.ErrBookNotFound
}

func newTestRouter(t *testing.T, uploads string) http.Handler {
	t.Helper()
	logger := zerolog.Nop()

	return New(Handlers{
		Books:    handler.NewBookHandler(stubBookService{}, logger),
		Orders:   handler.NewOrderHandler(nil, logger),
		Checkout: handler.NewCheckoutHandler(nil, logger),
		Payments: handler.NewPaymentHandler(nil, "http://localhost:3000", logger),
		Assets:   handler.NewAssetHandler(nil, logger),
	}, Options{
		AdminCode:      "letmein",
		AllowedOrigins: []string{"*"},
		UploadsDir:     uploads,
	}, logger)
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, model.ErrCodeRouteNotFound, body.Error)
	assert.NotEmpty(t, body.CorrelationID)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/books", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, model.ErrCodeMethodNotAllowed, body.Error)
}

func TestRouter_AdminRoutes(t *testing.T) {
	r := newTestRouter(t, "")

	tests := []struct {
		name       string
		method     string
		path       string
		code       string
		wantStatus int
	}{
		{"admin books without code", http.MethodGet, "/api/admin/books", "", http.StatusUnauthorized},
		{"admin books wrong code", http.MethodGet, "/api/admin/books", "nope", http.StatusForbidden},
		{"admin books", http.MethodGet, "/api/admin/books", "letmein", http.StatusOK},
		{"admin orders without code", http.MethodGet, "/api/admin/orders", "", http.StatusUnauthorized},
		{"upload without code", http.MethodPost, "/api/admin/assets", "", http.StatusUnauthorized},
		{"status update without code", http.MethodPut, "/api/orders/1/status", "", http.StatusUnauthorized},
		{"status update wrong code", http.MethodPut, "/api/orders/1/status", "nope", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.code != "" {
				req.Header.Set(middleware.AdminHeader, tt.code)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_PublicBooks(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/books?page=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var page model.BookPage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Equal(t, 2, page.Page)
}

func TestRouter_Uploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), []byte("png-bytes"), 0o644))

	r := newTestRouter(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/uploads/cover.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}
