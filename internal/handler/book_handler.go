package handler

import (
	"net/http"

	"bookstore/internal/model"
	"bookstore/internal/service"

	"github.com/rs/zerolog"
)

// BookHandler handles catalogue HTTP requests.
type BookHandler struct {
	service service.BookService
	logger  zerolog.Logger
}

// NewBookHandler creates a new book handler.
func NewBookHandler(service service.BookService, logger zerolog.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  logger.With().Str("handler", "book").Logger(),
	}
}

// List handles GET /api/books and GET /api/admin/books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidField, "page must be an integer", h.logger)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidField, "limit must be an integer", h.logger)
		return
	}

	books, err := h.service.ListBooks(r.Context(), page, limit)
	if err != nil {
		writeDomainError(w, r, err, 0, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, books)
}

// Get handles GET /api/books/{bookId}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "bookId")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid book ID", h.logger)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, 0, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, book)
}
