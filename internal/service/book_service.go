package service

import (
	"context"
	"fmt"

	"bookstore/internal/model"
	"bookstore/internal/repository"

	"github.com/rs/zerolog"
)

// bookService implements BookService.
type bookService struct {
	bookRepo repository.BookRepository
	logger   zerolog.Logger
}

// NewBookService creates a new book service.
func NewBookService(bookRepo repository.BookRepository, logger zerolog.Logger) BookService {
	return &bookService{
		bookRepo: bookRepo,
		logger:   logger.With().Str("service", "book").Logger(),
	}
}

func (s *bookService) ListBooks(ctx context.Context, page, limit int) (*model.BookPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = model.DefaultPageLimit
	}
	if limit > model.MaxPageLimit {
		limit = model.MaxPageLimit
	}
	offset := (page - 1) * limit

	books, total, err := s.bookRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list books")
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	s.logger.Debug().
		Int("count", len(books)).
		Int64("total", total).
		Int("page", page).
		Msg("retrieved books")

	return &model.BookPage{Books: books, Total: total, Page: page, Limit: limit}, nil
}

func (s *bookService) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	if id <= 0 {
		return nil, model.ErrBookNotFound
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to get book by ID")
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if book == nil {
		s.logger.Debug().Int64("book_id", id).Msg("book not found")
		return nil, model.ErrBookNotFound
	}

	return book, nil
}
