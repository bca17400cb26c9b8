package repository

import (
	"context"
	"fmt"

	"bookstore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const bookColumns = `id, title, author, price, image_url, is_active, created_at, updated_at`

// bookRepository implements the BookRepository interface using PostgreSQL.
type bookRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool *pgxpool.Pool, logger zerolog.Logger) BookRepository {
	return &bookRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "book").Logger(),
	}
}

func scanBook(row pgx.Row, b *model.Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.ImageURL, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
}

func (r *bookRepository) List(ctx context.Context, limit, offset int) ([]model.Book, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE is_active`).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count books")
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE is_active
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query books")
		return nil, 0, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan book row")
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating book rows")
		return nil, 0, fmt.Errorf("error iterating books: %w", err)
	}

	return books, total, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	var b model.Book
	err := scanBook(r.pool.QueryRow(ctx, query, id), &b)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Int64("book_id", id).Msg("book not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("book_id", id).Msg("failed to query book")
		return nil, fmt.Errorf("failed to query book: %w", err)
	}

	return &b, nil
}

func (r *bookRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	if len(ids) == 0 {
		return []model.Book{}, nil
	}

	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query books by IDs")
		return nil, fmt.Errorf("failed to query books by IDs: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan book row")
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating book rows")
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

func (r *bookRepository) ValidateBooksExist(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		SELECT COUNT(DISTINCT id)
		FROM books
		WHERE id = ANY($1)
	`

	var count int
	err := r.pool.QueryRow(ctx, query, ids).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to validate books exist")
		return fmt.Errorf("failed to validate books exist: %w", err)
	}

	if count != len(ids) {
		r.logger.Warn().
			Int("expected", len(ids)).
			Int("found", count).
			Msg("not all book IDs exist")
		return model.ErrBookNotFound
	}

	return nil
}
