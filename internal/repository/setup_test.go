package repository

import (
	"context"
	"testing"
	"time"

	"bookstore/internal/database"
	"bookstore/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies the service schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedBooks inserts books and fills in their generated IDs.
func seedBooks(t *testing.T, pool *pgxpool.Pool, books []model.Book) []model.Book {
	ctx := context.Background()

	for i := range books {
		err := pool.QueryRow(ctx, `
			INSERT INTO books (title, author, price, is_active)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, books[i].Title, books[i].Author, books[i].Price, books[i].IsActive).
			Scan(&books[i].ID, &books[i].CreatedAt, &books[i].UpdatedAt)
		require.NoError(t, err)
	}

	return books
}

func testBooks() []model.Book {
	return []model.Book{
		{Title: "Book A", Author: "Author A", Price: decimal.NewFromInt(100), IsActive: true},
		{Title: "Book B", Author: "Author B", Price: decimal.NewFromInt(50), IsActive: true},
		{Title: "Book C", Author: "Author C", Price: decimal.RequireFromString("12.50"), IsActive: false},
	}
}

func testAddress() model.ShippingAddress {
	return model.ShippingAddress{
		RecipientName: "Asha Rao",
		Street:        "12 MG Road",
		Apartment:     "Flat 4B",
		City:          "Bengaluru",
		State:         "Karnataka",
		PostalCode:    "560001",
		Country:       "India",
	}
}
