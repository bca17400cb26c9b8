package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is a catalogue entry. The order flow only reads it.
type Book struct {
	ID        int64           `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Author    string          `json:"author" db:"author"`
	Price     decimal.Decimal `json:"price" db:"price"`
	ImageURL  *string         `json:"image_url,omitempty" db:"image_url"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// BookPage is one page of a book listing.
type BookPage struct {
	Books []Book `json:"books"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
