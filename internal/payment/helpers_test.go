package payment

import (
	"time"

	"bookstore/internal/model"

	"github.com/shopspring/decimal"
)

func testOrder() *model.Order {
	return &model.Order{
		ID:            42,
		PaymentStatus: model.PaymentStatusPending,
		TotalAmount:   decimal.NewFromInt(250),
		ShippingAddress: model.ShippingAddress{
			RecipientName: "Asha Rao",
			Street:        "12 MG Road",
			City:          "Bengaluru",
			State:         "Karnataka",
			PostalCode:    "560001",
			Country:       "India",
		},
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9999999999",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}
