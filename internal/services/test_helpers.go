package services

import (
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra"

	"github.com/shopspring/decimal"
)

func CreateMockOrder(id uint64, userID uint64, total string, tranID string) *domain.Order {
	o := &domain.Order{
		ID:         id,
		UserID:     userID,
		FirstName:  "Rahim",
		LastName:   "Uddin",
		Email:      "rahim@example.com",
		Phone:      "017-1234-5678",
		Address:    "House 1, Road 2",
		City:       "Dhaka",
		PostalCode: "1207",
		Status:     domain.StatusPending,
		TotalCost:  decimal.RequireFromString(total),
		CreatedAt:  time.Now(),
	}
	if tranID != "" {
		o.TransactionID = &tranID
	}
	return o
}

func CreateMockProduct(id uint64, name string, price string, stock int64) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: true,
	}
}

func CreateMockValidation(status, amount, tranID, valID string) *infra.ValidationResult {
	return &infra.ValidationResult{
		Status:        status,
		Amount:        decimal.RequireFromString(amount),
		TransactionID: tranID,
		ValidationID:  valID,
		Raw:           map[string]any{"status": status, "amount": amount},
	}
}

const (
	TestUserID  = uint64(42)
	TestOrderID = uint64(7)
	TestTranID  = "7-0f1e2d3c4b5a69788796a5b4c3d2e1f0"
	TestValID   = "VAL-7"
)
