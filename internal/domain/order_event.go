package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated = "order.created"
	EventOrderPaid    = "order.paid"
)

type OrderCreatedEvent struct {
	OrderID   uint64          `json:"orderId"`
	UserID    uint64          `json:"userId"`
	TotalCost decimal.Decimal `json:"totalCost"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OrderPaidEvent feeds fulfilment and the confirmation mail sender.
type OrderPaidEvent struct {
	OrderID       uint64          `json:"orderId"`
	UserID        uint64          `json:"userId"`
	Email         string          `json:"email"`
	TransactionID string          `json:"transactionId"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	PaidAt        time.Time       `json:"paidAt"`
}
