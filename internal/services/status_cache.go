package services

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// OrderStatusView is the payload of the order status page.
type OrderStatusView struct {
	ID            uint64             `json:"id"`
	UserID        uint64             `json:"userId"`
	Status        domain.OrderStatus `json:"status"`
	Paid          bool               `json:"paid"`
	TotalCost     decimal.Decimal    `json:"totalCost"`
	TransactionID string             `json:"transactionId,omitempty"`
}

func NewOrderStatusView(o *domain.Order) *OrderStatusView {
	v := &OrderStatusView{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		Paid:      o.Paid,
		TotalCost: o.TotalCost,
	}
	if o.HasTransactionID() {
		v.TransactionID = *o.TransactionID
	}
	return v
}

// StatusNotifier receives every order status change made by the payment workflow.
type StatusNotifier interface {
	BroadcastOrderUpdate(orderID uint64, status domain.OrderStatus, paid bool)
}

func orderStatusCacheKey(orderID uint64) string {
	return fmt.Sprintf("order:status:%d", orderID)
}

func invalidateOrderStatus(ctx context.Context, rdb *redis.Client, logger *slog.Logger, orderID uint64) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, orderStatusCacheKey(orderID)).Err(); err != nil {
		logger.Warn("invalidate order status cache", "order_id", orderID, "err", err)
	}
}
