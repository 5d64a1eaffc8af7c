package repository

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// ErrEmptyCart is returned by CreateFromCart when the cart no longer holds the items being ordered.
var ErrEmptyCart = errors.New("cart is empty")

// Lookups return (nil, nil) when no row matches.
type OrderRepository interface {
	CreateFromCart(ctx context.Context, order *domain.Order, cartID uint64) error
	FindByIDForUser(ctx context.Context, id uint64, userID uint64) (*domain.Order, error)
	FindByTransactionID(ctx context.Context, tranID string) (*domain.Order, error)
	AssignTransactionID(ctx context.Context, id uint64, tranID string) (bool, error)
	// MarkPaid flips paid=false to paid=true and decrements stock for every line
	// item in one transaction. It reports false when the order was already paid.
	MarkPaid(ctx context.Context, id uint64, conf domain.PaymentConfirmation) (bool, error)
	ResetToPending(ctx context.Context, id uint64) (bool, error)
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uint64) (*domain.Cart, error)
}
