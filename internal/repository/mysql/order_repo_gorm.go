package mysql

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

// CreateFromCart empties the cart and inserts the order with its items in one
// transaction. When the delete removes fewer rows than the order has items the
// cart was already converted by a concurrent checkout and repository.ErrEmptyCart
// is returned.
func (r *orderRepo) CreateFromCart(ctx context.Context, order *domain.Order, cartID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ?", cartID).Delete(&domain.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("clear cart %d: %w", cartID, res.Error)
		}
		if res.RowsAffected < int64(len(order.Items)) {
			return repository.ErrEmptyCart
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if order.ID == 0 {
			return errors.New("failed to assign order ID")
		}
		return nil
	})
}

func (r *orderRepo) FindByIDForUser(ctx context.Context, id uint64, userID uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return &o, nil
}

func (r *orderRepo) FindByTransactionID(ctx context.Context, tranID string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("transaction_id = ?", tranID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order by transaction %q: %w", tranID, err)
	}
	return &o, nil
}

func (r *orderRepo) AssignTransactionID(ctx context.Context, id uint64, tranID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND transaction_id IS NULL", id).
		Update("transaction_id", tranID)
	if res.Error != nil {
		return false, fmt.Errorf("assign transaction id to order %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) MarkPaid(ctx context.Context, id uint64, conf domain.PaymentConfirmation) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"paid":   true,
			"status": domain.StatusProcessing,
		}
		if conf.TransactionID != "" {
			updates["transaction_id"] = conf.TransactionID
		}
		if conf.ValidationID != "" {
			updates["validation_id"] = conf.ValidationID
		}

		// paid = false in the WHERE clause is the compare-and-set guard.
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND paid = ?", id, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var items []domain.OrderItem
		if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
			return err
		}
		for _, it := range items {
			if err := decrementStock(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("mark order %d paid: %w", id, err)
	}
	return applied, nil
}

func (r *orderRepo) ResetToPending(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND paid = ?", id, false).
		Update("status", domain.StatusPending)
	if res.Error != nil {
		return false, fmt.Errorf("reset order %d to pending: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
