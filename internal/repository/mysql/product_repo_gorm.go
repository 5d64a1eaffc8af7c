package mysql

import (
	"fmt"

	"storefront/internal/domain"

	"gorm.io/gorm"
)

// decrementStock clamps at zero so an oversold product never goes negative.
func decrementStock(tx *gorm.DB, productID uint64, qty int64) error {
	if qty <= 0 {
		return nil
	}
	err := tx.Model(&domain.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", qty, qty)).
		Error
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", productID, err)
	}
	return nil
}
