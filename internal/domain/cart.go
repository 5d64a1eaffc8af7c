package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint64     `json:"userId" gorm:"not null;uniqueIndex"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

type CartItem struct {
	ID        uint64  `json:"id" gorm:"primaryKey;autoIncrement"`
	CartID    uint64  `json:"cartId" gorm:"not null;index"`
	ProductID uint64  `json:"productId" gorm:"not null;index"`
	Product   Product `json:"product" gorm:"foreignKey:ProductID"`
	Quantity  int64   `json:"quantity" gorm:"not null;default:1"`
}

func (i CartItem) Cost() decimal.Decimal {
	return i.Product.FinalPrice().Mul(decimal.NewFromInt(i.Quantity))
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Cost())
	}
	return total
}
