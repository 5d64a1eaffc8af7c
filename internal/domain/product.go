package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint64              `json:"id" gorm:"primaryKey;autoIncrement"`
	Name          string              `json:"name" gorm:"size:150;not null"`
	Price         decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice" gorm:"type:decimal(10,2)"`
	Stock         int64               `json:"stock" gorm:"not null;default:0"`
	Available     bool                `json:"available" gorm:"not null;default:true"`
	CreatedAt     time.Time           `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time           `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p Product) HasDiscount() bool {
	return p.DiscountPrice.Valid && p.DiscountPrice.Decimal.LessThan(p.Price)
}

// FinalPrice is the price a customer pays right now.
func (p Product) FinalPrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}
