package http

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	FirstName  string `json:"firstName" binding:"required,max=100"`
	LastName   string `json:"lastName" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required,max=20"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required,max=100"`
	PostalCode string `json:"postalCode" binding:"required,max=100"`
	Note       string `json:"note"`
}

func (r CheckoutRequest) ShippingDetails() domain.ShippingDetails {
	return domain.ShippingDetails{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		City:       r.City,
		PostalCode: r.PostalCode,
		Note:       r.Note,
	}
}

type CheckoutResponse struct {
	ID        uint64             `json:"id"`
	TotalCost decimal.Decimal    `json:"totalCost"`
	Status    domain.OrderStatus `json:"status"`
}
