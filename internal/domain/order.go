package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCanceled   OrderStatus = "canceled"
)

type Order struct {
	ID            uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        uint64          `json:"userId" gorm:"not null;index"`
	FirstName     string          `json:"firstName" gorm:"size:100;not null"`
	LastName      string          `json:"lastName" gorm:"size:100;not null"`
	Email         string          `json:"email" gorm:"size:254;not null"`
	Phone         string          `json:"phone" gorm:"size:20;not null"`
	Address       string          `json:"address" gorm:"type:text;not null"`
	PostalCode    string          `json:"postalCode" gorm:"size:100;not null"`
	City          string          `json:"city" gorm:"size:100;not null"`
	Note          *string         `json:"note,omitempty" gorm:"type:text"`
	TransactionID *string         `json:"transactionId,omitempty" gorm:"size:150;uniqueIndex"`
	ValidationID  *string         `json:"-" gorm:"size:100;uniqueIndex"`
	Paid          bool            `json:"paid" gorm:"not null;default:false"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(15);not null;default:'pending'"`
	TotalCost     decimal.Decimal `json:"totalCost" gorm:"type:decimal(12,2);not null"`
	Items         []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// OrderItem keeps the unit price the product had when the order was placed.
type OrderItem struct {
	ID        uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `json:"orderId" gorm:"not null;index"`
	ProductID uint64          `json:"productId" gorm:"not null;index"`
	Quantity  int64           `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// ItemsTotal sums the snapshotted line costs. It never looks at current product prices.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Cost())
	}
	return total
}

func (o *Order) CustomerName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

func (o *Order) HasTransactionID() bool {
	return o.TransactionID != nil && *o.TransactionID != ""
}

// PaymentConfirmation is what gets persisted when the gateway confirms a payment.
type PaymentConfirmation struct {
	TransactionID string
	ValidationID  string
}

type ShippingDetails struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Note       string
}
