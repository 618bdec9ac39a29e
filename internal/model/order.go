package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	// OrderStatusCompleted is the only status the order workflow assigns.
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// Order is a placed purchase. Lines are written once, in the same transaction as the order.
type Order struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"not null;index"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`

	// Relations
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Lines []OrderLine `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderLine is one cart item of an order.
type OrderLine struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	VariantID *uint           `json:"variant_id,omitempty" gorm:"index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`

	// Relations
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:SET NULL"`
}

// NewOrderLine builds a line with subtotal = quantity × unit price.
func NewOrderLine(productID uint, variantID *uint, quantity int, unitPrice decimal.Decimal) OrderLine {
	return OrderLine{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
