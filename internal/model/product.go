package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Variants and Images are owned by the product and
// are always loaded together with it.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:200;not null;index"`
	Description string          `json:"description" gorm:"size:1000"`
	Image       string          `json:"image" gorm:"size:255"` // legacy single image, superseded by Images
	BasePrice   decimal.Decimal `json:"base_price" gorm:"type:decimal(12,2);not null;default:0"`
	CategoryID  uint            `json:"category_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Variants []Variant `json:"variants" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images   []Image   `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Variant is a purchasable size of a product with its own price and stock.
type Variant struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	ProductID     uint            `json:"product_id" gorm:"not null;index"`
	Name          string          `json:"name" gorm:"size:100;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock         int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	NutritionInfo string          `json:"nutrition_info" gorm:"size:500"`
}

// Image references a product picture kept in external object storage.
type Image struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ProductID    uint      `json:"product_id" gorm:"not null;index"`
	URL          string    `json:"url" gorm:"size:500;not null"`
	Filename     string    `json:"filename" gorm:"size:255;not null"`
	MimeType     string    `json:"mime_type" gorm:"size:100"`
	SizeBytes    int64     `json:"size_bytes"`
	IsPrimary    bool      `json:"is_primary" gorm:"not null;default:false"`
	DisplayOrder int       `json:"display_order" gorm:"not null;default:0"`
	UploadedAt   time.Time `json:"uploaded_at" gorm:"not null"`
}
