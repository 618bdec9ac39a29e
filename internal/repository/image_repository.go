package repository

import (
	"context"

	"gorm.io/gorm"

	"bakery/internal/model"
)

// ImageRepository defines product image persistence operations.
type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	FindByID(ctx context.Context, id uint) (*model.Image, error)
	ListByProduct(ctx context.Context, productID uint) ([]model.Image, error)
	CountByProduct(ctx context.Context, productID uint) (int64, error)
	// ClearPrimary unsets the primary flag on every image of the product.
	ClearPrimary(ctx context.Context, productID uint) error
	SetPrimary(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *model.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) FindByID(ctx context.Context, id uint) (*model.Image, error) {
	var image model.Image
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) ListByProduct(ctx context.Context, productID uint) ([]model.Image, error) {
	var images []model.Image
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("display_order, id").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Image{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *imageRepository) ClearPrimary(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Model(&model.Image{}).
		Where("product_id = ? AND is_primary = ?", productID, true).
		Update("is_primary", false).Error
}

func (r *imageRepository) SetPrimary(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Image{}).Where("id = ?", id).Update("is_primary", true).Error
}

func (r *imageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Image{}, id).Error
}
