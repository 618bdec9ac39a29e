package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bakery/internal/model"
)

// ProductRepository defines product persistence operations. Reads always
// return the product with its variants and images loaded.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	// Update saves the product columns and replaces its variant set.
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]model.Product, error)
	// Delete removes the product with its variants and images.
	Delete(ctx context.Context, id uint) error
	HasOrderLines(ctx context.Context, id uint) (bool, error)

	// FindVariantForUpdate reads a variant and locks its row until the transaction ends.
	FindVariantForUpdate(ctx context.Context, id uint) (*model.Variant, error)
	// DecrementStock subtracts qty from the variant's stock only when enough
	// stock remains. It reports false when no row was changed.
	DecrementStock(ctx context.Context, variantID uint, qty int) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("variants.id") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("images.display_order, images.id") })
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Images").Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return err
		}

		kept := make([]uint, 0, len(product.Variants))
		for i := range product.Variants {
			v := &product.Variants[i]
			v.ProductID = product.ID
			if v.ID != 0 {
				res := tx.Model(&model.Variant{}).
					Where("id = ? AND product_id = ?", v.ID, product.ID).
					Select("name", "price", "stock", "nutrition_info").
					Updates(v)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected > 0 {
					kept = append(kept, v.ID)
					continue
				}
				// unknown id or another product's variant: insert as new
				v.ID = 0
			}
			if err := tx.Create(v).Error; err != nil {
				return err
			}
			kept = append(kept, v.ID)
		}

		stale := tx.Where("product_id = ?", product.ID)
		if len(kept) > 0 {
			stale = stale.Where("id NOT IN ?", kept)
		}
		return stale.Delete(&model.Variant{}).Error
	})
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.withChildren(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.withChildren(ctx).Order("products.id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListByCategory(ctx context.Context, categoryID uint) ([]model.Product, error) {
	var products []model.Product
	if err := r.withChildren(ctx).Where("category_id = ?", categoryID).Order("products.id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.Image{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.Variant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, id).Error
	})
}

func (r *productRepository) HasOrderLines(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderLine{}).Where("product_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *productRepository) FindVariantForUpdate(ctx context.Context, id uint) (*model.Variant, error) {
	var variant model.Variant
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&variant, id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, variantID uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Variant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
