package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bakery/internal/cache"
	"bakery/internal/errors"
	"bakery/internal/logging"
	"bakery/internal/model"
	"bakery/internal/repository"
)

// VariantInput carries one variant of a product write. A non-zero ID keeps the
// existing variant; variants left out of an update are removed.
type VariantInput struct {
	ID            uint
	Name          string
	Price         decimal.Decimal
	Stock         int
	NutritionInfo string
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Description string
	Image       string
	BasePrice   decimal.Decimal
	CategoryID  uint
	Variants    []VariantInput
}

// ProductService handles product catalog operations.
type ProductService interface {
	// List returns every product, or only those of categoryID when it is non-nil.
	List(ctx context.Context, categoryID *uint) ([]model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]model.Product, error)
	Create(ctx context.Context, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uint, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      *cache.Client
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, cache *cache.Client) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		cache:      cache,
	}
}

func (s *productService) List(ctx context.Context, categoryID *uint) ([]model.Product, error) {
	if categoryID != nil {
		return s.ListByCategory(ctx, *categoryID)
	}

	var cached []model.Product
	if s.cache.GetJSON(ctx, productListKey, &cached) {
		return cached, nil
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	s.cache.SetJSON(ctx, productListKey, products, catalogCacheTTL)
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uint) (*model.Product, error) {
	var cached model.Product
	if s.cache.GetJSON(ctx, productKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	s.cache.SetJSON(ctx, productKey(id), product, catalogCacheTTL)
	return product, nil
}

func (s *productService) ListByCategory(ctx context.Context, categoryID uint) ([]model.Product, error) {
	key := productsByCategoryKey(categoryID)
	var cached []model.Product
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return nil, notFound(err, "category", categoryID)
	}
	products, err := s.products.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	s.cache.SetJSON(ctx, key, products, catalogCacheTTL)
	return products, nil
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	for i := range product.Variants {
		product.Variants[i].ID = 0
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	invalidateProducts(ctx, s.cache, []uint{product.CategoryID})
	logging.FromContext(ctx).Info("product created", "product_id", product.ID, "variants", len(product.Variants))
	return s.reload(ctx, product.ID)
}

func (s *productService) Update(ctx context.Context, id uint, in ProductInput) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	previousCategory := product.CategoryID
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	invalidateProducts(ctx, s.cache, []uint{previousCategory, product.CategoryID}, id)
	return s.reload(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id uint) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "product", id)
	}
	ordered, err := s.products.HasOrderLines(ctx, id)
	if err != nil {
		return fmt.Errorf("check product orders: %w", err)
	}
	if ordered {
		return &errors.ConflictError{Message: fmt.Sprintf("product %d appears on orders and cannot be deleted", id)}
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	invalidateProducts(ctx, s.cache, []uint{product.CategoryID}, id)
	logging.FromContext(ctx).Info("product deleted", "product_id", id)
	return nil
}

func (s *productService) reload(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return product, nil
}

// apply validates in and copies it onto product.
func (s *productService) apply(ctx context.Context, product *model.Product, in ProductInput) error {
	name, err := requireText("name", in.Name, 200)
	if err != nil {
		return err
	}
	if err := maxText("description", in.Description, 1000); err != nil {
		return err
	}
	if in.BasePrice.IsNegative() {
		return errors.Invalid("base_price", "must not be negative")
	}
	if in.CategoryID == 0 {
		return errors.Invalid("category_id", "is required")
	}
	if len(in.Variants) == 0 {
		return errors.Invalid("variants", "a product needs at least one variant")
	}

	variants := make([]model.Variant, 0, len(in.Variants))
	for i, v := range in.Variants {
		field := fmt.Sprintf("variants[%d]", i)
		variantName := strings.TrimSpace(v.Name)
		if variantName == "" {
			return errors.Invalid(field+".name", "is required")
		}
		if err := maxText(field+".name", variantName, 100); err != nil {
			return err
		}
		if v.Price.IsNegative() {
			return errors.Invalid(field+".price", "must not be negative")
		}
		if v.Stock < 0 {
			return errors.Invalid(field+".stock", "must not be negative")
		}
		if err := maxText(field+".nutrition_info", v.NutritionInfo, 500); err != nil {
			return err
		}
		variants = append(variants, model.Variant{
			ID:            v.ID,
			ProductID:     product.ID,
			Name:          variantName,
			Price:         v.Price,
			Stock:         v.Stock,
			NutritionInfo: v.NutritionInfo,
		})
	}

	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return notFound(err, "category", in.CategoryID)
	}

	product.Name = name
	product.Description = in.Description
	product.Image = in.Image
	product.BasePrice = in.BasePrice
	product.CategoryID = in.CategoryID
	product.Category = nil
	product.Variants = variants
	return nil
}
