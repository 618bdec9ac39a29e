package service

import (
	"context"
	"fmt"

	"bakery/internal/cache"
	"bakery/internal/errors"
	"bakery/internal/logging"
	"bakery/internal/model"
	"bakery/internal/repository"
)

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string
	Description string
	Image       string
}

// CategoryService handles category operations.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id uint) (*model.Category, error)
	Create(ctx context.Context, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id uint, in CategoryInput) (*model.Category, error)
	// Delete removes the category and every product in it.
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      *cache.Client
}

// NewCategoryService creates a new category service.
func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository, cache *cache.Client) CategoryService {
	return &categoryService{
		categories: categories,
		products:   products,
		cache:      cache,
	}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.GetJSON(ctx, categoryListKey, &cached) {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.cache.SetJSON(ctx, categoryListKey, categories, catalogCacheTTL)
	return categories, nil
}

func (s *categoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	var cached model.Category
	if s.cache.GetJSON(ctx, categoryKey(id), &cached) {
		return &cached, nil
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	s.cache.SetJSON(ctx, categoryKey(id), category, catalogCacheTTL)
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	category := &model.Category{}
	if err := applyCategoryInput(category, in); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	_ = s.cache.Delete(ctx, categoryListKey)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, in CategoryInput) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	if err := applyCategoryInput(category, in); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	// products embed their category
	products, _ := s.products.ListByCategory(ctx, id)
	_ = s.cache.Delete(ctx, categoryListKey, categoryKey(id))
	invalidateProducts(ctx, s.cache, []uint{id}, productIDs(products)...)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return notFound(err, "category", id)
	}
	ordered, err := s.categories.HasOrderedProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("check category orders: %w", err)
	}
	if ordered {
		return &errors.ConflictError{Message: "category has products that appear on orders"}
	}

	products, err := s.products.ListByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("list category products: %w", err)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	_ = s.cache.Delete(ctx, categoryListKey, categoryKey(id))
	invalidateProducts(ctx, s.cache, []uint{id}, productIDs(products)...)
	logging.FromContext(ctx).Info("category deleted", "category_id", id, "products", len(products))
	return nil
}

func applyCategoryInput(category *model.Category, in CategoryInput) error {
	name, err := requireText("name", in.Name, 100)
	if err != nil {
		return err
	}
	category.Name = name
	category.Description = in.Description
	category.Image = in.Image
	return nil
}

func productIDs(products []model.Product) []uint {
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
