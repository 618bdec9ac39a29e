package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"bakery/internal/cache"
	"bakery/internal/errors"
)

const catalogCacheTTL = 5 * time.Minute

const (
	categoryListKey = "catalog:categories"
	productListKey  = "catalog:products"
)

var validate = validator.New()

func categoryKey(id uint) string {
	return fmt.Sprintf("catalog:category:%d", id)
}

func productKey(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

func productsByCategoryKey(categoryID uint) string {
	return fmt.Sprintf("catalog:category:%d:products", categoryID)
}

// invalidateProducts drops cached reads that include any of the given products.
func invalidateProducts(ctx context.Context, c *cache.Client, categoryIDs []uint, productIDs ...uint) {
	keys := []string{productListKey}
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	for _, id := range categoryIDs {
		keys = append(keys, productsByCategoryKey(id))
	}
	_ = c.Delete(ctx, keys...)
}

// notFound translates a missing record into a typed NotFoundError.
func notFound(err error, resource string, id uint) error {
	if err == gorm.ErrRecordNotFound {
		return errors.NotFound(resource, id)
	}
	return err
}

// requireText trims value and checks it is present and at most max characters.
func requireText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.Invalid(field, "is required")
	}
	return value, maxText(field, value, max)
}

func maxText(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return errors.Invalid(field, "must be at most %d characters", max)
	}
	return nil
}
