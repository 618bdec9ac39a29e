package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakery/internal/cache"
	"bakery/internal/errors"
	"bakery/internal/logging"
	"bakery/internal/model"
	"bakery/internal/repository"
)

// OrderItem is one requested cart line.
type OrderItem struct {
	ProductID uint
	VariantID *uint
	Quantity  int
	UnitPrice decimal.Decimal
}

// PlaceOrderInput is a cart submitted for checkout. A zero DeclaredTotal skips
// the total cross-check.
type PlaceOrderInput struct {
	UserID        uint
	DeclaredTotal decimal.Decimal
	Items         []OrderItem
}

// OrderService handles order placement and the order ledger.
type OrderService interface {
	// PlaceOrder validates stock, records the order with its lines and
	// decrements variant stock in one transaction.
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	ListOrdersForUser(ctx context.Context, userID uint) ([]model.Order, error)
}

type orderService struct {
	tx     repository.Transactor
	orders repository.OrderRepository
	cache  *cache.Client
}

// NewOrderService creates a new order service.
func NewOrderService(tx repository.Transactor, orders repository.OrderRepository, cache *cache.Client) OrderService {
	return &orderService{
		tx:     tx,
		orders: orders,
		cache:  cache,
	}
}

// stockClaim accumulates the quantity requested for one variant across items.
type stockClaim struct {
	productName string
	variant     *model.Variant
	requested   int
}

func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	var (
		order       *model.Order
		categoryIDs []uint
		touched     []uint
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.FindByID(ctx, in.UserID)
		if err != nil {
			return notFound(err, "user", in.UserID)
		}

		claims := make(map[uint]*stockClaim)
		claimOrder := make([]uint, 0, len(in.Items))
		lines := make([]model.OrderLine, 0, len(in.Items))
		total := decimal.Zero

		for i, item := range in.Items {
			product, err := repos.Products.FindByID(ctx, item.ProductID)
			if err == gorm.ErrRecordNotFound {
				return &errors.NotFoundError{
					Resource: "product",
					ID:       item.ProductID,
					Detail:   fmt.Sprintf("item %d: product %d not found", i, item.ProductID),
				}
			}
			if err != nil {
				return err
			}
			categoryIDs = append(categoryIDs, product.CategoryID)
			touched = append(touched, product.ID)

			if item.VariantID != nil {
				variantID := *item.VariantID
				variant, err := repos.Products.FindVariantForUpdate(ctx, variantID)
				if err != nil && err != gorm.ErrRecordNotFound {
					return err
				}
				if variant == nil || variant.ProductID != product.ID {
					return &errors.NotFoundError{
						Resource: "variant",
						ID:       variantID,
						Detail:   fmt.Sprintf("item %d: variant %d not found for product %d", i, variantID, product.ID),
					}
				}

				claim, seen := claims[variantID]
				if !seen {
					claim = &stockClaim{productName: product.Name, variant: variant}
					claims[variantID] = claim
					claimOrder = append(claimOrder, variantID)
				}
				claim.requested += item.Quantity
				if claim.requested > variant.Stock {
					return insufficientStock(claim)
				}
			}

			line := model.NewOrderLine(product.ID, item.VariantID, item.Quantity, item.UnitPrice)
			total = total.Add(line.Subtotal)
			lines = append(lines, line)
		}

		if !in.DeclaredTotal.IsZero() && !in.DeclaredTotal.Equal(total) {
			return errors.Invalid("total", "declared total %s does not match computed total %s",
				in.DeclaredTotal.StringFixed(2), total.StringFixed(2))
		}

		order = &model.Order{
			UserID: user.ID,
			Total:  total,
			Status: model.OrderStatusCompleted,
			Lines:  lines,
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, variantID := range claimOrder {
			claim := claims[variantID]
			ok, err := repos.Products.DecrementStock(ctx, variantID, claim.requested)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				return insufficientStock(claim)
			}
		}
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("order rejected", "user_id", in.UserID, "items", len(in.Items), "error", err)
		return nil, err
	}

	invalidateProducts(ctx, s.cache, categoryIDs, touched...)
	logging.FromContext(ctx).Info("order placed",
		"order_id", order.ID, "user_id", order.UserID, "total", order.Total.StringFixed(2), "lines", len(order.Lines))
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return order, nil
}

func (s *orderService) ListOrdersForUser(ctx context.Context, userID uint) ([]model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

// moneyScale matches the decimal(12,2) money columns.
const moneyScale = 2

func validateOrderInput(in PlaceOrderInput) error {
	if in.UserID == 0 {
		return errors.Invalid("user_id", "is required")
	}
	if len(in.Items) == 0 {
		return errors.Invalid("items", "an order needs at least one item")
	}
	for i, item := range in.Items {
		if item.ProductID == 0 {
			return errors.Invalid(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if item.Quantity <= 0 {
			return errors.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return errors.Invalid(fmt.Sprintf("items[%d].unit_price", i), "must not be negative")
		}
		if !item.UnitPrice.Equal(item.UnitPrice.Round(moneyScale)) {
			return errors.Invalid(fmt.Sprintf("items[%d].unit_price", i), "must have at most %d decimal places", moneyScale)
		}
	}
	if in.DeclaredTotal.IsNegative() {
		return errors.Invalid("total", "must not be negative")
	}
	if !in.DeclaredTotal.Equal(in.DeclaredTotal.Round(moneyScale)) {
		return errors.Invalid("total", "must have at most %d decimal places", moneyScale)
	}
	return nil
}

func insufficientStock(claim *stockClaim) error {
	return &errors.InsufficientStockError{
		ProductID:   claim.variant.ProductID,
		ProductName: claim.productName,
		VariantID:   claim.variant.ID,
		VariantName: claim.variant.Name,
		Available:   claim.variant.Stock,
		Requested:   claim.requested,
	}
}
