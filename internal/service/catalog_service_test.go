package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bakery/internal/errors"
	"bakery/internal/model"
)

func cakeInput(categoryID uint) ProductInput {
	return ProductInput{
		Name:       "Torta Selva Negra",
		BasePrice:  decimal.NewFromInt(42000),
		CategoryID: categoryID,
		Variants: []VariantInput{
			{Name: "12 personas", Price: decimal.NewFromInt(42000), Stock: 10},
			{Name: "20 personas", Price: decimal.NewFromInt(65000), Stock: 5},
		},
	}
}

func TestProductService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	categories := NewCategoryService(f.repos.Categories, f.repos.Products, nil)
	products := NewProductService(f.repos.Products, f.repos.Categories, nil)

	category, err := categories.Create(ctx, CategoryInput{Name: "Tortas"})
	require.NoError(t, err)

	created, err := products.Create(ctx, cakeInput(category.ID))
	require.NoError(t, err)
	require.Len(t, created.Variants, 2)
	require.NotNil(t, created.Category)

	first, err := products.Get(ctx, created.ID)
	require.NoError(t, err)
	second, err := products.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Variants, second.Variants)

	listed, err := products.List(ctx, &category.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = products.ListByCategory(ctx, 999)
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestProductService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	category := &model.Category{Name: "Tortas"}
	require.NoError(t, f.repos.Categories.Create(ctx, category))
	products := NewProductService(f.repos.Products, f.repos.Categories, nil)

	tests := []struct {
		name   string
		mutate func(*ProductInput)
		field  string
	}{
		{"missing name", func(in *ProductInput) { in.Name = "  " }, "name"},
		{"no variants", func(in *ProductInput) { in.Variants = nil }, "variants"},
		{"negative stock", func(in *ProductInput) { in.Variants[1].Stock = -1 }, "variants[1].stock"},
		{"negative variant price", func(in *ProductInput) { in.Variants[0].Price = decimal.NewFromInt(-1) }, "variants[0].price"},
		{"unnamed variant", func(in *ProductInput) { in.Variants[0].Name = "" }, "variants[0].name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cakeInput(category.ID)
			tt.mutate(&in)
			_, err := products.Create(ctx, in)
			var validationErr *apperrors.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	_, err := products.Create(ctx, cakeInput(999))
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestProductService_DeleteOrderedProductConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "client@example.com", model.RoleClient)
	cake := f.product(t, "Cuchufli", 3)
	products := NewProductService(f.repos.Products, f.repos.Categories, nil)
	categories := NewCategoryService(f.repos.Categories, f.repos.Products, nil)

	_, err := NewOrderService(f.tx, f.repos.Orders, nil).PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []OrderItem{{ProductID: cake.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)

	var conflict *apperrors.ConflictError
	assert.True(t, errors.As(products.Delete(ctx, cake.ID), &conflict))
	assert.True(t, errors.As(categories.Delete(ctx, cake.CategoryID), &conflict))

	unordered := f.product(t, "Berlín", 3)
	require.NoError(t, categories.Delete(ctx, unordered.CategoryID))
	_, err = products.Get(ctx, unordered.ID)
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestImageService_PrimaryAndDisplayOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cake := f.product(t, "Tartaleta", 3)
	images := NewImageService(f.tx, f.repos.Images, f.repos.Products, nil)

	first, err := images.Register(ctx, cake.ID, ImageInput{URL: "https://cdn/1.jpg", Filename: "1.jpg", IsPrimary: true})
	require.NoError(t, err)
	second, err := images.Register(ctx, cake.ID, ImageInput{URL: "https://cdn/2.jpg", Filename: "2.jpg", IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, 0, first.DisplayOrder)
	assert.Equal(t, 1, second.DisplayOrder)

	list, err := images.List(ctx, cake.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsPrimary)
	assert.True(t, list[1].IsPrimary)

	_, err = images.SetPrimary(ctx, cake.ID, first.ID)
	require.NoError(t, err)
	list, err = images.List(ctx, cake.ID)
	require.NoError(t, err)
	assert.True(t, list[0].IsPrimary)
	assert.False(t, list[1].IsPrimary)

	other := f.product(t, "Chilenito", 1)
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(images.Delete(ctx, other.ID, first.ID), &nf))
	require.NoError(t, images.Delete(ctx, cake.ID, first.ID))

	_, err = images.Register(ctx, 999, ImageInput{URL: "u", Filename: "f"})
	assert.True(t, errors.As(err, &nf))
}

func TestUserService_LastAdminCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(f.repos.Users, f.repos.Roles)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)

	assert.Equal(t, apperrors.ErrLastAdmin, users.Delete(ctx, admin.ID))

	second, err := users.Create(ctx, UserInput{
		RUT: "7654321-6", Name: "Luis", Surname: "Soto", Email: "luis@example.com", Password: "1234",
		Region: "Valparaíso", Commune: "Viña del Mar", Address: "Calle 1", Role: model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, second.Role.Name)

	require.NoError(t, users.Delete(ctx, admin.ID))
	assert.Equal(t, apperrors.ErrLastAdmin, users.Delete(ctx, second.ID))
}

func TestUserService_DeleteUserWithOrdersConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(f.repos.Users, f.repos.Roles)
	buyer := f.user(t, "buyer@example.com", model.RoleClient)
	idle := f.user(t, "idle@example.com", model.RoleClient)
	cake := f.product(t, "Brazo de Reina", 2)

	_, err := NewOrderService(f.tx, f.repos.Orders, nil).PlaceOrder(ctx, PlaceOrderInput{
		UserID: buyer.ID,
		Items:  []OrderItem{{ProductID: cake.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)

	err = users.Delete(ctx, buyer.ID)
	assert.Equal(t, apperrors.ErrUserHasOrders, err)
	assert.Equal(t, 409, apperrors.MapErrorToHTTP(err).StatusCode)
	_, err = users.Get(ctx, buyer.ID)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, idle.ID))
}

func TestUserService_UpdateKeepsPasswordAndChecksUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(f.repos.Users, f.repos.Roles)
	base := UserInput{
		RUT: "12345678-5", Name: "Ana", Surname: "Rojas", Email: "ana@example.com", Password: "secret",
		Region: "Metropolitana", Commune: "Ñuñoa", Address: "Irarrázaval 100",
	}
	ana, err := users.Create(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, ana.Role.Name)

	other := base
	other.RUT, other.Email = "7654321-6", "otro@example.com"
	_, err = users.Create(ctx, other)
	require.NoError(t, err)

	update := base
	update.Password = ""
	update.Name = "Ana María"
	update.Role = model.RoleEmployee
	updated, err := users.Update(ctx, ana.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, ana.PasswordHash, updated.PasswordHash)
	assert.Equal(t, model.RoleEmployee, updated.Role.Name)

	update.Email = "otro@example.com"
	_, err = users.Update(ctx, ana.ID, update)
	assert.Equal(t, apperrors.ErrDuplicateEmail, err)
}

func TestContactService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contacts := NewContactService(f.repos.Contacts)

	_, err := contacts.Create(ctx, ContactInput{Name: "Ana", Email: "ana@example.com", Phone: "12-34", Message: "hola"})
	var validationErr *apperrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "phone", validationErr.Field)

	msg, err := contacts.Create(ctx, ContactInput{Name: "Ana", Email: "ana@example.com", Phone: "9 1234 5678", Message: "¿Hacen tortas sin gluten?"})
	require.NoError(t, err)
	assert.Equal(t, "912345678", msg.Phone)

	unread, err := contacts.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	read, err := contacts.MarkRead(ctx, msg.ID, true)
	require.NoError(t, err)
	assert.True(t, read.Read)

	onlyUnread := false
	pending, err := contacts.List(ctx, &onlyUnread)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, contacts.Delete(ctx, msg.ID))
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(contacts.Delete(ctx, msg.ID), &nf))
}
