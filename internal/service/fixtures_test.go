package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bakery/internal/db/dbtest"
	"bakery/internal/model"
	"bakery/internal/repository"
)

type fixture struct {
	db    *gorm.DB
	repos repository.Repositories
	tx    repository.Transactor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB := dbtest.New(t)
	return &fixture{
		db:    gormDB,
		repos: repository.NewRepositories(gormDB),
		tx:    repository.NewTransactor(gormDB),
	}
}

func (f *fixture) user(t *testing.T, email string, role model.RoleName) *model.User {
	t.Helper()
	ctx := context.Background()
	r, err := f.repos.Roles.FindByName(ctx, role)
	require.NoError(t, err)
	u := &model.User{
		RUT:          email,
		Name:         "Test",
		Surname:      "User",
		Email:        email,
		PasswordHash: "x",
		RoleID:       r.ID,
	}
	require.NoError(t, f.repos.Users.Create(ctx, u))
	u.Role = *r
	return u
}

// product creates a category with one product whose variants have the given stocks.
// Variant i costs (i+1) * 1000.
func (f *fixture) product(t *testing.T, name string, stocks ...int) *model.Product {
	t.Helper()
	ctx := context.Background()
	category := &model.Category{Name: name + " category"}
	require.NoError(t, f.repos.Categories.Create(ctx, category))

	p := &model.Product{Name: name, BasePrice: decimal.NewFromInt(1000), CategoryID: category.ID}
	for i, stock := range stocks {
		p.Variants = append(p.Variants, model.Variant{
			Name:  name + " size " + string(rune('A'+i)),
			Price: decimal.NewFromInt(int64(1000 * (i + 1))),
			Stock: stock,
		})
	}
	require.NoError(t, f.repos.Products.Create(ctx, p))
	return p
}

func (f *fixture) stock(t *testing.T, variantID uint) int {
	t.Helper()
	var v model.Variant
	require.NoError(t, f.db.First(&v, variantID).Error)
	return v.Stock
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }
