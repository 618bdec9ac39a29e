package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups every repository bound to one database handle.
type Repositories struct {
	Categories CategoryRepository
	Products   ProductRepository
	Images     ImageRepository
	Users      UserRepository
	Roles      RoleRepository
	Orders     OrderRepository
	Contacts   ContactRepository
}

// NewRepositories builds all repositories over db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Images:     NewImageRepository(db),
		Users:      NewUserRepository(db),
		Roles:      NewRoleRepository(db),
		Orders:     NewOrderRepository(db),
		Contacts:   NewContactRepository(db),
	}
}

// Transactor runs work inside a database transaction.
type Transactor interface {
	// WithTransaction commits when fn returns nil and rolls back otherwise.
	// The repositories handed to fn are bound to the transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a GORM-backed transactor.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithTransaction executes a function within a database transaction.
func (t *gormTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}
