package repository

import (
	"context"

	"gorm.io/gorm"

	"bakery/internal/model"
)

// ContactRepository defines contact message persistence operations.
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	FindByID(ctx context.Context, id uint) (*model.Contact, error)
	// List returns messages newest first. A nil read lists every message.
	List(ctx context.Context, read *bool) ([]model.Contact, error)
	SetRead(ctx context.Context, id uint, read bool) error
	Delete(ctx context.Context, id uint) error
	CountUnread(ctx context.Context) (int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepository) FindByID(ctx context.Context, id uint) (*model.Contact, error) {
	var contact model.Contact
	if err := r.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) List(ctx context.Context, read *bool) ([]model.Contact, error) {
	q := r.db.WithContext(ctx).Order("sent_at DESC, id DESC")
	if read != nil {
		q = q.Where("is_read = ?", *read)
	}
	var contacts []model.Contact
	if err := q.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) SetRead(ctx context.Context, id uint, read bool) error {
	return r.db.WithContext(ctx).Model(&model.Contact{}).Where("id = ?", id).Update("is_read", read).Error
}

func (r *contactRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Contact{}, id).Error
}

func (r *contactRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Contact{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}
