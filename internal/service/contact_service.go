package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"bakery/internal/errors"
	"bakery/internal/logging"
	"bakery/internal/model"
	"bakery/internal/repository"
)

// ContactInput is a message from the public contact form.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// ContactService handles contact form messages.
type ContactService interface {
	Create(ctx context.Context, in ContactInput) (*model.Contact, error)
	// List returns messages newest first, filtered by read state when read is non-nil.
	List(ctx context.Context, read *bool) ([]model.Contact, error)
	Get(ctx context.Context, id uint) (*model.Contact, error)
	MarkRead(ctx context.Context, id uint, read bool) (*model.Contact, error)
	Delete(ctx context.Context, id uint) error
	CountUnread(ctx context.Context) (int64, error)
}

type contactService struct {
	contacts repository.ContactRepository
	now      func() time.Time
}

// NewContactService creates a new contact service.
func NewContactService(contacts repository.ContactRepository) ContactService {
	return &contactService{contacts: contacts, now: time.Now}
}

func (s *contactService) Create(ctx context.Context, in ContactInput) (*model.Contact, error) {
	name, err := requireText("name", in.Name, 200)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Var(email, "required,email,max=200"); err != nil {
		return nil, errors.Invalid("email", "must be a valid email address")
	}
	phone := digitsOnly(in.Phone)
	if in.Phone != "" && (len(phone) < 8 || len(phone) > 9) {
		return nil, errors.Invalid("phone", "must have 8 or 9 digits")
	}
	message, err := requireText("message", in.Message, 2000)
	if err != nil {
		return nil, err
	}

	contact := &model.Contact{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Message: message,
		SentAt:  s.now().UTC(),
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	logging.FromContext(ctx).Info("contact message received", "contact_id", contact.ID)
	return contact, nil
}

func (s *contactService) List(ctx context.Context, read *bool) ([]model.Contact, error) {
	contacts, err := s.contacts.List(ctx, read)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *contactService) Get(ctx context.Context, id uint) (*model.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contact", id)
	}
	return contact, nil
}

func (s *contactService) MarkRead(ctx context.Context, id uint, read bool) (*model.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.SetRead(ctx, id, read); err != nil {
		return nil, fmt.Errorf("mark contact: %w", err)
	}
	contact.Read = read
	return contact, nil
}

func (s *contactService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.contacts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (s *contactService) CountUnread(ctx context.Context) (int64, error) {
	count, err := s.contacts.CountUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unread contacts: %w", err)
	}
	return count, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
