package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bakery/internal/errors"
	"bakery/internal/logging"
	"bakery/internal/model"
	"bakery/internal/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 4
)

// UserInput carries the writable user fields. On update an empty Password
// keeps the current hash and an empty Role keeps the current role.
type UserInput struct {
	RUT      string
	Name     string
	Surname  string
	Email    string
	Password string
	Region   string
	Commune  string
	Address  string
	Role     model.RoleName
}

// UserService handles user administration.
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, in UserInput) (*model.User, error)
	Update(ctx context.Context, id uint, in UserInput) (*model.User, error)
	// Delete removes a user. The last administrator cannot be removed.
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository) UserService {
	return &userService{users: users, roles: roles}
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleClient
	}
	return createUser(ctx, s.users, s.roles, in)
}

func (s *userService) Update(ctx context.Context, id uint, in UserInput) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	in = normalizeUserInput(in)
	if err := validateUserInput(in, false); err != nil {
		return nil, err
	}

	if in.Email != user.Email {
		if err := ensureEmailFree(ctx, s.users, in.Email); err != nil {
			return nil, err
		}
	}
	if in.RUT != user.RUT {
		if err := ensureRUTFree(ctx, s.users, in.RUT); err != nil {
			return nil, err
		}
	}
	if in.Role != "" && in.Role != user.Role.Name {
		if user.Role.Name == model.RoleAdmin {
			if err := s.ensureNotLastAdmin(ctx); err != nil {
				return nil, err
			}
		}
		role, err := resolveRole(ctx, s.roles, in.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = *role
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.RUT = in.RUT
	user.Name = in.Name
	user.Surname = in.Surname
	user.Email = in.Email
	user.Region = in.Region
	user.Commune = in.Commune
	user.Address = in.Address
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uint) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "user", id)
	}
	if user.Role.Name == model.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}
	hasOrders, err := s.users.HasOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("check user orders: %w", err)
	}
	if hasOrders {
		return errors.ErrUserHasOrders
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	logging.FromContext(ctx).Info("user deleted", "user_id", id)
	return nil
}

func (s *userService) ensureNotLastAdmin(ctx context.Context) error {
	admins, err := s.users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return errors.ErrLastAdmin
	}
	return nil
}

// createUser validates in, checks uniqueness and stores a new user with a hashed password.
func createUser(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, in UserInput) (*model.User, error) {
	in = normalizeUserInput(in)
	if err := validateUserInput(in, true); err != nil {
		return nil, err
	}
	if err := ensureEmailFree(ctx, users, in.Email); err != nil {
		return nil, err
	}
	if err := ensureRUTFree(ctx, users, in.RUT); err != nil {
		return nil, err
	}
	role, err := resolveRole(ctx, roles, in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		RUT:          in.RUT,
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        in.Email,
		PasswordHash: hash,
		Region:       in.Region,
		Commune:      in.Commune,
		Address:      in.Address,
		RoleID:       role.ID,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Role = *role
	return user, nil
}

func normalizeUserInput(in UserInput) UserInput {
	in.RUT = NormalizeRUT(in.RUT)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Region = strings.TrimSpace(in.Region)
	in.Commune = strings.TrimSpace(in.Commune)
	in.Address = strings.TrimSpace(in.Address)
	return in
}

func validateUserInput(in UserInput, passwordRequired bool) error {
	if in.RUT == "" {
		return errors.Invalid("rut", "is required")
	}
	if !ValidRUT(in.RUT) {
		return errors.Invalid("rut", "must look like 12345678-9 with a valid check digit")
	}
	if _, err := requireText("name", in.Name, 100); err != nil {
		return err
	}
	if _, err := requireText("surname", in.Surname, 100); err != nil {
		return err
	}
	if err := validate.Var(in.Email, "required,email,max=255"); err != nil {
		return errors.Invalid("email", "must be a valid email address")
	}
	if passwordRequired || in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return errors.Invalid("password", "must be at least %d characters", minPasswordLength)
		}
	}
	if _, err := requireText("region", in.Region, 100); err != nil {
		return err
	}
	if _, err := requireText("commune", in.Commune, 100); err != nil {
		return err
	}
	if _, err := requireText("address", in.Address, 500); err != nil {
		return err
	}
	if in.Role != "" && !in.Role.Valid() {
		return errors.Invalid("role", "must be one of ADMIN, EMPLOYEE, CLIENT")
	}
	return nil
}

func ensureEmailFree(ctx context.Context, users repository.UserRepository, email string) error {
	existing, err := users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return errors.ErrDuplicateEmail
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

func ensureRUTFree(ctx context.Context, users repository.UserRepository, rut string) error {
	existing, err := users.FindByRUT(ctx, rut)
	if err == nil && existing != nil {
		return errors.ErrDuplicateRUT
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check rut: %w", err)
	}
	return nil
}

func resolveRole(ctx context.Context, roles repository.RoleRepository, name model.RoleName) (*model.Role, error) {
	role, err := roles.FindByName(ctx, name)
	if err == gorm.ErrRecordNotFound {
		return nil, errors.Invalid("role", "unknown role %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	return role, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
