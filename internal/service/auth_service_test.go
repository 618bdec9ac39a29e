package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bakery/internal/auth"
	apperrors "bakery/internal/errors"
	"bakery/internal/model"
)

var clientRole = &model.Role{ID: 3, Name: model.RoleClient}

func validRegistration() UserInput {
	return UserInput{
		RUT:      "12345678-5",
		Name:     "Ana",
		Surname:  "Rojas",
		Email:    "Ana@Example.com",
		Password: "secret",
		Region:   "Metropolitana",
		Commune:  "Providencia",
		Address:  "Av. Siempre Viva 123",
	}
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService("test-secret", time.Hour, 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         func() UserInput
		setupMock     func(*MockUserRepository, *MockRoleRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:  "successful registration",
			input: validRegistration,
			setupMock: func(mUsers *MockUserRepository, mRoles *MockRoleRepository, mTokens *MockTokenStore) {
				mUsers.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, gorm.ErrRecordNotFound)
				mUsers.On("FindByRUT", mock.Anything, "12345678-5").Return(nil, gorm.ErrRecordNotFound)
				mRoles.On("FindByName", mock.Anything, model.RoleClient).Return(clientRole, nil)
				mUsers.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mTokens.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), uint(1), 24*time.Hour).Return(nil)
			},
		},
		{
			name:  "email already registered",
			input: validRegistration,
			setupMock: func(mUsers *MockUserRepository, _ *MockRoleRepository, _ *MockTokenStore) {
				mUsers.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{ID: 9}, nil)
			},
			expectedError: apperrors.ErrDuplicateEmail,
		},
		{
			name: "invalid rut check digit",
			input: func() UserInput {
				in := validRegistration()
				in.RUT = "12345678-4"
				return in
			},
			setupMock: func(*MockUserRepository, *MockRoleRepository, *MockTokenStore) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUsers, mRoles, mTokens := new(MockUserRepository), new(MockRoleRepository), new(MockTokenStore)
			tt.setupMock(mUsers, mRoles, mTokens)

			svc := NewAuthService(mUsers, mRoles, newTestJWT(), mTokens)
			result, err := svc.Register(context.Background(), tt.input())

			switch {
			case tt.expectedError != nil:
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, result)
			case tt.name == "invalid rut check digit":
				var validationErr *apperrors.ValidationError
				require.True(t, errors.As(err, &validationErr))
				assert.Equal(t, "rut", validationErr.Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, model.RoleClient, result.Role)
				assert.Equal(t, "ana@example.com", result.User.Email)
				assert.NotEmpty(t, result.User.PasswordHash)
				assert.NotEmpty(t, result.AccessToken)
				assert.NotEmpty(t, result.RefreshToken)
			}

			mUsers.AssertExpectations(t)
			mRoles.AssertExpectations(t)
			mTokens.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	require.NoError(t, err)
	stored := &model.User{
		ID:           4,
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
		Role:         model.Role{Name: model.RoleEmployee},
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mUsers *MockUserRepository, mTokens *MockTokenStore) {
				mUsers.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
				mTokens.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), uint(4), 24*time.Hour).Return(nil)
			},
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "password123",
			setupMock: func(mUsers *MockUserRepository, _ *MockTokenStore) {
				mUsers.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrong",
			setupMock: func(mUsers *MockUserRepository, _ *MockTokenStore) {
				mUsers.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUsers, mTokens := new(MockUserRepository), new(MockTokenStore)
			tt.setupMock(mUsers, mTokens)

			jwtService := newTestJWT()
			svc := NewAuthService(mUsers, new(MockRoleRepository), jwtService, mTokens)
			result, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.RoleEmployee, result.Role)
				claims, err := jwtService.ValidateToken(result.AccessToken, auth.TokenTypeAccess)
				require.NoError(t, err)
				assert.Equal(t, uint(4), claims.UserID)
				assert.Equal(t, model.RoleEmployee, claims.Role)
			}

			mUsers.AssertExpectations(t)
			mTokens.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	jwtService := newTestJWT()
	user := &model.User{ID: 4, Email: "test@example.com", Role: model.Role{Name: model.RoleClient}}
	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	t.Run("stored token issues a new access token", func(t *testing.T) {
		mUsers, mTokens := new(MockUserRepository), new(MockTokenStore)
		mTokens.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(4), nil)
		mUsers.On("FindByID", mock.Anything, uint(4)).Return(user, nil)

		svc := NewAuthService(mUsers, new(MockRoleRepository), jwtService, mTokens)
		access, err := svc.RefreshToken(context.Background(), refreshToken)
		require.NoError(t, err)

		claims, err := jwtService.ValidateToken(access, auth.TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(4), claims.UserID)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		mTokens := new(MockTokenStore)
		mTokens.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), errors.New("refresh token not found"))

		svc := NewAuthService(new(MockUserRepository), new(MockRoleRepository), jwtService, mTokens)
		_, err := svc.RefreshToken(context.Background(), refreshToken)
		assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		access, err := jwtService.GenerateAccessToken(user)
		require.NoError(t, err)

		svc := NewAuthService(new(MockUserRepository), new(MockRoleRepository), jwtService, new(MockTokenStore))
		_, err = svc.RefreshToken(context.Background(), access)
		assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)
	})
}

func TestAuthService_LogoutBlacklistsAccessToken(t *testing.T) {
	jwtService := newTestJWT()
	user := &model.User{ID: 4, Email: "test@example.com", Role: model.Role{Name: model.RoleClient}}
	refreshID, refreshToken, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)
	access, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)
	accessClaims, err := jwtService.ValidateToken(access, auth.TokenTypeAccess)
	require.NoError(t, err)

	mTokens := new(MockTokenStore)
	mTokens.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)
	mTokens.On("BlacklistAccessToken", mock.Anything, accessClaims.ID, mock.AnythingOfType("time.Duration")).Return(nil)

	svc := NewAuthService(new(MockUserRepository), new(MockRoleRepository), jwtService, mTokens)
	require.NoError(t, svc.Logout(context.Background(), refreshToken, accessClaims))
	mTokens.AssertExpectations(t)

	assert.Equal(t, apperrors.ErrInvalidRefreshToken, svc.Logout(context.Background(), "garbage", nil))
}
