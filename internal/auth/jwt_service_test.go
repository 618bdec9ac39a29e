package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: 7, Email: "ana@example.com", Role: model.Role{Name: model.RoleEmployee}}
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, 0)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, model.RoleEmployee, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), svc.RemainingTTL(claims).Seconds(), 5)
}

func TestJWTService_RejectsWrongType(t *testing.T) {
	svc := NewJWTService("secret", 0, 0)

	_, refresh, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh, TokenTypeAccess)
	assert.Error(t, err)
	_, err = svc.ValidateToken(refresh, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestJWTService_RejectsTamperedAndExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, 0)
	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	other := NewJWTService("other-secret", time.Minute, 0)
	_, err = other.ValidateToken(token, TokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = svc.ValidateToken(token+"x", TokenTypeAccess)
	assert.Error(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token, TokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_RejectsUnsignedTokens(t *testing.T) {
	svc := NewJWTService("secret", 0, 0)
	claims := &Claims{UserID: 1, Type: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{ID: "x"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token, TokenTypeAccess)
	assert.Error(t, err)
}
