package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/internal/auth"
	"bakery/internal/config"
	"bakery/internal/db/dbtest"
	"bakery/internal/errors"
	"bakery/internal/handler"
	"bakery/internal/model"
	"bakery/internal/repository"
	"bakery/internal/router"
	"bakery/internal/service"
)

// memoryTokens is an in-process token store.
type memoryTokens struct {
	mu      sync.Mutex
	refresh map[string]uint
	revoked map[string]bool
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{refresh: map[string]uint{}, revoked: map[string]bool{}}
}

func (m *memoryTokens) StoreRefreshToken(_ context.Context, id string, userID uint, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[id] = userID
	return nil
}

func (m *memoryTokens) GetRefreshToken(_ context.Context, id string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.refresh[id]
	if !ok {
		return 0, errors.ErrInvalidRefreshToken
	}
	return userID, nil
}

func (m *memoryTokens) DeleteRefreshToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, id)
	return nil
}

func (m *memoryTokens) BlacklistAccessToken(_ context.Context, id string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = true
	return nil
}

func (m *memoryTokens) IsAccessTokenBlacklisted(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[id], nil
}

type testServer struct {
	e      *echo.Echo
	repos  repository.Repositories
	jwt    *auth.JWTService
	tokens *memoryTokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gormDB := dbtest.New(t)
	repos := repository.NewRepositories(gormDB)
	tx := repository.NewTransactor(gormDB)
	jwtService := auth.NewJWTService("router-test-secret", time.Hour, 24*time.Hour)
	tokens := newMemoryTokens()

	cfg := &config.Config{CORSOrigins: []string{"http://localhost:5173"}, RequestMaxBody: "1M"}
	e := echo.New()
	router.Register(e, cfg, router.Deps{
		JWT:    jwtService,
		Tokens: tokens,
		Ping:   func(context.Context) error { return nil },
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(repos.Users, repos.Roles, jwtService, tokens)),
		Users:    handler.NewUserHandler(service.NewUserService(repos.Users, repos.Roles)),
		Category: handler.NewCategoryHandler(service.NewCategoryService(repos.Categories, repos.Products, nil)),
		Product: handler.NewProductHandler(
			service.NewProductService(repos.Products, repos.Categories, nil),
			service.NewImageService(tx, repos.Images, repos.Products, nil),
		),
		Order: handler.NewOrderHandler(
			service.NewOrderService(tx, repos.Orders, nil),
			service.NewReportService(repos.Orders, time.UTC),
		),
		Contact: handler.NewContactHandler(service.NewContactService(repos.Contacts)),
	})
	return &testServer{e: e, repos: repos, jwt: jwtService, tokens: tokens}
}

func (s *testServer) user(t *testing.T, email string, role model.RoleName) (*model.User, string) {
	t.Helper()
	ctx := context.Background()
	r, err := s.repos.Roles.FindByName(ctx, role)
	require.NoError(t, err)
	u := &model.User{RUT: email, Name: "Test", Surname: "User", Email: email, PasswordHash: "x", RoleID: r.ID}
	require.NoError(t, s.repos.Users.Create(ctx, u))
	u.Role = *r
	token, err := s.jwt.GenerateAccessToken(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code
}

func TestRoutePolicies(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user(t, "admin@example.com", model.RoleAdmin)
	_, employee := s.user(t, "staff@example.com", model.RoleEmployee)
	_, client := s.user(t, "client@example.com", model.RoleClient)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public list with garbage token", http.MethodGet, "/api/categories", "not-a-jwt", http.StatusOK},
		{"public products anonymous", http.MethodGet, "/api/products", "", http.StatusOK},
		{"orders anonymous", http.MethodGet, "/api/orders", "", http.StatusUnauthorized},
		{"orders with garbage token", http.MethodGet, "/api/orders", "not-a-jwt", http.StatusUnauthorized},
		{"orders as client", http.MethodGet, "/api/orders", client, http.StatusForbidden},
		{"orders as employee", http.MethodGet, "/api/orders", employee, http.StatusOK},
		{"report as employee", http.MethodGet, "/api/orders/stats/last-15-days", employee, http.StatusOK},
		{"summary as client", http.MethodGet, "/api/orders/stats/summary", client, http.StatusForbidden},
		{"users as employee", http.MethodGet, "/api/users", employee, http.StatusForbidden},
		{"users as admin", http.MethodGet, "/api/users", admin, http.StatusOK},
		{"create category as employee", http.MethodPost, "/api/categories", employee, http.StatusForbidden},
		{"contacts as employee", http.MethodGet, "/api/contacts", employee, http.StatusOK},
		{"contact delete as employee", http.MethodDelete, "/api/contacts/1", employee, http.StatusForbidden},
		{"my orders as client", http.MethodGet, "/api/orders/mine", client, http.StatusOK},
		{"profile anonymous", http.MethodGet, "/api/auth/profile", "", http.StatusUnauthorized},
		{"profile as client", http.MethodGet, "/api/auth/profile", client, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRefreshTokenIsNotABearer(t *testing.T) {
	s := newTestServer(t)
	u, _ := s.user(t, "client@example.com", model.RoleClient)
	_, refresh, err := s.jwt.GenerateRefreshToken(u)
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/auth/profile", refresh, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRevokedAccessTokenIsAnonymous(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "client@example.com", model.RoleClient)

	claims, err := s.jwt.ValidateToken(token, auth.TokenTypeAccess)
	require.NoError(t, err)
	require.NoError(t, s.tokens.BlacklistAccessToken(context.Background(), claims.ID, time.Hour))

	rec := s.do(http.MethodGet, "/api/auth/profile", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
}

func TestRegisterRejectsBadRUT(t *testing.T) {
	s := newTestServer(t)
	body := `{"rut":"12345678-9","name":"Ana","surname":"Rojas","email":"ana@example.com",
		"password":"secret","region":"RM","commune":"Santiago","address":"Calle 1"}`

	rec := s.do(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestPlaceOrderOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	other, _ := s.user(t, "other@example.com", model.RoleClient)
	buyer, token := s.user(t, "buyer@example.com", model.RoleClient)

	category := &model.Category{Name: "Tortas"}
	require.NoError(t, s.repos.Categories.Create(ctx, category))
	product := &model.Product{
		Name:       "Torta Selva Negra",
		BasePrice:  decimal.NewFromInt(15000),
		CategoryID: category.ID,
		Variants:   []model.Variant{{Name: "12 porciones", Price: decimal.NewFromInt(15000), Stock: 2}},
	}
	require.NoError(t, s.repos.Products.Create(ctx, product))
	variantID := product.Variants[0].ID

	items := `"items":[{"product_id":` + itoa(product.ID) + `,"variant_id":` + itoa(variantID) +
		`,"quantity":2,"unit_price":"15000"}]`

	t.Run("client cannot order for someone else", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/orders", token, `{"user_id":`+itoa(other.ID)+`,`+items+`}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/orders", token, `{"items":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/orders", token, `{"total":"30000",`+items+`}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var order model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
		assert.Equal(t, buyer.ID, order.UserID)
		assert.True(t, order.Total.Equal(decimal.NewFromInt(30000)))
		require.Len(t, order.Lines, 1)
	})

	t.Run("out of stock", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/orders", token, `{`+items+`}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, rec))
	})
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
