package router

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bakery/internal/auth"
	"bakery/internal/config"
	"bakery/internal/handler"
	"bakery/internal/model"
	"bakery/internal/service"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	Order    *handler.OrderHandler
	Contact  *handler.ContactHandler
}

// Deps carries what the middleware chain and health check need.
type Deps struct {
	JWT    *auth.JWTService
	Tokens auth.TokenStoreInterface
	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, deps Deps, h Handlers) {
	e.Validator = NewValidator()

	e.Use(requestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	if cfg.RequestMaxBody != "" {
		e.Use(middleware.BodyLimit(cfg.RequestMaxBody))
	}

	e.GET("/healthz", func(c echo.Context) error {
		if deps.Ping != nil {
			if err := deps.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", optionalJWT(deps.JWT), rejectRevoked(deps.Tokens))

	staff := RequireRoles(model.RoleAdmin, model.RoleEmployee)
	admin := RequireRoles(model.RoleAdmin)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/profile", h.Auth.Profile, RequireAuth())

	api.GET("/categories", h.Category.List)
	api.GET("/categories/:id", h.Category.Get)
	api.POST("/categories", h.Category.Create, admin)
	api.PUT("/categories/:id", h.Category.Update, admin)
	api.DELETE("/categories/:id", h.Category.Delete, admin)

	api.GET("/products", h.Product.List)
	api.GET("/products/:id", h.Product.Get)
	api.GET("/products/category/:id", h.Product.ListByCategory)
	api.POST("/products", h.Product.Create, admin)
	api.PUT("/products/:id", h.Product.Update, admin)
	api.DELETE("/products/:id", h.Product.Delete, admin)
	api.GET("/products/:id/images", h.Product.ListImages)
	api.POST("/products/:id/images", h.Product.RegisterImage, admin)
	api.PATCH("/products/:id/images/:imageId/primary", h.Product.SetPrimaryImage, admin)
	api.DELETE("/products/:id/images/:imageId", h.Product.DeleteImage, admin)

	api.POST("/orders", h.Order.Place, RequireAuth())
	api.GET("/orders", h.Order.List, staff)
	api.GET("/orders/mine", h.Order.Mine, RequireAuth())
	api.GET("/orders/stats/last-15-days", h.Order.Last15Days, staff)
	api.GET("/orders/stats/first-half", h.Order.FirstHalf, staff)
	api.GET("/orders/stats/summary", h.Order.Summary, staff)
	api.GET("/orders/:id", h.Order.Get, staff)

	users := api.Group("/users", admin)
	users.GET("", h.Users.ListUsers)
	users.GET("/:id", h.Users.GetUser)
	users.POST("", h.Users.CreateUser)
	users.PUT("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)

	api.POST("/contacts", h.Contact.Create)
	api.GET("/contacts", h.Contact.List, staff)
	api.GET("/contacts/stats/unread", h.Contact.UnreadCount, staff)
	api.GET("/contacts/:id", h.Contact.Get, staff)
	api.PUT("/contacts/:id/read", h.Contact.MarkRead, admin)
	api.DELETE("/contacts/:id", h.Contact.Delete, admin)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that also understands the `rut` tag.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("rut", func(fl validator.FieldLevel) bool {
		return service.ValidRUT(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
