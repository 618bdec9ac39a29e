package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"bakery/docs"
	"bakery/internal/auth"
	"bakery/internal/cache"
	"bakery/internal/config"
	"bakery/internal/db"
	"bakery/internal/handler"
	"bakery/internal/logging"
	"bakery/internal/repository"
	"bakery/internal/router"
	"bakery/internal/service"
)

// @title Bakery API
// @version 1.0
// @description Bakery storefront API: catalog, orders with stock control, users, contact messages and sales reports.
// @host localhost:8080
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetBase(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
	}
	if err := prepareSchema(gormDB, cfg); err != nil {
		logger.Error("database schema", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, running without cache", "addr", cfg.RedisAddr, "error", err)
	}
	cancelPing()

	// Initialize repositories
	repos := repository.NewRepositories(gormDB)
	tx := repository.NewTransactor(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(repos.Users, repos.Roles, jwtService, tokenStore)
	userService := service.NewUserService(repos.Users, repos.Roles)
	categoryService := service.NewCategoryService(repos.Categories, repos.Products, cacheClient)
	productService := service.NewProductService(repos.Products, repos.Categories, cacheClient)
	imageService := service.NewImageService(tx, repos.Images, repos.Products, cacheClient)
	orderService := service.NewOrderService(tx, repos.Orders, cacheClient)
	reportService := service.NewReportService(repos.Orders, cfg.Location())
	contactService := service.NewContactService(repos.Contacts)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, router.Deps{
		JWT:    jwtService,
		Tokens: tokenStore,
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		},
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Users:    handler.NewUserHandler(userService),
		Category: handler.NewCategoryHandler(categoryService),
		Product:  handler.NewProductHandler(productService, imageService),
		Order:    handler.NewOrderHandler(orderService, reportService),
		Contact:  handler.NewContactHandler(contactService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logger.Info("swagger documentation available", "path", "/swagger/index.html", "host", docs.SwaggerInfo.Host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server starting", "addr", addr, "db_driver", cfg.DBDriver, "timezone", cfg.Timezone)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// prepareSchema drops tables when RESET_DB is set, then migrates and seeds roles.
func prepareSchema(gormDB *gorm.DB, cfg *config.Config) error {
	if cfg.ResetDB {
		logging.FromContext(context.Background()).Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	return db.EnsureRoles(context.Background(), gormDB)
}
