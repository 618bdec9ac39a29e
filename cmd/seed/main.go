package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"bakery/internal/config"
	"bakery/internal/db"
	"bakery/internal/logging"
	"bakery/internal/model"
	"bakery/internal/repository"
	"bakery/internal/service"
)

const (
	emailFlag    = "email"
	passwordFlag = "password"
	rutFlag      = "rut"
	nameFlag     = "name"
	sourceFlag   = "source"
)

var adminFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "admin@bakery.local",
		Usage: "Administrator email",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "admin1234",
		Usage: "Administrator password",
	},
	rutFlag: &cobraflags.StringFlag{
		Name:  rutFlag,
		Value: "11111111-1",
		Usage: "Administrator RUT",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Value: "Admin",
		Usage: "Administrator first name",
	},
}

var catalogFlags = map[string]cobraflags.Flag{
	sourceFlag: &cobraflags.StringFlag{
		Name:  sourceFlag,
		Value: "",
		Usage: "Catalog JSON file or http(s) URL. Empty loads the built-in demo catalog",
	},
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, "text")
	logging.SetBase(logger)

	if err := newRootCommand(cfg).Execute(); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Prepare the bakery database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update tables and seed roles",
			RunE: withDB(cfg, func(ctx context.Context, gormDB *gorm.DB) error {
				if cfg.ResetDB {
					slog.Warn("RESET_DB=true detected, dropping all tables")
					if err := db.Reset(gormDB); err != nil {
						return err
					}
				}
				if err := db.Migrate(gormDB); err != nil {
					return err
				}
				return db.EnsureRoles(ctx, gormDB)
			}),
		},
		&cobra.Command{
			Use:   "roles",
			Short: "Seed the ADMIN, EMPLOYEE and CLIENT roles",
			RunE: withDB(cfg, func(ctx context.Context, gormDB *gorm.DB) error {
				return db.EnsureRoles(ctx, gormDB)
			}),
		},
		newAdminCommand(cfg),
		newCatalogCommand(cfg),
	)
	return root
}

func newAdminCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an administrator account if the email is not registered",
		RunE: withDB(cfg, func(ctx context.Context, gormDB *gorm.DB) error {
			if err := db.EnsureRoles(ctx, gormDB); err != nil {
				return err
			}
			repos := repository.NewRepositories(gormDB)
			created, err := seedAdmin(ctx, service.NewUserService(repos.Users, repos.Roles), repos.Users, service.UserInput{
				RUT:      adminFlags[rutFlag].GetString(),
				Name:     adminFlags[nameFlag].GetString(),
				Surname:  "Bakery",
				Email:    adminFlags[emailFlag].GetString(),
				Password: adminFlags[passwordFlag].GetString(),
				Region:   "Región Metropolitana",
				Commune:  "Santiago",
				Address:  "Casa matriz",
				Role:     model.RoleAdmin,
			})
			if err != nil {
				return err
			}
			if created {
				slog.Info("administrator created", "email", adminFlags[emailFlag].GetString())
			} else {
				slog.Info("administrator already present", "email", adminFlags[emailFlag].GetString())
			}
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, adminFlags)
	return cmd
}

func newCatalogCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load categories and products, skipping products that already exist",
		RunE: withDB(cfg, func(ctx context.Context, gormDB *gorm.DB) error {
			source := catalogFlags[sourceFlag].GetString()
			categories := demoCatalog()
			if source != "" {
				slog.Info("fetching catalog", "source", source)
				loaded, err := fetchCatalog(ctx, source)
				if err != nil {
					return err
				}
				categories = loaded
			}

			repos := repository.NewRepositories(gormDB)
			seeder := &catalogSeeder{
				categories: repos.Categories,
				products:   repos.Products,
				catalog:    service.NewCategoryService(repos.Categories, repos.Products, nil),
				items:      service.NewProductService(repos.Products, repos.Categories, nil),
			}
			stats, err := seeder.seed(ctx, categories)
			if err != nil {
				return err
			}
			slog.Info("catalog seeded",
				"categories_created", stats.categoriesCreated,
				"categories_updated", stats.categoriesUpdated,
				"products_created", stats.productsCreated,
				"products_skipped", stats.productsSkipped)
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, catalogFlags)
	return cmd
}

// withDB opens the configured database for the duration of one command.
func withDB(cfg *config.Config, run func(ctx context.Context, gormDB *gorm.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		gormDB, err := db.Open(cfg)
		if err != nil {
			return err
		}
		sqlDB, err := gormDB.DB()
		if err == nil {
			defer sqlDB.Close()
		}
		slog.Info("connected to database", "driver", cfg.DBDriver)
		return run(cmd.Context(), gormDB)
	}
}

// seedAdmin creates the administrator unless the email is already registered.
func seedAdmin(ctx context.Context, users service.UserService, repo repository.UserRepository, in service.UserInput) (bool, error) {
	_, err := repo.FindByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("check admin %s: %w", in.Email, err)
	}
	if _, err := users.Create(ctx, in); err != nil {
		return false, fmt.Errorf("create admin %s: %w", in.Email, err)
	}
	return true, nil
}
