package config_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/spf13/viper"

	"bakery/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)
	c.Setenv("DB_DRIVER", "")
	c.Setenv("JWT_ACCESS_TTL", "")

	cfg := config.Load()

	c.Assert(cfg.ServerPort, qt.Not(qt.Equals), "")
	c.Assert(cfg.DBDriver, qt.Equals, config.DriverMySQL)
	c.Assert(cfg.JWTAccessTTL, qt.Equals, 24*time.Hour)
	c.Assert(cfg.Validate(), qt.IsNil)
}

func TestLoadFromEnvironment(t *testing.T) {
	c := qt.New(t)
	c.Setenv("DB_DRIVER", "Postgres")
	c.Setenv("DB_DSN", "host=localhost user=bakery dbname=bakery sslmode=disable")
	c.Setenv("CORS_ORIGINS", "https://a.example.com, https://*.vercel.app ,")
	c.Setenv("JWT_ACCESS_TTL", "15m")
	c.Setenv("REDIS_DB", "3")

	cfg := config.Load()

	c.Assert(cfg.DBDriver, qt.Equals, config.DriverPostgres)
	c.Assert(cfg.CORSOrigins, qt.DeepEquals, []string{"https://a.example.com", "https://*.vercel.app"})
	c.Assert(cfg.JWTAccessTTL, qt.Equals, 15*time.Minute)
	c.Assert(cfg.RedisDB, qt.Equals, 3)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(v *viper.Viper)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(v *viper.Viper) {},
		},
		{
			name:    "unknown driver",
			mutate:  func(v *viper.Viper) { v.Set("DB_DRIVER", "oracle") },
			wantErr: `.*unsupported DB_DRIVER "oracle".*`,
		},
		{
			name:    "empty secret",
			mutate:  func(v *viper.Viper) { v.Set("JWT_SECRET", "") },
			wantErr: `(?s).*JWT_SECRET is required.*`,
		},
		{
			name:    "bad timezone",
			mutate:  func(v *viper.Viper) { v.Set("TIMEZONE", "Mars/Olympus") },
			wantErr: `(?s).*invalid TIMEZONE.*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			v := viper.New()
			v.Set("DB_DRIVER", "mysql")
			v.Set("DB_DSN", "dsn")
			v.Set("JWT_SECRET", "secret")
			v.Set("JWT_ACCESS_TTL", "1h")
			v.Set("JWT_REFRESH_TTL", "2h")
			v.Set("TIMEZONE", "UTC")
			tt.mutate(v)

			err := config.FromViper(v).Validate()
			if tt.wantErr == "" {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	c := qt.New(t)

	cfg := &config.Config{Timezone: "Nowhere/Nothing"}
	c.Assert(cfg.Location(), qt.Equals, time.UTC)
}
