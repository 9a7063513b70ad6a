// Package config loads process configuration from the environment (and an
// optional .env file) through viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

// DevJWTSecret is used when JWT_SECRET is unset outside production.
const DevJWTSecret = "cellgroup-development-secret"

// ErrInsecureSecret is returned by Load in production when no real JWT secret
// is configured.
var ErrInsecureSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

// Config holds everything the processes read from the environment.
type Config struct {
	Env         string
	HTTPAddr    string
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	CORSOrigins []string
	BcryptCost  int

	Database database.Config
	Log      utilities.Config

	// Warnings collects non fatal problems found while loading, for the
	// caller to log once a logger exists.
	Warnings []string
}

// Production reports whether APP_ENV is production.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads .env (best effort) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:3001")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "cellgroup")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("BCRYPT_COST", 12)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from v. Exposed so tests can inject values.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:        v.GetString("APP_ENV"),
		HTTPAddr:   v.GetString("HTTP_ADDR"),
		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTIssuer:  v.GetString("JWT_ISSUER"),
		TokenTTL:   v.GetDuration("TOKEN_TTL"),
		BcryptCost: v.GetInt("BCRYPT_COST"),
		Database:   database.ConfigFromEnv(),
		Log:        utilities.ConfigFromEnv(),
	}
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 12
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == DevJWTSecret {
		if cfg.Production() {
			return Config{}, ErrInsecureSecret
		}
		cfg.JWTSecret = DevJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET is unset or uses the development default; tokens are forgeable")
	}
	return cfg, nil
}
