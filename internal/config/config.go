package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string
	Port           string
	AllowedOrigins string
	SeedDemoUsers  bool
	Database       DatabaseConfig
	JWT            JWTConfig
	Cookie         CookieConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"mysql"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"3306"`
	User       string `env:"DB_USER" envDefault:"root"`
	Password   string `env:"DB_PASS"`
	DBName     string `env:"DB_NAME" envDefault:"insurehub"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"insurehub.db"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string `env:"JWT_SECRET" envDefault:"default_secret"`
	RefreshSecret    string `env:"JWT_REFRESH_SECRET" envDefault:"default_refresh_secret"`
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite string
	Domain   string
}

// baseEnv holds the settings shared by every mode
type baseEnv struct {
	AppMode          string `env:"APP_MODE" envDefault:"dev"`
	Port             string `env:"PORT" envDefault:"3000"`
	AllowedOrigins   string `env:"ALLOWED_ORIGINS"`
	SeedDemoUsers    bool   `env:"SEED_DEMO_USERS" envDefault:"false"`
	AccessTokenMins  int    `env:"ACCESS_TOKEN_MINUTES" envDefault:"15"`
	RefreshTokenDays int    `env:"REFRESH_TOKEN_DAYS" envDefault:"7"`
	CookieSameSite   string `env:"COOKIE_SAMESITE" envDefault:"lax"`
	CookieDomain     string `env:"COOKIE_DOMAIN"`
}

// modeEnv holds the settings read under the DEV_ or PROD_ prefix
type modeEnv struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	config, err := Parse()
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", config.AppMode, config.Database.Driver)
	return config, nil
}

// Parse builds the configuration from the process environment only
func Parse() (*Config, error) {
	var base baseEnv
	if err := env.Parse(&base); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(base.AppMode)
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	var mode modeEnv
	if err := env.ParseWithOptions(&mode, env.Options{Prefix: modePrefix(appMode)}); err != nil {
		return nil, fmt.Errorf("parse %s env: %w", appMode, err)
	}

	driver := strings.ToLower(strings.TrimSpace(mode.Database.Driver))
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be '%s' or '%s')", driver, DriverMySQL, DriverSQLite)
	}
	mode.Database.Driver = driver

	mode.JWT.AccessTokenMins = base.AccessTokenMins
	mode.JWT.RefreshTokenDays = base.RefreshTokenDays
	mode.Cookie.SameSite = base.CookieSameSite
	mode.Cookie.Domain = base.CookieDomain

	return &Config{
		AppMode:        appMode,
		Port:           base.Port,
		AllowedOrigins: base.AllowedOrigins,
		SeedDemoUsers:  base.SeedDemoUsers,
		Database:       mode.Database,
		JWT:            mode.JWT,
		Cookie:         mode.Cookie,
	}, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://insurehub.example.com"
	}
	return c.AllowedOrigins
}
