package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Kiosk    KioskConfig
	Admin    AdminSeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// StorageConfig holds profile image storage configuration
type StorageConfig struct {
	Dir     string
	BaseURL string
}

// KioskConfig holds kiosk scan loop configuration
type KioskConfig struct {
	NotFoundCooldownMS int
	ErrorCooldownMS    int
}

// AdminSeedConfig holds the bootstrap admin account
type AdminSeedConfig struct {
	Email      string
	Secret     string
	FirstName  string
	LastName   string
	CardNumber string
	Department string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Storage:  loadStorageConfig(),
		Kiosk:    loadKioskConfig(),
		Admin:    loadAdminSeedConfig(),
	}

	AppConfig = config
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "campus_cardhub"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadStorageConfig loads profile image storage config
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Dir:     getEnv("STORAGE_DIR", "./data/images"),
		BaseURL: getEnv("STORAGE_BASE_URL", "/static/images"),
	}
}

// loadKioskConfig loads kiosk scan loop config
func loadKioskConfig() KioskConfig {
	notFound, _ := strconv.Atoi(getEnv("KIOSK_NOT_FOUND_COOLDOWN_MS", "2000"))
	onError, _ := strconv.Atoi(getEnv("KIOSK_ERROR_COOLDOWN_MS", "5000"))

	return KioskConfig{
		NotFoundCooldownMS: notFound,
		ErrorCooldownMS:    onError,
	}
}

// loadAdminSeedConfig loads the bootstrap admin account config
func loadAdminSeedConfig() AdminSeedConfig {
	return AdminSeedConfig{
		Email:      getEnv("ADMIN_EMAIL", "admin@campus.edu"),
		Secret:     getEnv("ADMIN_PASSWORD", "admin123456"),
		FirstName:  getEnv("ADMIN_FIRST_NAME", "System"),
		LastName:   getEnv("ADMIN_LAST_NAME", "Administrator"),
		CardNumber: getEnv("ADMIN_CARD_NUMBER", "ADMIN-0001"),
		Department: getEnv("ADMIN_DEPARTMENT", "IT"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	return getEnv("ALLOWED_ORIGINS", "http://localhost:5173")
}
