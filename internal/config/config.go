package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config is the whole application configuration, populated from environment variables.
type Config struct {
	App     AppConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Xendit  XenditConfig
	Pricing PricingConfig
	Job     JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// XenditConfig configures the invoice API client.
// An empty SecretKey outside production falls back to the mock gateway.
type XenditConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type PricingConfig struct {
	// EnforceMinPurchase makes min_purchase_amount gate ordinary discounts.
	EnforceMinPurchase bool
}

type JobConfig struct {
	ReconcileCron         string
	ReconcileLookbackDays int
	ReconcileBatchSize    int
	ReconcileTimeout      time.Duration
	ReconcileLockTTL      time.Duration
	HealthPort            string
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Nutrifarm API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60),
		},
		Xendit: XenditConfig{
			SecretKey: getEnv("XENDIT_SECRET_KEY", ""),
			BaseURL:   getEnv("XENDIT_BASE_URL", "https://api.xendit.co"),
			Timeout:   getEnvDuration("XENDIT_TIMEOUT", 30*time.Second),
		},
		Pricing: PricingConfig{
			EnforceMinPurchase: getEnvBool("PRICING_ENFORCE_MIN_PURCHASE", false),
		},
		Job: JobConfig{
			ReconcileCron:         getEnv("RECONCILE_CRON", "*/10 * * * *"),
			ReconcileLookbackDays: getEnvInt("RECONCILE_LOOKBACK_DAYS", 2),
			ReconcileBatchSize:    getEnvInt("RECONCILE_BATCH_SIZE", 200),
			ReconcileTimeout:      getEnvDuration("RECONCILE_TIMEOUT", 9*time.Minute),
			ReconcileLockTTL:      getEnvDuration("RECONCILE_LOCK_TTL", 10*time.Minute),
			HealthPort:            getEnv("WORKER_HEALTH_PORT", "9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the config is usable for the current environment.
func (c *Config) Validate() error {
	err := validation.Errors{
		"app.port":               validation.Validate(c.App.Port, validation.Required, is.Port),
		"redis.host":             validation.Validate(c.Redis.Host, validation.Required),
		"xendit.base_url":        validation.Validate(c.Xendit.BaseURL, validation.Required, is.URL),
		"job.reconcile_cron":     validation.Validate(c.Job.ReconcileCron, validation.Required),
		"job.reconcile_batch":    validation.Validate(c.Job.ReconcileBatchSize, validation.Min(1)),
		"job.reconcile_lock_ttl": validation.Validate(c.Job.ReconcileLockTTL, validation.Min(time.Second)),
		"job.reconcile_lookback": validation.Validate(c.Job.ReconcileLookbackDays, validation.Min(1)),
		"xendit.timeout":         validation.Validate(c.Xendit.Timeout, validation.Min(time.Second)),
	}.Filter()
	if err != nil {
		return err
	}

	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Xendit.SecretKey == "" {
			return fmt.Errorf("XENDIT_SECRET_KEY must be set in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
