package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Rules    RulesConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey          string
	PaymentClientID string // surfaced to clients via /api/config/pay
}

// StoreConfig holds the store-wide pricing configuration: the currency
// payments must settle in, the tax rate and the shipping rule.
type StoreConfig struct {
	Currency              string
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// RulesConfig holds the optional pricing-rules document source. When
// enabled, the document loaded at startup overrides StoreConfig.
type RulesConfig struct {
	Enabled  bool
	Source   string // "file" or "s3"
	FilePath string
	S3Bucket string
	S3Region string
	S3Key    string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	taxRate, err := getEnvAsDecimal("TAX_RATE", "0.05")
	if err != nil {
		return nil, err
	}
	shippingFee, err := getEnvAsDecimal("SHIPPING_FEE", "10.00")
	if err != nil {
		return nil, err
	}
	freeShippingThreshold, err := getEnvAsDecimal("FREE_SHIPPING_THRESHOLD", "100")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "proshop"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey:          getEnv("API_KEY", ""),
			PaymentClientID: getEnv("PAYMENT_CLIENT_ID", ""),
		},
		Store: StoreConfig{
			Currency:              getEnv("CURRENCY", "USD"),
			TaxRate:               taxRate,
			ShippingFee:           shippingFee,
			FreeShippingThreshold: freeShippingThreshold,
		},
		Rules: RulesConfig{
			Enabled:  getEnvAsBool("RULES_ENABLED", false),
			Source:   getEnv("RULES_SOURCE", "file"),
			FilePath: getEnv("RULES_FILE", "pricing-rules.json"),
			S3Bucket: getEnv("RULES_S3_BUCKET", ""),
			S3Region: getEnv("RULES_S3_REGION", "us-east-1"),
			S3Key:    getEnv("RULES_S3_KEY", "pricing/rules.json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Store.Currency == "" {
		return fmt.Errorf("store currency is required")
	}

	if c.Store.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative")
	}

	if c.Store.ShippingFee.IsNegative() {
		return fmt.Errorf("shipping fee must not be negative")
	}

	if c.Store.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("free shipping threshold must not be negative")
	}

	if c.Rules.Enabled {
		switch c.Rules.Source {
		case "file":
			if c.Rules.FilePath == "" {
				return fmt.Errorf("rules file path is required when rules source is file")
			}
		case "s3":
			if c.Rules.S3Bucket == "" {
				return fmt.Errorf("rules S3 bucket is required when rules source is s3")
			}
			if c.Rules.S3Region == "" {
				return fmt.Errorf("rules S3 region is required when rules source is s3")
			}
			if c.Rules.S3Key == "" {
				return fmt.Errorf("rules S3 key is required when rules source is s3")
			}
		default:
			return fmt.Errorf("invalid rules source: %s (must be file or s3)", c.Rules.Source)
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal. Unlike
// the other helpers a malformed value is an error rather than a silent
// fallback: a mangled tax rate must not slip into order totals.
func getEnvAsDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value for %s: %q", key, value)
	}
	return d, nil
}
