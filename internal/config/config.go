package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Storage     string
	Mongo       MongoConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Razorpay    RazorpayConfig
	Kafka       KafkaConfig
	Orders      OrdersConfig
	LogLevel    string
	LogFile     string
}

type MongoConfig struct {
	URI          string
	DBName       string
	Transactions bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr       string
	Password   string
	SessionTTL time.Duration
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type OrdersConfig struct {
	PageSize int
	TaxRate  float64
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("STORAGE", "mongo")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MONGO_TRANSACTIONS", false)
	viper.SetDefault("SESSION_TTL", "720h")
	viper.SetDefault("ORDERS_PAGE_SIZE", 10)
	viper.SetDefault("TAX_RATE", 0.18)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	sessionTTL, err := time.ParseDuration(getEnvOrViper("SESSION_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Storage:     getEnvOrViper("STORAGE", "mongo"),
		Mongo: MongoConfig{
			URI:          getEnvOrViper("MONGO_URI", "mongodb://localhost:27017"),
			DBName:       getEnvOrViper("MONGO_DB_NAME", "storefront"),
			Transactions: viper.GetBool("MONGO_TRANSACTIONS"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:       getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password:   getEnvOrViper("REDIS_PASSWORD", ""),
			SessionTTL: sessionTTL,
		},
		Razorpay: RazorpayConfig{
			KeyID:     getEnvOrViper("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnvOrViper("RAZORPAY_KEY_SECRET", ""),
			BaseURL:   getEnvOrViper("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			Currency:  getEnvOrViper("RAZORPAY_CURRENCY", "INR"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnvOrViper("KAFKA_BROKERS", "")),
			Topic:   getEnvOrViper("KAFKA_TOPIC", "order-events"),
		},
		Orders: OrdersConfig{
			PageSize: viper.GetInt("ORDERS_PAGE_SIZE"),
			TaxRate:  viper.GetFloat64("TAX_RATE"),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
		LogFile:  getEnvOrViper("LOG_FILE", ""),
	}

	// Validate required fields
	if cfg.Storage != "mongo" && cfg.Storage != "memory" {
		return nil, fmt.Errorf("STORAGE must be mongo or memory, got %q", cfg.Storage)
	}
	if cfg.Orders.PageSize < 1 {
		return nil, fmt.Errorf("ORDERS_PAGE_SIZE must be positive")
	}
	if cfg.IsProduction() {
		if cfg.Razorpay.KeyID == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID is required")
		}
		if cfg.Razorpay.KeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_SECRET is required")
		}
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
