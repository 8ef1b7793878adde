package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig contains the connection settings of one MySQL shard
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// DSN builds the go-sql-driver/mysql data source name. parseTime is required to scan DATETIME columns.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", d.User, d.Password, d.Host, d.Port, d.Database)
}

type Config struct {
	Env      string
	Port     string
	LogLevel string

	// Shards[0] also holds products, customers and feed logs.
	Shards []DatabaseConfig

	RedisAddr string

	KafkaBrokers []string
	OrderTopic   string
	ProductTopic string
	KafkaGroupID string

	JWTSecret string

	ProductCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	RateLimit float64
	RateBurst int
}

// Load reads the configuration from the environment, falling back to development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:          getEnv("ENV", "development"),
		Port:         getEnv("PORT", "8082"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092,localhost:9093,localhost:9094"), ","),
		OrderTopic:   getEnv("ORDER_TOPIC", "order-topic"),
		ProductTopic: getEnv("PRODUCT_TOPIC", "product-topic"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "order-service-group"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "secret"
	}

	shardCount, err := strconv.Atoi(getEnv("SHARD_COUNT", "1"))
	if err != nil || shardCount < 1 {
		return nil, fmt.Errorf("invalid SHARD_COUNT %q", os.Getenv("SHARD_COUNT"))
	}
	for i := 1; i <= shardCount; i++ {
		prefix := fmt.Sprintf("DB%d_", i)
		cfg.Shards = append(cfg.Shards, DatabaseConfig{
			Host:     getEnv(prefix+"HOST", "localhost"),
			Port:     getEnv(prefix+"PORT", "3306"),
			User:     getEnv(prefix+"USER", "root"),
			Password: os.Getenv(prefix + "PASS"),
			Database: getEnv(prefix+"NAME", fmt.Sprintf("order-db-%d", i)),
		})
	}

	if cfg.ProductCacheTTL, err = getDuration("PRODUCT_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.RateLimit, err = strconv.ParseFloat(getEnv("RATE_LIMIT", "10"), 64); err != nil || cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q", os.Getenv("RATE_LIMIT"))
	}
	if cfg.RateBurst, err = strconv.Atoi(getEnv("RATE_BURST", "30")); err != nil || cfg.RateBurst < 1 {
		return nil, fmt.Errorf("invalid RATE_BURST %q", os.Getenv("RATE_BURST"))
	}

	return cfg, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, value)
	}
	return d, nil
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
