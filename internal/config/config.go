package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Pricing  PricingConfig
	Booking  BookingConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Host string
	Port int
}

type StoreConfig struct {
	Driver     string
	SeedSample bool
}

type RedisConfig struct {
	// Empty Addr disables every Redis-backed feature.
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

type RabbitMQConfig struct {
	// Empty URL disables booking events.
	URL string
}

type PricingConfig struct {
	Standard       decimal.Decimal
	Premium        decimal.Decimal
	PremiumFromRow int
}

type BookingConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	seed, err := boolEnv("SEED_SAMPLE", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	storeCfg := StoreConfig{
		Driver:     strings.ToLower(stringEnv("STORE_DRIVER", DriverPostgres)),
		SeedSample: seed,
	}

	var postgresCfg PostgresConfig
	switch storeCfg.Driver {
	case DriverPostgres:
		postgresCfg, err = postgresFromEnv()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("%s: unknown STORE_DRIVER %q", op, storeCfg.Driver)
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	pricingCfg, err := pricingFromEnv()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimit, err := intEnv("BOOKING_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateWindow, err := durationEnv("BOOKING_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(stringEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Store:    storeCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		RabbitMQ: RabbitMQConfig{URL: os.Getenv("RABBITMQ_URL")},
		Pricing:  pricingCfg,
		Booking: BookingConfig{
			RateLimit:  rateLimit,
			RateWindow: rateWindow,
		},
		LogLevel: level,
	}, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	port, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return PostgresConfig{}, err
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}, nil
}

func pricingFromEnv() (PricingConfig, error) {
	standard, err := decimalEnv("PRICE_STANDARD", decimal.NewFromInt(100))
	if err != nil {
		return PricingConfig{}, err
	}

	premium, err := decimalEnv("PRICE_PREMIUM", decimal.NewFromInt(150))
	if err != nil {
		return PricingConfig{}, err
	}

	fromRow, err := intEnv("PREMIUM_FROM_ROW", 3)
	if err != nil {
		return PricingConfig{}, err
	}

	return PricingConfig{
		Standard:       standard,
		Premium:        premium,
		PremiumFromRow: fromRow,
	}, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func decimalEnv(key string, def decimal.Decimal) (decimal.Decimal, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
