package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port      string
	JWTSecret string
	LogLevel  string

	// Backend selects the persistence implementation at startup:
	// "postgres" for the relational store, "redis" for the key-value
	// document store.
	Backend     string
	DatabaseURL string

	Redis RedisConfig
	KV    KVTables
	SMTP  SMTPConfig
	Kafka KafkaConfig

	FrontendURL   string
	AdminEmail    string
	AdminPassword string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KVTables holds the per-entity key prefixes used by the document-store
// backend, mirroring the configurable table names of the original deployment.
type KVTables struct {
	Users      string
	Books      string
	Categories string
	Carts      string
	Orders     string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadEnv reads a .env file when present. On hosted environments the
// variables are injected directly and the file is simply absent.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Notice: .env file not found, using system environment variables")
	}
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KV_USERS_PREFIX", "Users")
	v.SetDefault("KV_BOOKS_PREFIX", "Books")
	v.SetDefault("KV_CATEGORIES_PREFIX", "Categories")
	v.SetDefault("KV_CARTS_PREFIX", "Carts")
	v.SetDefault("KV_ORDERS_PREFIX", "Orders")
	v.SetDefault("SMTP_FROM", "noreply@bookbazaar.com")
	v.SetDefault("KAFKA_TOPIC", "bookbazaar_events")
	v.SetDefault("ADMIN_EMAIL", "admin@bookbazaar.com")
	v.SetDefault("ADMIN_PASSWORD", "admin123")

	cfg := &Config{
		Port:        v.GetString("PORT"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Backend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		DatabaseURL: v.GetString("DATABASE_URL"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		KV: KVTables{
			Users:      v.GetString("KV_USERS_PREFIX"),
			Books:      v.GetString("KV_BOOKS_PREFIX"),
			Categories: v.GetString("KV_CATEGORIES_PREFIX"),
			Carts:      v.GetString("KV_CARTS_PREFIX"),
			Orders:     v.GetString("KV_ORDERS_PREFIX"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetString("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Kafka: KafkaConfig{
			Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		FrontendURL:   v.GetString("FRONTEND_URL"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings the application cannot run without and
// warns about the merely inconvenient ones.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("critical environment variable not set: JWT_SECRET")
	}

	switch c.Backend {
	case BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (expected %q or %q)",
			c.Backend, BackendPostgres, BackendRedis)
	}

	if c.SMTP.Host == "" {
		log.Println("WARNING: SMTP_HOST not set - email notifications will not be delivered")
	}
	if len(c.Kafka.Brokers) == 0 {
		log.Println("WARNING: KAFKA_BROKERS not set - notification events will not be published")
	}
	if c.FrontendURL == "" {
		log.Println("WARNING: FRONTEND_URL not set - CORS may not work correctly")
	}

	return nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
