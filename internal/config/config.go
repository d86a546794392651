package config

import (
	"fmt"
	"strings"
	"time"

	"go-pos-ws/pkg/database"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    database.Config
	JWT         JWTConfig
	Redis       RedisConfig
	Log         LogConfig
	Idempotency IdempotencyConfig
	RateLimit   RateLimitConfig
	Inventory   InventoryConfig
	Admin       AdminConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level    string
	DBLevel  string
	Requests bool
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	// Login is a ulule/limiter formatted rate, e.g. "10-M"
	Login string
}

type InventoryConfig struct {
	LowStockThreshold int
}

// AdminConfig is the account created on first start when no users exist
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Load reads .env (if present) and then POS_* environment variables.
// Keys map with "." replaced by "_", e.g. POS_DATABASE_HOST.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: database.Config{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.sslmode"),
			TimeZone:        v.GetString("database.timezone"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("log.db_level"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			DBLevel:  v.GetString("log.db_level"),
			Requests: v.GetBool("log.requests"),
		},
		Idempotency: IdempotencyConfig{
			TTL: v.GetDuration("idempotency.ttl"),
		},
		RateLimit: RateLimitConfig{
			Login: v.GetString("ratelimit.login"),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: v.GetInt("inventory.low_stock_threshold"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("admin.name"),
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "POS Mercearia")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "pos")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "America/Sao_Paulo")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.db_level", "warn")
	v.SetDefault("log.requests", true)

	v.SetDefault("idempotency.ttl", 24*time.Hour)
	v.SetDefault("ratelimit.login", "10-M")
	v.SetDefault("inventory.low_stock_threshold", 5)

	v.SetDefault("admin.name", "Administrador")
	v.SetDefault("admin.email", "admin@mercearia.local")
	v.SetDefault("admin.password", "admin123")
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("config: app.port is required")
	}
	if c.App.Env == "production" && c.JWT.Secret == "change-me-in-production" {
		return fmt.Errorf("config: POS_JWT_SECRET must be set in production")
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("config: database.url or database.host is required")
	}
	if c.App.Env == "production" && c.Admin.Password == "admin123" {
		return fmt.Errorf("config: POS_ADMIN_PASSWORD must be set in production")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("config: inventory.low_stock_threshold must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
