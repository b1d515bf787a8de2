package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
)

// Config holds runtime configuration values for the board API and CLI.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	StorageDriver string
	DatabaseURL   string
	RedisURL      string
	NATSURL       string
	BlobTTL       time.Duration
	QuotaBytes    int

	KeyPrefix      string
	EngagementMode string
	OwnerID        string
	ActorID        string
	ActorName      string
	ActorHandle    string
	MaxImageBytes  int
	PageSize       int

	StreamKeepAlive time.Duration
	RateLimitMax    int
	AllowedOrigins  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Idea Board API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("database.url", "board.db")
	v.SetDefault("storage.ttl", "0s")
	v.SetDefault("storage.quota_bytes", 5*1024*1024)
	v.SetDefault("key_prefix", "board")
	v.SetDefault("engagement_mode", "rating")
	v.SetDefault("owner_id", "you")
	v.SetDefault("actor.id", "you")
	v.SetDefault("actor.name", "You")
	v.SetDefault("actor.handle", "@you")
	v.SetDefault("max_image_bytes", 1024*1024)
	v.SetDefault("page_size", 10)
	v.SetDefault("stream.keepalive", "15s")
	v.SetDefault("rate_limit.max", 120)
	v.SetDefault("cors.origins", "*")

	ttl, err := time.ParseDuration(v.GetString("storage.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid storage ttl: %w", err)
	}

	keepAlive, err := time.ParseDuration(v.GetString("stream.keepalive"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stream keepalive: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		StorageDriver:   strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		BlobTTL:         ttl,
		QuotaBytes:      v.GetInt("storage.quota_bytes"),
		KeyPrefix:       v.GetString("key_prefix"),
		EngagementMode:  strings.ToLower(strings.TrimSpace(v.GetString("engagement_mode"))),
		OwnerID:         v.GetString("owner_id"),
		ActorID:         v.GetString("actor.id"),
		ActorName:       v.GetString("actor.name"),
		ActorHandle:     v.GetString("actor.handle"),
		MaxImageBytes:   v.GetInt("max_image_bytes"),
		PageSize:        v.GetInt("page_size"),
		StreamKeepAlive: keepAlive,
		RateLimitMax:    v.GetInt("rate_limit.max"),
		AllowedOrigins:  v.GetString("cors.origins"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 120
	}

	if cfg.StreamKeepAlive <= 0 {
		cfg.StreamKeepAlive = 15 * time.Second
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case StorageSQLite, StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url must be provided for %s storage", c.StorageDriver)
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis url must be provided for redis storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	switch c.EngagementMode {
	case "rating", "votes":
	default:
		return fmt.Errorf("unknown engagement mode %q", c.EngagementMode)
	}

	if c.ActorID == "" {
		return fmt.Errorf("actor id must be provided")
	}

	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max image bytes must be positive")
	}

	return nil
}
