package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	NocoDB    NocoDBConfig    `mapstructure:"nocodb"`
	Shopify   ShopifyConfig   `mapstructure:"shopify"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NocoDBConfig holds NocoDB connection and table configuration
type NocoDBConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Token           string        `mapstructure:"token"`
	BaseName        string        `mapstructure:"base_name"`
	ParentsTable    string        `mapstructure:"parents_table"`
	VariantsTable   string        `mapstructure:"variants_table"`
	WebhooksTable   string        `mapstructure:"webhooks_table"`
	ProductsTable   string        `mapstructure:"products_table"`
	PageSize        int           `mapstructure:"page_size"`
	VariantPageSize int           `mapstructure:"variant_page_size"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// ShopifyConfig holds the live Shopify source configuration
type ShopifyConfig struct {
	Mode        string        `mapstructure:"mode"` // "direct", "proxy" or "disabled"
	ShopDomain  string        `mapstructure:"shop_domain"`
	AccessToken string        `mapstructure:"access_token"`
	APIVersion  string        `mapstructure:"api_version"`
	ProxyURL    string        `mapstructure:"proxy_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int     `mapstructure:"per_ip"` // requests per minute per client
	NocoDB float64 `mapstructure:"nocodb"` // requests per second to NocoDB
}

// SyncConfig holds Shopify sync configuration
type SyncConfig struct {
	Workers int `mapstructure:"workers"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/contentreview/")

	// CONTENTREVIEW_NOCODB_TOKEN -> nocodb.token
	v.SetEnvPrefix("CONTENTREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values. Every key gets a default so
// AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// NocoDB defaults
	v.SetDefault("nocodb.base_url", "")
	v.SetDefault("nocodb.token", "")
	v.SetDefault("nocodb.base_name", "product_content")
	v.SetDefault("nocodb.parents_table", "product_content_parents")
	v.SetDefault("nocodb.variants_table", "product_content_variants")
	v.SetDefault("nocodb.webhooks_table", "shopify_raw_webhooks")
	v.SetDefault("nocodb.products_table", "products")
	v.SetDefault("nocodb.page_size", 1000)
	v.SetDefault("nocodb.variant_page_size", 100)
	v.SetDefault("nocodb.timeout", "30s")

	// Shopify defaults
	v.SetDefault("shopify.mode", "disabled")
	v.SetDefault("shopify.shop_domain", "")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("shopify.api_version", "2024-01")
	v.SetDefault("shopify.proxy_url", "")
	v.SetDefault("shopify.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.nocodb", 5)

	v.SetDefault("sync.workers", 1)
	v.SetDefault("log.level", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.NocoDB.BaseURL == "" {
		return fmt.Errorf("NocoDB base URL is required (set CONTENTREVIEW_NOCODB_BASE_URL)")
	}
	if config.NocoDB.Token == "" {
		return fmt.Errorf("NocoDB token is required (set CONTENTREVIEW_NOCODB_TOKEN)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	switch config.Shopify.Mode {
	case "direct":
		if config.Shopify.ShopDomain == "" || config.Shopify.AccessToken == "" {
			return fmt.Errorf("shop domain and access token are required when shopify mode is 'direct'")
		}
	case "proxy":
		if config.Shopify.ProxyURL == "" {
			return fmt.Errorf("proxy URL is required when shopify mode is 'proxy'")
		}
	case "disabled":
	default:
		return fmt.Errorf("shopify mode must be 'direct', 'proxy' or 'disabled', got: %s", config.Shopify.Mode)
	}

	if config.Sync.Workers < 1 {
		return fmt.Errorf("sync workers must be at least 1, got: %d", config.Sync.Workers)
	}

	return nil
}
