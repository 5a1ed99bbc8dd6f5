package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FOODCART_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (FOODCART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product and banner images" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (FOODCART_API_KEY_PEPPER)" flag:"api-key-pepper"`
	PhoneRegion  string `default:"RU" usage:"Default region for validating customer phone numbers" flag:"phone-region"`
	Geocoder     GeocoderConfig
	Geo          GeoConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// GeocoderConfig configures the external geocoding provider.
type GeocoderConfig struct {
	APIKey  string `usage:"Geocoder API key (FOODCART_GEOCODER_API_KEY)" flag:"geocoder-api-key"`
	BaseURL string `default:"" usage:"Override geocoder endpoint, mainly for tests" flag:"geocoder-base-url"`
}

// GeoConfig controls address handling in the coordinate store.
type GeoConfig struct {
	TrimAddresses bool `default:"false" usage:"Trim surrounding whitespace from addresses before caching" flag:"trim-addresses"`
}

// RedisConfig configures the optional hot cache in front of the coordinate
// store. An empty URL disables it.
type RedisConfig struct {
	URL string        `default:"" usage:"Redis connection URL; empty disables the place cache" flag:"redis-url"`
	TTL time.Duration `default:"24h" usage:"TTL for cached places in Redis" flag:"redis-ttl"`
}

// KafkaConfig configures the order event stream. No brokers disables
// publishing.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses; empty disables order events" flag:"kafka-brokers"`
}

// RateLimitConfig controls the per-client token bucket rate limiter. Max is
// the bucket capacity; the bucket refills at Max tokens per Window.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Rate limit bucket capacity"`
	Window time.Duration `default:"1m"  usage:"Time to refill the bucket from empty"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FOODCART",
		Files:     []string{"config.yaml", "/etc/foodcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set FOODCART_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's FOODCART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
