package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ServiceName   string
	Env           string
	LogLevel      string
	HTTPAddr      string
	PublicBaseURL string

	CartStore     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartKeyPrefix string
	CartTTL       time.Duration

	ProductsFile     string
	CheckoutMinItems int
	ProductListCap   int

	ShutdownTimeout time.Duration
}

// Load reads an optional .env file (existing environment variables win) and
// then the environment. Malformed values are reported by variable name.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := Config{
		ServiceName:   getenvDefault("SERVICE_NAME", "cartmanager"),
		Env:           getenvDefault("ENV", "dev"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(getenvDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		CartStore:     strings.ToLower(getenvDefault("CART_STORE", StoreRedis)),
		RedisAddr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0, &errs),
		CartKeyPrefix: getenvDefault("CART_KEY_PREFIX", "cart"),
		CartTTL:       getenvDuration("CART_TTL", 0, &errs),

		ProductsFile:     getenvDefault("PRODUCTS_FILE", "products.json"),
		CheckoutMinItems: getenvInt("CHECKOUT_MIN_ITEMS", 5, &errs),
		ProductListCap:   getenvInt("PRODUCT_LIST_CAP", 30, &errs),

		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
	}

	if cfg.CartStore != StoreRedis && cfg.CartStore != StoreMemory {
		errs = append(errs, fmt.Errorf("CART_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.CartStore))
	}
	if cfg.CheckoutMinItems < 0 {
		errs = append(errs, fmt.Errorf("CHECKOUT_MIN_ITEMS must not be negative"))
	}
	if cfg.ProductListCap < 0 {
		errs = append(errs, fmt.Errorf("PRODUCT_LIST_CAP must not be negative"))
	}
	if cfg.CartTTL < 0 {
		errs = append(errs, fmt.Errorf("CART_TTL must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
