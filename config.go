package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for stock-repair-service. Missing Shopify
// credentials are not fatal at startup: endpoints that need them answer with
// a misconfigured result instead, and /env-check reports what is absent.
type Config struct {
	Port string

	ShopifyShop       string // mystore.myshopify.com
	ShopifyToken      string // Admin API access token
	ShopifyAPIVersion string
	WebhookSecret     string // shared secret for webhook HMAC

	AdminAPIKey string // optional guard for operator endpoints

	AllowRaiseToCommitted bool
	CorrectionReason      string

	BatchSize  int           // max adjustments per mutation (platform cap: 250)
	BatchPause time.Duration // minimum gap between corrector chunks

	DedupeTTL       time.Duration
	ScanConcurrency int
	PageSize        int
	HTTPTimeout     time.Duration
	ExportDir       string
}

// LoadConfig loads environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		ShopifyShop:       os.Getenv("SHOPIFY_SHOP"),
		ShopifyToken:      os.Getenv("SHOPIFY_ADMIN_TOKEN"),
		ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2025-01"),
		WebhookSecret:     os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
		CorrectionReason:  getEnv("CORRECTION_REASON", "correction"),
		ExportDir:         getEnv("EXPORT_DIR", os.TempDir()),
	}

	cfg.AllowRaiseToCommitted = os.Getenv("ALLOW_RAISE_TO_COMMITTED") == "true"

	var err error
	if cfg.BatchSize, err = getEnvInt("BATCH_SIZE", 250); err != nil {
		return nil, err
	}
	if cfg.ScanConcurrency, err = getEnvInt("SCAN_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = getEnvInt("PAGE_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.BatchPause, err = getEnvDuration("BATCH_PAUSE", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.DedupeTTL, err = getEnvDuration("DEDUPE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if cfg.BatchSize < 1 || cfg.BatchSize > 250 {
		return nil, fmt.Errorf("BATCH_SIZE must be between 1 and 250, got %d", cfg.BatchSize)
	}

	return cfg, nil
}

// Presence reports which required configuration values are set, by name.
// Used by /env-check; values are never exposed.
func (c *Config) Presence() map[string]bool {
	return map[string]bool{
		"SHOPIFY_SHOP":           c.ShopifyShop != "",
		"SHOPIFY_ADMIN_TOKEN":    c.ShopifyToken != "",
		"SHOPIFY_API_VERSION":    c.ShopifyAPIVersion != "",
		"SHOPIFY_WEBHOOK_SECRET": c.WebhookSecret != "",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
