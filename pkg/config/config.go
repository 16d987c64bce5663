package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	DatabaseURL string
	RedisAddr   string

	KafkaBrokers string
	OrdersTopic  string

	StripeSecretKey     string
	StripeWebhookSecret string

	// Pricing knobs, all in paise.
	ShippingFee         int64
	SmallOrderFee       int64
	SmallOrderThreshold int64

	// TrustClientTotal keeps the direct order path using the client-declared
	// total. When false the total is recomputed server-side with the same
	// rules as checkout-session pricing.
	TrustClientTotal bool

	// ClearCartOnWebhook also empties the cart when an order is settled via
	// the payment webhook. Off by default: the storefront clears it.
	ClearCartOnWebhook bool
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		OrdersTopic:  getEnv("ORDERS_TOPIC", "orders"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		ShippingFee:         getEnvInt64("SHIPPING_FEE", 2000),
		SmallOrderFee:       getEnvInt64("SMALL_ORDER_FEE", 5000),
		SmallOrderThreshold: getEnvInt64("SMALL_ORDER_THRESHOLD", 30000),

		TrustClientTotal:   getEnvBool("TRUST_CLIENT_TOTAL", true),
		ClearCartOnWebhook: getEnvBool("CLEAR_CART_ON_WEBHOOK", false),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}
