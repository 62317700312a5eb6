package infra

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"reportly/internal/gateway"
)

// SMTPConfig holds SMTP + branding config for outbound mail.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	UseSSL     bool // true for SMTPS 465, false for STARTTLS 587
	RequireTLS bool

	AppName    string
	AppBaseURL string
}

// Config is the immutable service configuration, read from the environment
// exactly once at startup and injected everywhere. Nothing else in the tree
// calls os.Getenv.
type Config struct {
	Port        string
	PostgresURL string
	JWTSecret   string

	Gateway gateway.Config

	// Browser-facing pages the redirect entry points send users to.
	SuccessPageURL string
	FailurePageURL string

	SMTP SMTPConfig

	TaskQueueSize int
	TaskWorkers   int
}

func LoadConfig() (*Config, error) {
	// .env is a dev convenience; absent in production.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        envOr("PORT", "8080"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		Gateway: gateway.Config{
			MerchantKey:        os.Getenv("GATEWAY_MERCHANT_KEY"),
			MerchantSalt:       os.Getenv("GATEWAY_MERCHANT_SALT"),
			CheckoutURL:        envOr("GATEWAY_CHECKOUT_URL", "https://secure.payu.in/_payment"),
			ServiceProvider:    envOr("GATEWAY_SERVICE_PROVIDER", "payu_paisa"),
			SuccessCallbackURL: os.Getenv("GATEWAY_SUCCESS_CALLBACK_URL"),
			FailureCallbackURL: os.Getenv("GATEWAY_FAILURE_CALLBACK_URL"),
		},

		SuccessPageURL: envOr("PAYMENT_SUCCESS_PAGE_URL", "/payment/success"),
		FailurePageURL: envOr("PAYMENT_FAILURE_PAGE_URL", "/payment/failure"),

		SMTP: SMTPConfig{
			Host:       envOr("SMTP_HOST", "smtp.gmail.com"),
			Port:       envIntOr("SMTP_PORT", 587),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       os.Getenv("SMTP_FROM"),
			FromName:   envOr("SMTP_FROM_NAME", "Reportly"),
			UseSSL:     false,
			RequireTLS: true,
			AppName:    envOr("APP_NAME", "Reportly"),
			AppBaseURL: envOr("APP_BASE_URL", "https://reportly.app"),
		},

		TaskQueueSize: envIntOr("TASK_QUEUE_SIZE", 64),
		TaskWorkers:   envIntOr("TASK_WORKERS", 2),
	}

	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL is required")
	}
	if cfg.Gateway.MerchantKey == "" || cfg.Gateway.MerchantSalt == "" {
		return nil, fmt.Errorf("GATEWAY_MERCHANT_KEY and GATEWAY_MERCHANT_SALT are required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
