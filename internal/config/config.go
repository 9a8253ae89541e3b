// Package config содержит логику чтения конфигурации сервиса RankingDBV.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса RankingDBV.
// Секреты (PAYMENT_API_TOKEN, AUTH_SECRET) читаются только из окружения
// и не имеют значений по умолчанию.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	PaymentBaseURL  string `env:"PAYMENT_BASE_URL"`
	PaymentAPIToken string `env:"PAYMENT_API_TOKEN"`
	AuthSecret      string `env:"AUTH_SECRET"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envPaymentBaseURL := cfg.PaymentBaseURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PaymentBaseURL, "p", "", "payment gateway base URL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envPaymentBaseURL != "" {
		cfg.PaymentBaseURL = envPaymentBaseURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if cfg.PaymentBaseURL != "" && cfg.PaymentAPIToken == "" {
		return nil, fmt.Errorf("PAYMENT_API_TOKEN is required when PAYMENT_BASE_URL is set")
	}

	return cfg, nil
}
