package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServiceName  string
	OTELEndpoint string
	Port         string

	// Processor is the payments processor's session API.
	Processor ProcessorConfig

	// SessionsURL is where devices post setup tokens. Only the device side reads it.
	SessionsURL string
}

// ProcessorConfig holds the processor credentials and account identifiers.
type ProcessorConfig struct {
	URL             string
	APIKey          string
	MerchantAccount string
	Store           string
	Timeout         time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:  getEnv("SERVICE_NAME", "rarepay-sessions"),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Port:         getEnv("PORT", "3000"),
		Processor: ProcessorConfig{
			URL:             getEnv("ADYEN_API_URL", "https://checkout-test.adyen.com/checkout"),
			APIKey:          os.Getenv("ADYEN_API_KEY"),
			MerchantAccount: os.Getenv("ADYEN_MERCHANT_ACCOUNT"),
			Store:           os.Getenv("ADYEN_STORE"),
			Timeout:         getDuration("PROCESSOR_TIMEOUT", 10*time.Second),
		},
		SessionsURL: getEnv("POSSDK_SESSIONS_URL", "http://localhost:3000/api/adyen/possdk/sessions"),
	}
}

// Validate reports missing processor credentials.
func (c *Config) Validate() error {
	var errs []error
	if c.Processor.APIKey == "" {
		errs = append(errs, errors.New("ADYEN_API_KEY is required"))
	}
	if c.Processor.MerchantAccount == "" {
		errs = append(errs, errors.New("ADYEN_MERCHANT_ACCOUNT is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
