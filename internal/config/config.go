package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/quickcheck/internal/covid/providers"
)

type AppConfig struct {
	// SummaryURL is the endpoint serving the global summary.
	SummaryURL string `validate:"required,url"`

	// HTTPTimeout bounds a single summary fetch.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// CheckInterval controls how often the scheduler checks whether the
	// current plan has expired.
	CheckInterval time.Duration `validate:"gte=1m"`

	// Circuit breaker around the summary endpoint.
	BreakerMaxFailures uint32        `validate:"gt=0"`
	BreakerOpenTimeout time.Duration `validate:"gt=0"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.SummaryURL = getenvDefault("SUMMARY_URL", providers.SummaryURL)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", providers.DefaultTimeout); err != nil {
		return nil, err
	}

	// Plans are valid for a day; checking every 15 minutes keeps the refresh close to expiry.
	if cfg.CheckInterval, err = getenvDuration("CHECK_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.BreakerMaxFailures = uint32(getenvInt("BREAKER_MAX_FAILURES", 5))
	if cfg.BreakerOpenTimeout, err = getenvDuration("BREAKER_OPEN_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Breaker returns the circuit breaker settings for the summary provider.
func (c *AppConfig) Breaker() providers.BreakerConfig {
	return providers.BreakerConfig{
		MaxConsecutiveFailures: c.BreakerMaxFailures,
		OpenTimeout:            c.BreakerOpenTimeout,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
