package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/kursadbilgin/wasender/internal/domain"
)

type Config struct {
	AccessToken       string  `env:"ACCESS_TOKEN,required=true"`
	PhoneNumberID     string  `env:"PHONE_NUMBER_ID,required=true"`
	GraphBaseURL      string  `env:"GRAPH_BASE_URL,default=https://graph.facebook.com/v19.0"`
	RatePerSec        float64 `env:"RATE_PER_SEC,default=80.0"`
	MaxAttempts       int     `env:"MAX_ATTEMPTS,default=5"`
	BaseDelayMillis   int     `env:"BASE_DELAY_MILLIS,default=1000"`
	RequestTimeoutSec int     `env:"REQUEST_TIMEOUT_SEC,default=10"`
	MetricsPort       int     `env:"METRICS_PORT,default=0"`
	LogLevel          string  `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := domain.ValidateSenderID(c.PhoneNumberID); err != nil {
		return fmt.Errorf("PHONE_NUMBER_ID: %w", err)
	}
	if c.RatePerSec <= 0 {
		return fmt.Errorf("RATE_PER_SEC must be positive, got %f", c.RatePerSec)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelayMillis < 1 {
		return fmt.Errorf("BASE_DELAY_MILLIS must be at least 1, got %d", c.BaseDelayMillis)
	}
	if c.RequestTimeoutSec < 1 {
		return fmt.Errorf("REQUEST_TIMEOUT_SEC must be at least 1, got %d", c.RequestTimeoutSec)
	}
	return nil
}

func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMillis) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}
