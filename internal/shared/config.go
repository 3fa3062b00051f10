package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":3001"`
	MetricsAddr string `env:"METRICS_ADDR"` // empty disables the dedicated listener

	PlacesKey       string        `env:"GOOGLE_PLACES_API_KEY,required,notEmpty"`
	PlacesBase      string        `env:"PLACES_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/place"`
	PlacesRPS       int           `env:"PLACES_RPS" envDefault:"5"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	BusinessName     string `env:"BUSINESS_NAME" envDefault:"Spartan Exteriors"`
	BusinessLocation string `env:"BUSINESS_LOCATION" envDefault:"Sewell NJ"`

	RefreshTimeout  time.Duration `env:"REFRESH_TIMEOUT" envDefault:"25s"`
	CacheStaleAfter time.Duration `env:"CACHE_STALE_AFTER" envDefault:"24h"`
	RefreshSchedule string        `env:"REFRESH_SCHEDULE" envDefault:"0 0 * * *"`

	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads the environment. A missing credential is an error: the service
// must not start against the provider without one.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func (c Config) validate() error {
	var errs []error
	if c.BusinessName == "" {
		errs = append(errs, errors.New("BUSINESS_NAME is empty"))
	}
	if c.PlacesRPS <= 0 {
		errs = append(errs, errors.New("PLACES_RPS must be positive"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.RefreshTimeout < c.ProviderTimeout {
		errs = append(errs, errors.New("REFRESH_TIMEOUT must cover at least one provider call"))
	}
	if c.CacheStaleAfter <= 0 {
		errs = append(errs, errors.New("CACHE_STALE_AFTER must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
