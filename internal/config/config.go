package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jnowat/astrospheric-weather/internal/weather"
	"github.com/jnowat/astrospheric-weather/internal/weather/providers"
)

type AppConfig struct {
	APIKey  string
	BaseURL string `validate:"required,url"`

	// Location is nil when no coordinates are configured; the controller then
	// waits for one to be set or snooped.
	Latitude  *float64 `validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `validate:"omitempty,min=-180,max=360"`

	Mode weather.Mode `validate:"oneof=api simulated"`

	// UpdatePeriod is the tick period; 0 disables periodic ticks.
	UpdatePeriod time.Duration `validate:"min=0s,max=1h"`
	// ForecastMaxAge is how long a fetched forecast is used before refetching.
	ForecastMaxAge time.Duration `validate:"gt=0s"`

	ConnectTimeout time.Duration `validate:"gt=0s"`
	ReadTimeout    time.Duration `validate:"gt=0s"`

	MissingValuePolicy weather.MissingValuePolicy `validate:"oneof=zero reject"`

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration `validate:"gt=0s"`

	// RefreshRateLimit is the number of manual refreshes allowed per minute.
	RefreshRateLimit int `validate:"min=1"`
	ReportHistory    int `validate:"min=1"`

	LogLevel string `validate:"oneof=debug info warn error"`
	Port     string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &AppConfig{
		APIKey:             os.Getenv("ASTROSPHERIC_API_KEY"),
		BaseURL:            getenvDefault("ASTROSPHERIC_BASE_URL", providers.DefaultAstrosphericBaseURL),
		Mode:               weather.Mode(getenvDefault("WEATHER_MODE", string(weather.ModeAPI))),
		MissingValuePolicy: weather.MissingValuePolicy(getenvDefault("MISSING_VALUE_POLICY", string(weather.MissingValueZero))),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		Port:               getenvDefault("PORT", "8080"),
		RefreshRateLimit:   getenvInt("REFRESH_RATE_LIMIT", 2),
		ReportHistory:      getenvInt("REPORT_HISTORY", 48),
	}

	var err error
	if cfg.Latitude, err = getenvFloat("WEATHER_LATITUDE"); err != nil {
		return nil, err
	}
	if cfg.Longitude, err = getenvFloat("WEATHER_LONGITUDE"); err != nil {
		return nil, err
	}

	// Tick period in seconds: default 30 minutes.
	period := getenvInt("WEATHER_UPDATE_PERIOD", 1800)
	cfg.UpdatePeriod = time.Duration(period) * time.Second

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"FORECAST_MAX_AGE", "6h", &cfg.ForecastMaxAge},
		{"HTTP_CONNECT_TIMEOUT", "5s", &cfg.ConnectTimeout},
		{"HTTP_READ_TIMEOUT", "15s", &cfg.ReadTimeout},
		{"BREAKER_OPEN_TIMEOUT", "30m", &cfg.BreakerOpenTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	cfg.BreakerMaxFailures = uint32(getenvInt("BREAKER_MAX_FAILURES", 0))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and that latitude and longitude are set together.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.Latitude == nil) != (c.Longitude == nil) {
		return fmt.Errorf("invalid configuration: WEATHER_LATITUDE and WEATHER_LONGITUDE must be set together")
	}
	return nil
}

// Location returns the configured coordinates, or nil.
func (c *AppConfig) Location() *weather.Coordinates {
	if c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &weather.Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}
}

// HTTPClientConfig returns the provider transport settings.
func (c *AppConfig) HTTPClientConfig() providers.HTTPClientConfig {
	return providers.HTTPClientConfig{
		ConnectTimeout:     c.ConnectTimeout,
		ReadTimeout:        c.ReadTimeout,
		BreakerMaxFailures: c.BreakerMaxFailures,
		BreakerOpenTimeout: c.BreakerOpenTimeout,
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
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
