package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/jnowat/astrospheric-weather/internal/common"
	"github.com/jnowat/astrospheric-weather/internal/weather"
)

const (
	// DefaultAstrosphericBaseURL is the public access host of the Astrospheric API.
	DefaultAstrosphericBaseURL = "https://astrosphericpublicaccess.azurewebsites.net"
	astrosphericForecastPath   = "/api/GetForecastData_V1"
	maxErrorMessageLen         = 200
)

// AstrosphericProvider implements weather.Fetcher for the Astrospheric forecast API.
type AstrosphericProvider struct {
	name    string
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

type forecastRequest struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	APIKey    string  `json:"APIKey"`
}

type providerError struct {
	Message      string `json:"Message"`
	ErrorMessage string `json:"ErrorMessage"`
	Error        string `json:"error"`
}

// NewAstrosphericProvider creates a provider talking to baseURL.
func NewAstrosphericProvider(baseURL string, cfg HTTPClientConfig, logger *zap.Logger) *AstrosphericProvider {
	if baseURL == "" {
		baseURL = DefaultAstrosphericBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTransport(newTransport(cfg)).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.ReadTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &AstrosphericProvider{
		name:    "astrospheric",
		client:  client,
		circuit: newBreaker("astrospheric", cfg),
		logger:  logger.Named("astrospheric"),
	}
}

func (p *AstrosphericProvider) Name() string {
	return p.name
}

// Fetch posts the coordinates and key and returns the raw response body.
// Longitude is expected in [-180,180] already.
func (p *AstrosphericProvider) Fetch(ctx context.Context, coords weather.Coordinates, apiKey string) ([]byte, error) {
	if apiKey == "" {
		return nil, &weather.TransportError{Err: errors.New("api key is not configured")}
	}
	coords = coords.Normalized()

	p.logger.Debug("sending coordinates to API",
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude),
	)

	result, err := p.circuit.Execute(func() (interface{}, error) {
		resp, err := p.client.R().
			SetContext(ctx).
			SetBody(forecastRequest{
				Latitude:  coords.Latitude,
				Longitude: coords.Longitude,
				APIKey:    apiKey,
			}).
			SetError(&providerError{}).
			Post(astrosphericForecastPath)
		if err != nil {
			return nil, &weather.TransportError{Err: err}
		}
		if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return nil, &weather.TransportError{
				StatusCode: resp.StatusCode(),
				Message:    errorMessage(resp),
			}
		}
		return resp.Body(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &weather.TransportError{Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		p.logger.Error("API request failed", zap.Error(err))
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &weather.TransportError{Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	p.logger.Debug("API response", zap.Int("bytes", len(body)))
	return body, nil
}

func errorMessage(resp *resty.Response) string {
	var structured string
	if e, ok := resp.Error().(*providerError); ok && e != nil {
		structured = common.FirstNonEmpty(e.Message, e.ErrorMessage, e.Error)
	}
	return common.Truncate(common.FirstNonEmpty(structured, strings.TrimSpace(resp.String())), maxErrorMessageLen)
}
