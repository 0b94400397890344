package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnowat/astrospheric-weather/internal/weather"
)

func testConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.ReadTimeout = 2 * time.Second
	return cfg
}

func TestAstrosphericProvider_postsCoordinates(t *testing.T) {
	var got forecastRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/GetForecastData_V1", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"UTCStartTime":"2025-06-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	p := NewAstrosphericProvider(srv.URL, testConfig(), nil)
	body, err := p.Fetch(context.Background(), weather.Coordinates{Latitude: 45, Longitude: 285}, "key-123")
	require.NoError(t, err)

	assert.JSONEq(t, `{"UTCStartTime":"2025-06-01T00:00:00Z"}`, string(body))
	assert.Equal(t, forecastRequest{Latitude: 45, Longitude: -75, APIKey: "key-123"}, got)
	assert.Equal(t, "astrospheric", p.Name())
}

func TestAstrosphericProvider_httpErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"Message":"Invalid API key"}`))
	}))
	defer srv.Close()

	p := NewAstrosphericProvider(srv.URL, testConfig(), nil)
	_, err := p.Fetch(context.Background(), weather.Coordinates{Latitude: 45, Longitude: -75}, "bad")

	var te *weather.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.ErrorIs(t, err, weather.ErrTransport)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Equal(t, "Invalid API key", te.Message)
}

func TestAstrosphericProvider_plainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewAstrosphericProvider(srv.URL, testConfig(), nil)
	_, err := p.Fetch(context.Background(), weather.Coordinates{}, "key")

	var te *weather.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, "service unavailable", te.Message)
}

func TestAstrosphericProvider_connectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewAstrosphericProvider(url, testConfig(), nil)
	_, err := p.Fetch(context.Background(), weather.Coordinates{}, "key")

	var te *weather.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Error(t, te.Err)
}

func TestAstrosphericProvider_readTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.ReadTimeout = 100 * time.Millisecond
	p := NewAstrosphericProvider(srv.URL, cfg, nil)

	started := time.Now()
	_, err := p.Fetch(context.Background(), weather.Coordinates{}, "key")
	assert.ErrorIs(t, err, weather.ErrTransport)
	assert.Less(t, time.Since(started), time.Second)
}

func TestAstrosphericProvider_cancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewAstrosphericProvider(srv.URL, testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Fetch(ctx, weather.Coordinates{}, "key")
	assert.ErrorIs(t, err, weather.ErrTransport)
}

func TestAstrosphericProvider_breakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreakerMaxFailures = 2
	p := NewAstrosphericProvider(srv.URL, cfg, nil)

	for i := 0; i < 4; i++ {
		_, err := p.Fetch(context.Background(), weather.Coordinates{}, "key")
		assert.ErrorIs(t, err, weather.ErrTransport)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))

	_, err := p.Fetch(context.Background(), weather.Coordinates{}, "key")
	assert.ErrorIs(t, err, errCircuitOpen)
}

func TestAstrosphericProvider_breakerDisabledByDefault(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewAstrosphericProvider(srv.URL, testConfig(), nil)
	for i := 0; i < 5; i++ {
		_, _ = p.Fetch(context.Background(), weather.Coordinates{}, "key")
	}
	assert.EqualValues(t, 5, atomic.LoadInt32(&hits))
}

func TestAstrosphericProvider_emptyKey(t *testing.T) {
	p := NewAstrosphericProvider("http://127.0.0.1:1", testConfig(), nil)
	_, err := p.Fetch(context.Background(), weather.Coordinates{}, "")
	assert.ErrorIs(t, err, weather.ErrTransport)
}
