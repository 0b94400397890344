package providers

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPClientConfig bundles transport timeouts and breaker settings.
type HTTPClientConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// BreakerMaxFailures is the number of consecutive failures that opens the
	// breaker. Zero keeps it closed.
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// DefaultHTTPClientConfig matches the provider's documented limits.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout:     5 * time.Second,
		ReadTimeout:        15 * time.Second,
		BreakerOpenTimeout: 30 * time.Minute,
	}
}

var errCircuitOpen = errors.New("circuit breaker open")

func newTransport(cfg HTTPClientConfig) *http.Transport {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        2,
		IdleConnTimeout:     90 * time.Second,
	}
}

func newBreaker(name string, cfg HTTPClientConfig) *gobreaker.CircuitBreaker {
	maxFailures := cfg.BreakerMaxFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return maxFailures > 0 && counts.ConsecutiveFailures >= maxFailures
		},
	})
}
