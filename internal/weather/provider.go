package weather

import (
	"context"
)

// Fetcher abstracts the remote forecast provider. Implementations return the
// raw response body, or a *TransportError.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, coords Coordinates, apiKey string) ([]byte, error)
}

// ReportStore receives the report produced by every tick.
type ReportStore interface {
	SaveReport(report Report)
}
