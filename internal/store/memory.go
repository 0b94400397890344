package store

import (
	"errors"
	"sync"

	"github.com/jnowat/astrospheric-weather/internal/weather"
)

var (
	// ErrNotFound is returned before the first report has been saved.
	ErrNotFound = errors.New("no weather report available")
)

// MemoryStore is a concurrency-safe holder of recent tick reports.
type MemoryStore struct {
	mu sync.RWMutex

	reports []weather.Report

	// retention configuration
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore keeping at most maxHistory reports.
// If maxHistory is <= 0 only the latest report is kept.
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &MemoryStore{maxHistory: maxHistory}
}

// SaveReport appends a report and enforces retention.
func (s *MemoryStore) SaveReport(report weather.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)
	if over := len(s.reports) - s.maxHistory; over > 0 {
		s.reports = append([]weather.Report(nil), s.reports[over:]...)
	}
}

// GetLatest returns the most recent report.
func (s *MemoryStore) GetLatest() (weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return weather.Report{}, ErrNotFound
	}
	return s.reports[len(s.reports)-1], nil
}

// GetRecent returns up to n reports, newest first.
func (s *MemoryStore) GetRecent(n int) ([]weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return nil, ErrNotFound
	}
	if n <= 0 || n > len(s.reports) {
		n = len(s.reports)
	}
	result := make([]weather.Report, 0, n)
	for i := len(s.reports) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.reports[i])
	}
	return result, nil
}

var _ weather.ReportStore = (*MemoryStore)(nil)
