package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings are the inputs a tick needs besides the clock.
type Settings struct {
	APIKey   string
	Location *Coordinates // nil until a location has been received
	Mode     Mode
}

// Controller runs the refresh/index cycle once per tick. Ticks are serialized;
// settings may be changed concurrently and take effect on the next tick.
type Controller struct {
	fetcher Fetcher
	parser  *Parser
	cache   *Cache
	store   ReportStore
	logger  *zap.Logger

	tickMu sync.Mutex

	mu          sync.Mutex
	settings    Settings
	invalidated bool
}

// NewController creates a Controller. store may be nil.
func NewController(fetcher Fetcher, parser *Parser, cache *Cache, store ReportStore, settings Settings, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Mode == "" {
		settings.Mode = ModeAPI
	}
	return &Controller{
		fetcher:  fetcher,
		parser:   parser,
		cache:    cache,
		store:    store,
		settings: settings,
		logger:   logger.Named("controller"),
	}
}

// Settings returns a copy of the current settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.settings
	if s.Location != nil {
		loc := *s.Location
		s.Location = &loc
	}
	return s
}

// SetAPIKey replaces the credential and invalidates the cached forecast.
func (c *Controller) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.APIKey = key
	c.invalidated = true
	c.logger.Info("API key updated")
}

// SetLocation sets the forecast location and invalidates the cached forecast.
func (c *Controller) SetLocation(coords Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Location = &coords
	c.invalidated = true
	c.logger.Info("location updated",
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude),
	)
}

// SnoopLocation accepts a location broadcast by another device. Both
// coordinates must be present; an incomplete broadcast is ignored.
func (c *Controller) SnoopLocation(source string, lat, lon *float64) error {
	if lat == nil || lon == nil {
		c.logger.Warn("incomplete snooped location",
			zap.String("source", source),
			zap.Bool("latFound", lat != nil),
			zap.Bool("lonFound", lon != nil),
		)
		return fmt.Errorf("snooped location from %q incomplete", source)
	}
	c.logger.Info("snooped location", zap.String("source", source))
	c.SetLocation(Coordinates{Latitude: *lat, Longitude: *lon})
	return nil
}

// SetMode switches between API and simulated readings.
func (c *Controller) SetMode(mode Mode) error {
	if mode != ModeAPI && mode != ModeSimulated {
		return fmt.Errorf("unknown mode %q", mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Mode = mode
	c.invalidated = true
	c.logger.Info("mode updated", zap.String("mode", string(mode)))
	return nil
}

// Tick runs one update cycle at now and returns its report. Failures are
// reported, never retried within the tick; the next tick retries.
func (c *Controller) Tick(ctx context.Context, now time.Time) Report {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	now = now.UTC()

	c.mu.Lock()
	settings := c.settings
	if c.invalidated {
		c.cache.Invalidate()
		c.invalidated = false
	}
	c.mu.Unlock()

	report := Report{
		ID:    uuid.NewString(),
		Time:  now,
		Mode:  settings.Mode,
		State: StateIdle,
	}
	log := c.logger.With(zap.String("tick", report.ID))

	report = c.run(ctx, now, settings, report, log)
	if c.store != nil {
		c.store.SaveReport(report)
	}
	return report
}

func (c *Controller) run(ctx context.Context, now time.Time, settings Settings, report Report, log *zap.Logger) Report {
	if settings.Mode == ModeSimulated {
		log.Debug("updating weather in simulated mode")
		return ready(report, SimulatedReadings)
	}

	if settings.Location == nil {
		log.Info("waiting for location data")
		return failed(report, StatusBusy, fmt.Errorf("waiting for location data: %w", ErrMissingPrerequisite))
	}
	if settings.APIKey == "" {
		log.Error("API key is not set")
		return failed(report, StatusAlert, fmt.Errorf("API key is not set: %w", ErrMissingPrerequisite))
	}

	if c.cache.IsStale(now) {
		report.State = StateRefreshing
		if err := c.refresh(ctx, now, *settings.Location, settings.APIKey, log); err != nil {
			c.cache.Invalidate()
			log.Error("failed to fetch or parse forecast data", zap.Error(err))
			return failed(report, StatusAlert, err)
		}
	}

	record := c.cache.Current()
	report.ForecastStart = record.StartTime
	report.FetchedAt = c.cache.FetchedAt()

	readings, idx, err := ReadingsAt(record, now)
	report.HourIndex = idx
	if err != nil {
		c.cache.Invalidate()
		log.Error("current time outside forecast range", zap.Int("offset", idx))
		return failed(report, StatusAlert, err)
	}

	report.Advisory = CreditAdvisory(record.CreditsUsedToday)
	if report.Advisory != "" {
		log.Warn(report.Advisory)
	}
	log.Info("weather updated",
		zap.Int("hour", idx),
		zap.Float64("cloudCover", readings.CloudCover),
		zap.Float64("temperature", readings.Temperature),
		zap.Float64("windSpeed", readings.WindSpeed),
	)
	return ready(report, readings)
}

func (c *Controller) refresh(ctx context.Context, now time.Time, coords Coordinates, apiKey string, log *zap.Logger) error {
	log.Info("fetching new forecast data", zap.String("provider", c.fetcher.Name()))

	raw, err := c.fetcher.Fetch(ctx, coords.Normalized(), apiKey)
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = &TransportError{Err: err}
		}
		return err
	}

	record, err := c.parser.Parse(raw)
	if err != nil {
		return err
	}
	c.cache.Store(record, now)
	return nil
}

func ready(report Report, readings Readings) Report {
	report.State = StateReady
	report.Status = StatusOK
	report.Readings = &readings
	report.Summary = Summary(readings)
	return report
}

func failed(report Report, status Status, err error) Report {
	report.State = StateFailed
	report.Status = status
	report.Failure = failureKind(err)
	report.Message = err.Error()
	return report
}
