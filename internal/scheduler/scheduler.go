package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/jnowat/astrospheric-weather/internal/weather"
)

// MaxPeriod is the longest accepted tick period.
const MaxPeriod = time.Hour

// ErrInvalidPeriod is returned for periods outside [0, MaxPeriod].
var ErrInvalidPeriod = errors.New("tick period must be between 0s and 1h")

// Ticker is the work run on every tick.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) weather.Report
}

// Scheduler drives the controller from a periodic timer. At most one tick
// runs at a time; a tick still running when the next is due is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ticker    Ticker
	logger    *zap.Logger

	mu     sync.Mutex
	job    *gocron.Job
	period time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler. A zero period disables periodic ticks.
func New(period time.Duration, ticker Ticker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		ticker:    ticker,
		period:    period,
		logger:    logger.Named("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scheduleLocked(s.period); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Period returns the current tick period.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// SetPeriod reschedules the job with a new period.
func (s *Scheduler) SetPeriod(period time.Duration) error {
	if period < 0 || period > MaxPeriod {
		return ErrInvalidPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		s.scheduler.RemoveByReference(s.job)
		s.job = nil
	}
	if err := s.scheduleLocked(period); err != nil {
		return err
	}
	s.logger.Info("tick period updated", zap.Duration("period", period))
	return nil
}

func (s *Scheduler) scheduleLocked(period time.Duration) error {
	if period < 0 || period > MaxPeriod {
		return ErrInvalidPeriod
	}
	s.period = period

	seconds := int(period / time.Second)
	if seconds <= 0 {
		s.logger.Info("tick period is zero; periodic updates disabled")
		return nil
	}

	job, err := s.scheduler.Every(seconds).Seconds().Do(s.runTick)
	if err != nil {
		return err
	}
	s.job = job
	return nil
}

func (s *Scheduler) runTick() {
	if s.ctx.Err() != nil {
		return
	}
	report := s.ticker.Tick(s.ctx, time.Now())
	s.logger.Debug("tick completed",
		zap.String("tick", report.ID),
		zap.String("state", string(report.State)),
		zap.String("status", string(report.Status)),
	)
}

// Stop cancels any in-flight tick and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
