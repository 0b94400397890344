package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	httpapi "github.com/jnowat/astrospheric-weather/internal/api/http"
	"github.com/jnowat/astrospheric-weather/internal/config"
	"github.com/jnowat/astrospheric-weather/internal/scheduler"
	"github.com/jnowat/astrospheric-weather/internal/store"
	"github.com/jnowat/astrospheric-weather/internal/weather"
	"github.com/jnowat/astrospheric-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	provider := providers.NewAstrosphericProvider(cfg.BaseURL, cfg.HTTPClientConfig(), zlog)
	parser := weather.NewParser(cfg.MissingValuePolicy, zlog)
	cache := weather.NewCache(cfg.ForecastMaxAge)
	reports := store.NewMemoryStore(cfg.ReportHistory)

	controller := weather.NewController(provider, parser, cache, reports, weather.Settings{
		APIKey:   cfg.APIKey,
		Location: cfg.Location(),
		Mode:     cfg.Mode,
	}, zlog)

	// Scheduler that ticks the controller periodically.
	sched := scheduler.New(cfg.UpdatePeriod, controller, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "astrospheric-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A manual refresh may wait for a full provider round trip.
		WriteTimeout: cfg.ConnectTimeout + cfg.ReadTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "astrospheric-weather",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Controller:       controller,
		Store:            reports,
		Scheduler:        sched,
		RefreshPerMinute: cfg.RefreshRateLimit,
	})

	go func() {
		zlog.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Info("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
