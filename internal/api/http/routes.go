package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jnowat/astrospheric-weather/internal/store"
	"github.com/jnowat/astrospheric-weather/internal/weather"
)

var validate = validator.New()

// Controller is the subset of weather.Controller the API drives.
type Controller interface {
	Tick(ctx context.Context, now time.Time) weather.Report
	Settings() weather.Settings
	SetAPIKey(key string)
	SetLocation(coords weather.Coordinates)
	SnoopLocation(source string, lat, lon *float64) error
	SetMode(mode weather.Mode) error
}

// PeriodScheduler lets the API change the tick period.
type PeriodScheduler interface {
	Period() time.Duration
	SetPeriod(period time.Duration) error
}

// Deps bundles what the routes need.
type Deps struct {
	Controller Controller
	Store      *store.MemoryStore
	Scheduler  PeriodScheduler
	// RefreshPerMinute limits manual refreshes. Zero means 2.
	RefreshPerMinute int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	perMinute := deps.RefreshPerMinute
	if perMinute <= 0 {
		perMinute = 2
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		report, err := deps.Store.GetLatest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather report yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load weather report")
		}
		return c.JSON(report)
	})

	v1.Get("/weather/reports", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		reports, err := deps.Store.GetRecent(limit)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather report yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load weather reports")
		}
		return c.JSON(fiber.Map{"reports": reports})
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "refresh rate limit exceeded")
		}
		report := deps.Controller.Tick(c.UserContext(), time.Now())
		return c.JSON(report)
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		s := deps.Controller.Settings()
		return c.JSON(settingsView{
			APIKeySet: s.APIKey != "",
			Location:  s.Location,
			Mode:      s.Mode,
			Period:    int(deps.Scheduler.Period() / time.Second),
		})
	})

	v1.Put("/settings/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		coords := weather.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
		deps.Controller.SetLocation(coords)
		return c.JSON(coords)
	})

	v1.Put("/settings/snoop", func(c *fiber.Ctx) error {
		var req snoopRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		// Incomplete broadcasts are ignored by the controller and reported as 422.
		if req.Lat != nil && req.Long != nil {
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if err := deps.Controller.SnoopLocation(req.Device, req.Lat, req.Long); err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/settings/apikey", func(c *fiber.Ctx) error {
		var req apiKeyRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		deps.Controller.SetAPIKey(req.APIKey)
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/settings/mode", func(c *fiber.Ctx) error {
		var req modeRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		if err := deps.Controller.SetMode(weather.Mode(req.Mode)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/settings/period", func(c *fiber.Ctx) error {
		var req periodRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		if err := deps.Scheduler.SetPeriod(time.Duration(*req.Seconds) * time.Second); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

type settingsView struct {
	APIKeySet bool                 `json:"apiKeySet"`
	Location  *weather.Coordinates `json:"location"`
	Mode      weather.Mode         `json:"mode"`
	Period    int                  `json:"periodSeconds"`
}

// locationRequest sets the location manually. Longitude accepts [0,360] too.
type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=360"`
}

// snoopRequest mirrors a GEOGRAPHIC_COORD broadcast from another device.
type snoopRequest struct {
	Device string   `json:"device"`
	Lat    *float64 `json:"LAT" validate:"required,min=-90,max=90"`
	Long   *float64 `json:"LONG" validate:"required,min=-180,max=360"`
}

type apiKeyRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=api simulated"`
}

type periodRequest struct {
	Seconds *int `json:"seconds" validate:"required,min=0,max=3600"`
}

func bindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
