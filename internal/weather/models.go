package weather

import (
	"time"
)

// Metric identifies one of the hourly series carried by a forecast.
type Metric string

const (
	MetricCloudCover    Metric = "RDPS_CloudCover"
	MetricTemperature   Metric = "RDPS_Temperature"
	MetricWindSpeed     Metric = "RDPS_WindVelocity"
	MetricDewPoint      Metric = "RDPS_DewPoint"
	MetricWindDirection Metric = "RDPS_WindDirection"
	MetricSeeing        Metric = "Astrospheric_Seeing"
	MetricTransparency  Metric = "Astrospheric_Transparency"
)

// Metrics lists every series a forecast must contain, in reporting order.
var Metrics = []Metric{
	MetricCloudCover,
	MetricTemperature,
	MetricWindSpeed,
	MetricDewPoint,
	MetricWindDirection,
	MetricSeeing,
	MetricTransparency,
}

// ForecastHours is the number of hourly samples every series must hold.
const ForecastHours = 82

// Coordinates is a geographic position. Longitude may use either the
// [-180,180] or the [0,360] convention.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Normalized returns the coordinates with longitude folded into [-180,180].
func (c Coordinates) Normalized() Coordinates {
	if c.Longitude > 180 {
		c.Longitude -= 360
	}
	return c
}

// ForecastRecord is one accepted forecast. Series are kept in provider units.
type ForecastRecord struct {
	StartTime        time.Time // always UTC
	Series           map[Metric][]float64
	CreditsUsedToday int
}

// Readings holds the value of every metric for a single hour, in reporting units.
type Readings struct {
	CloudCover    float64 `json:"cloudCover"`
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	DewPoint      float64 `json:"dewPoint"`
	Seeing        float64 `json:"seeing"`
	Transparency  float64 `json:"transparency"`
}

// Mode selects where readings come from.
type Mode string

const (
	ModeAPI       Mode = "api"
	ModeSimulated Mode = "simulated"
)

// State is the controller state reached by a tick.
type State string

const (
	StateIdle       State = "idle"
	StateRefreshing State = "refreshing"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Status is the overall status published with each report.
type Status string

const (
	StatusIdle  Status = "IDLE"
	StatusOK    Status = "OK"
	StatusBusy  Status = "BUSY"
	StatusAlert Status = "ALERT"
)

// Report is the outcome of one tick.
type Report struct {
	ID            string      `json:"id"`
	Time          time.Time   `json:"time"`
	Mode          Mode        `json:"mode"`
	State         State       `json:"state"`
	Status        Status      `json:"status"`
	Failure       FailureKind `json:"failure,omitempty"`
	Message       string      `json:"message,omitempty"`
	Advisory      string      `json:"advisory,omitempty"`
	HourIndex     int         `json:"hourIndex"`
	ForecastStart time.Time   `json:"forecastStart"`
	FetchedAt     time.Time   `json:"fetchedAt"`
	Readings      *Readings   `json:"readings,omitempty"`
	Summary       string      `json:"summary,omitempty"`
}
