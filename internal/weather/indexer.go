package weather

import (
	"fmt"
	"time"
)

const (
	kelvinOffset = 273.15
	msToKmh      = 3.6
)

// HourIndex returns floor((now - start) / 1h). Negative offsets floor toward
// negative infinity, so 30 minutes before start is hour -1.
func HourIndex(start, now time.Time) int {
	d := now.Sub(start)
	idx := d / time.Hour
	if d < 0 && d%time.Hour != 0 {
		idx--
	}
	return int(idx)
}

// ValueAt returns metric's value at now, converted to reporting units. It has
// no side effects.
func ValueAt(record *ForecastRecord, metric Metric, now time.Time) (float64, error) {
	if record == nil {
		return 0, &RangeError{HourIndex: -1}
	}
	idx := HourIndex(record.StartTime, now)
	series, ok := record.Series[metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
	if idx < 0 || idx >= ForecastHours || idx >= len(series) {
		return 0, &RangeError{HourIndex: idx}
	}
	return convert(metric, series[idx]), nil
}

// ReadingsAt resolves every metric at now.
func ReadingsAt(record *ForecastRecord, now time.Time) (Readings, int, error) {
	if record == nil {
		return Readings{}, -1, &RangeError{HourIndex: -1}
	}
	idx := HourIndex(record.StartTime, now)
	values := make(map[Metric]float64, len(Metrics))
	for _, m := range Metrics {
		v, err := ValueAt(record, m, now)
		if err != nil {
			return Readings{}, idx, err
		}
		values[m] = v
	}
	return Readings{
		CloudCover:    values[MetricCloudCover],
		Temperature:   values[MetricTemperature],
		WindSpeed:     values[MetricWindSpeed],
		WindDirection: values[MetricWindDirection],
		DewPoint:      values[MetricDewPoint],
		Seeing:        values[MetricSeeing],
		Transparency:  values[MetricTransparency],
	}, idx, nil
}

func convert(metric Metric, raw float64) float64 {
	switch metric {
	case MetricTemperature, MetricDewPoint:
		return raw - kelvinOffset
	case MetricWindSpeed:
		return raw * msToKmh
	default:
		return raw
	}
}
