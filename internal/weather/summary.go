package weather

import "fmt"

// SimulatedReadings are reported in simulated mode.
var SimulatedReadings = Readings{
	CloudCover:    50.0,
	Temperature:   20.0,
	WindSpeed:     10.0,
	WindDirection: 180.0,
	DewPoint:      10.0,
	Seeing:        2.5,
	Transparency:  15.0,
}

// Summary renders readings as a single status line.
func Summary(r Readings) string {
	return fmt.Sprintf("Cloud: %.2f%%, Temp: %.2fC, Wind: %.2fkph, Dew: %.2fC, Dir: %.2f°, See: %.2f, Trans: %.2f",
		r.CloudCover, r.Temperature, r.WindSpeed, r.DewPoint, r.WindDirection, r.Seeing, r.Transparency)
}
