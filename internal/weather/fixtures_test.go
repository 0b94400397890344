package weather

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// rawBase holds provider-unit samples; hour i of every series is base + i.
var rawBase = map[Metric]float64{
	MetricCloudCover:    10,
	MetricTemperature:   293.15,
	MetricWindSpeed:     10,
	MetricDewPoint:      283.15,
	MetricWindDirection: 90,
	MetricSeeing:        1,
	MetricTransparency:  5,
}

func hourEntries(base float64, hours int) []interface{} {
	entries := make([]interface{}, hours)
	for i := range entries {
		entries[i] = map[string]interface{}{
			"Value": map[string]interface{}{"ActualValue": base + float64(i)},
		}
	}
	return entries
}

func payloadDoc(start string, hours int) map[string]interface{} {
	doc := map[string]interface{}{
		"UTCStartTime":       start,
		"APICreditUsedToday": 12,
	}
	for _, m := range Metrics {
		doc[string(m)] = hourEntries(rawBase[m], hours)
	}
	return doc
}

func encode(t *testing.T, doc map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func validPayload(t *testing.T, start string) []byte {
	t.Helper()
	return encode(t, payloadDoc(start, ForecastHours))
}
