package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UTCLayout is the provider's start time format. The trailing Z is literal,
// so parsed values carry no zone offset and land in UTC.
const UTCLayout = "2006-01-02T15:04:05Z"

const (
	// CreditWarningThreshold is the daily credit usage that triggers an advisory.
	CreditWarningThreshold = 90
	// CreditDailyLimit is the provider's daily credit allowance.
	CreditDailyLimit = 100
)

// MissingValuePolicy decides what happens when a single hour has no usable ActualValue.
type MissingValuePolicy string

const (
	// MissingValueZero substitutes 0 for the hour and logs a warning.
	MissingValueZero MissingValuePolicy = "zero"
	// MissingValueReject fails the whole payload.
	MissingValueReject MissingValuePolicy = "reject"
)

// Parser validates and decodes provider responses into ForecastRecords.
type Parser struct {
	policy MissingValuePolicy
	logger *zap.Logger
}

// NewParser creates a Parser. An unknown policy falls back to MissingValueZero.
func NewParser(policy MissingValuePolicy, logger *zap.Logger) *Parser {
	if policy != MissingValueReject {
		policy = MissingValueZero
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{policy: policy, logger: logger.Named("parser")}
}

type hourEntry struct {
	Value *struct {
		ActualValue json.RawMessage `json:"ActualValue"`
	} `json:"Value"`
}

// Parse decodes raw into a ForecastRecord. A record is returned only when every
// metric carries exactly ForecastHours samples.
func (p *Parser) Parse(raw []byte) (*ForecastRecord, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &ParseError{Kind: ParseMalformed, Err: err}
	}
	if top == nil {
		return nil, &ParseError{Kind: ParseMalformed, Detail: "payload is not an object"}
	}

	var startStr string
	if err := json.Unmarshal(top["UTCStartTime"], &startStr); err != nil {
		return nil, &ParseError{Kind: ParseBadTimestamp, Detail: "UTCStartTime missing or not a string"}
	}
	start, err := ParseUTCDateTime(startStr)
	if err != nil {
		return nil, &ParseError{Kind: ParseBadTimestamp, Err: err}
	}

	record := &ForecastRecord{
		StartTime: start,
		Series:    make(map[Metric][]float64, len(Metrics)),
	}

	if rawCredits, ok := top["APICreditUsedToday"]; ok && !isNull(rawCredits) {
		if err := json.Unmarshal(rawCredits, &record.CreditsUsedToday); err != nil {
			p.logger.Warn("ignoring non-integer APICreditUsedToday", zap.ByteString("value", rawCredits))
		} else {
			p.logger.Info("API credits used today", zap.Int("credits", record.CreditsUsedToday))
		}
	}

	for _, m := range Metrics {
		series, err := p.parseSeries(m, top[string(m)])
		if err != nil {
			return nil, err
		}
		record.Series[m] = series
	}

	for _, m := range Metrics {
		if n := len(record.Series[m]); n != ForecastHours {
			return nil, &ParseError{
				Kind:   ParseLengthMismatch,
				Metric: m,
				Detail: fmt.Sprintf("%d hours, expected %d", n, ForecastHours),
			}
		}
	}

	p.logger.Info("parsed forecast",
		zap.Int("hours", ForecastHours),
		zap.Time("start", record.StartTime),
	)
	return record, nil
}

func (p *Parser) parseSeries(m Metric, raw json.RawMessage) ([]float64, error) {
	if raw == nil || isNull(raw) {
		return nil, &ParseError{Kind: ParseMissingSeries, Metric: m}
	}
	var hours []json.RawMessage
	if err := json.Unmarshal(raw, &hours); err != nil {
		return nil, &ParseError{Kind: ParseMissingSeries, Metric: m, Detail: "not an array"}
	}

	series := make([]float64, len(hours))
	for i, h := range hours {
		v, ok := actualValue(h)
		if ok {
			series[i] = v
			continue
		}
		if p.policy == MissingValueReject {
			return nil, &ParseError{Kind: ParseMissingValue, Metric: m, Detail: fmt.Sprintf("hour %d", i)}
		}
		p.logger.Warn("missing ActualValue, using 0", zap.String("metric", string(m)), zap.Int("hour", i))
	}
	return series, nil
}

func actualValue(raw json.RawMessage) (float64, bool) {
	var entry hourEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Value == nil {
		return 0, false
	}
	if entry.Value.ActualValue == nil || isNull(entry.Value.ActualValue) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(entry.Value.ActualValue, &v); err != nil {
		return 0, false
	}
	return v, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ParseUTCDateTime parses a YYYY-MM-DDThh:mm:ssZ timestamp as UTC, independent
// of the host's local zone.
func ParseUTCDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(UTCLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CreditAdvisory returns a warning when credit usage is at or above the
// warning threshold, otherwise "".
func CreditAdvisory(credits int) string {
	if credits < CreditWarningThreshold {
		return ""
	}
	return fmt.Sprintf("API credits used today: %d, approaching daily limit of %d", credits, CreditDailyLimit)
}
