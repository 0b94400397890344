package weather

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a tick failed.
type FailureKind string

const (
	FailureMissingPrerequisite FailureKind = "missing_prerequisite"
	FailureTransport           FailureKind = "transport"
	FailureParse               FailureKind = "parse"
	FailureOutOfRange          FailureKind = "out_of_range"
)

var (
	// ErrMissingPrerequisite is returned when the credential or location is not set.
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("forecast transport failure")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("forecast parse failure")
	// ErrOutOfRange matches every *RangeError.
	ErrOutOfRange = errors.New("current time outside forecast range")
)

// TransportError reports a failed request to the forecast provider.
type TransportError struct {
	StatusCode int    // HTTP status, 0 when no response was received
	Message    string // provider supplied message, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("forecast request failed: %d - %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("forecast request failed: %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("forecast request failed: %v", e.Err)
	default:
		return "forecast request failed"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ParseKind narrows a ParseError.
type ParseKind string

const (
	ParseMalformed      ParseKind = "malformed"
	ParseBadTimestamp   ParseKind = "bad_timestamp"
	ParseMissingSeries  ParseKind = "missing_series"
	ParseMissingValue   ParseKind = "missing_value"
	ParseLengthMismatch ParseKind = "length_mismatch"
)

// ParseError reports a rejected provider payload.
type ParseError struct {
	Kind   ParseKind
	Metric Metric
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "forecast parse failed: " + string(e.Kind)
	if e.Metric != "" {
		msg += " (" + string(e.Metric) + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// RangeError reports an hour index outside the forecast window.
type RangeError struct {
	HourIndex int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("current time outside forecast range. Offset: %d", e.HourIndex)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

// failureKind maps an error returned by the engine onto its FailureKind.
func failureKind(err error) FailureKind {
	switch {
	case errors.Is(err, ErrMissingPrerequisite):
		return FailureMissingPrerequisite
	case errors.Is(err, ErrTransport):
		return FailureTransport
	case errors.Is(err, ErrParse):
		return FailureParse
	case errors.Is(err, ErrOutOfRange):
		return FailureOutOfRange
	default:
		return ""
	}
}
