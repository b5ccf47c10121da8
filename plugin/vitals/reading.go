// Package vitals turns raw physiological time-series into bounded, classified
// window summaries: line parsing, windowing, per-window statistics, and
// threshold-based anomaly flags.
package vitals

import (
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidInput marks malformed but locally recoverable input. Callers skip
// the offending record and keep a warning instead of failing the batch.
var ErrInvalidInput = errors.New("invalid vitals input")

// Parameter identifies a monitored physiological parameter.
type Parameter string

const (
	ParamHeartRate       Parameter = "heart_rate"
	ParamSpO2            Parameter = "spo2"
	ParamRespiratoryRate Parameter = "respiratory_rate"
	ParamPulse           Parameter = "pulse"
	ParamTemperature     Parameter = "temperature"
	ParamBPSystolic      Parameter = "blood_pressure_systolic"
	ParamBPDiastolic     Parameter = "blood_pressure_diastolic"
)

// Reading is a single immutable vital-sign sample. Duplicate timestamps for
// the same parameter are permitted and both retained.
type Reading struct {
	Timestamp time.Time
	Parameter Parameter
	Value     float64
	Unit      string
}
