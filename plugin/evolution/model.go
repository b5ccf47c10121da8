package evolution

import "time"

// Trend classifies the patient trajectory between two summaries.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDegrading Trend = "DEGRADING"
)

// Finding is a single named clinical observation carried by a summary.
type Finding struct {
	Name     string
	Severity Severity
}

// Summary is the comparable digest of one report, typically one per
// workflow phase. Ref identifies the source report or session.
type Summary struct {
	Ref       string
	Timestamp time.Time
	Severity  Severity
	Findings  []Finding
	Metrics   map[string]float64
}

// MetricDirection says which way a numeric metric moved.
type MetricDirection string

const (
	MetricUp   MetricDirection = "UP"
	MetricDown MetricDirection = "DOWN"
	MetricFlat MetricDirection = "FLAT"
)

// MetricDelta is the movement of one shared metric between two summaries.
type MetricDelta struct {
	Name      string
	Old       float64
	New       float64
	Direction MetricDirection
}

// Delta is the full comparison result between an earlier and a later summary.
type Delta struct {
	// Findings present only in the later summary.
	New []Finding
	// Findings present only in the earlier summary.
	Resolved []Finding
	// Findings present in both, carrying the later summary's severity.
	Persistent []Finding
	// Metrics present in both summaries, sorted by name.
	Metrics []MetricDelta
	Trend   Trend
	// Incomplete marks a comparison where at least one side carried no
	// findings and no metrics. The delta is still computed.
	Incomplete bool
}
