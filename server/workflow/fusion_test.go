package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelcare/sentinel/plugin/evolution"
	"github.com/sentinelcare/sentinel/plugin/vitals"
)

func anomalyWindow(t *testing.T, values ...float64) ([]vitals.Window, []vitals.Summary) {
	t.Helper()
	readings := []vitals.Reading{}
	for i, v := range values {
		readings = append(readings, vitals.Reading{
			Timestamp: time.Time{}.Add(time.Duration(i) * time.Minute),
			Parameter: vitals.ParamHeartRate,
			Value:     v,
		})
	}
	windows, err := vitals.Partition(readings, vitals.CountPolicy(len(values)))
	require.NoError(t, err)
	summaries := []vitals.Summary{}
	for _, w := range windows {
		summaries = append(summaries, vitals.Summarize(w, vitals.DefaultThresholds()))
	}
	return windows, summaries
}

func TestFuseWindowsNoSignal(t *testing.T) {
	windows, summaries := anomalyWindow(t, 70, 120, 72)

	events := FuseWindows(windows, summaries, nil)
	require.Len(t, events, 1)
	assert.Equal(t, "TACHYCARDIA", events[0].Name)
	assert.Equal(t, evolution.SeverityMedium, events[0].Severity)
	assert.False(t, events[0].Promoted)
	assert.Equal(t, []string{"vitals"}, events[0].Sources)
}

func TestFuseWindowsPromotesExactlyOneStep(t *testing.T) {
	windows, summaries := anomalyWindow(t, 70, 120, 72)

	signal := SignalEvent{
		Timestamp:  time.Time{}.Add(time.Minute),
		Kind:       SignalAudio,
		Label:      "distress",
		Confidence: 0.8,
	}

	events := FuseWindows(windows, summaries, []SignalEvent{signal})
	require.Len(t, events, 1)
	assert.Equal(t, evolution.SeverityHigh, events[0].Severity)
	assert.True(t, events[0].Promoted)
	assert.Equal(t, []string{"vitals", "audio"}, events[0].Sources)

	// A second corroborating signal must not promote again.
	events = FuseWindows(windows, summaries, []SignalEvent{signal, signal})
	require.Len(t, events, 1)
	assert.Equal(t, evolution.SeverityHigh, events[0].Severity)
}

func TestFuseWindowsPromotionCappedAtCritical(t *testing.T) {
	// 160 crosses the critical heart rate cutoff: already critical.
	windows, summaries := anomalyWindow(t, 70, 160, 72)

	signal := SignalEvent{
		Timestamp:  time.Time{}.Add(time.Minute),
		Kind:       SignalVision,
		Confidence: 0.9,
	}
	events := FuseWindows(windows, summaries, []SignalEvent{signal})
	require.Len(t, events, 1)
	assert.Equal(t, evolution.SeverityCritical, events[0].Severity)
}

func TestFuseWindowsIgnoresWeakOrOutOfSpanSignals(t *testing.T) {
	windows, summaries := anomalyWindow(t, 70, 120, 72)

	weak := SignalEvent{Timestamp: time.Time{}.Add(time.Minute), Kind: SignalAudio, Confidence: 0.69}
	late := SignalEvent{Timestamp: time.Time{}.Add(time.Hour), Kind: SignalAudio, Confidence: 0.95}

	events := FuseWindows(windows, summaries, []SignalEvent{weak, late})
	require.Len(t, events, 1)
	assert.Equal(t, evolution.SeverityMedium, events[0].Severity)
	assert.False(t, events[0].Promoted)
}

func TestFuseWindowsSkipsCleanWindows(t *testing.T) {
	windows, summaries := anomalyWindow(t, 70, 72, 74)
	events := FuseWindows(windows, summaries, nil)
	assert.Empty(t, events)
}

func TestBaseSeverity(t *testing.T) {
	assert.Equal(t, evolution.SeverityHigh, baseSeverity(vitals.Anomaly{Kind: vitals.Hypoxemia}))
	assert.Equal(t, evolution.SeverityMedium, baseSeverity(vitals.Anomaly{Kind: vitals.Tachycardia}))
	assert.Equal(t, evolution.SeverityCritical, baseSeverity(vitals.Anomaly{Kind: vitals.Tachycardia, Critical: true}))
}

func TestSleepQuality(t *testing.T) {
	assert.Equal(t, 100.0, SleepQuality(nil))

	events := []FusedEvent{
		{Severity: evolution.SeverityCritical},
		{Severity: evolution.SeverityHigh},
		{Severity: evolution.SeverityMedium},
		{Severity: evolution.SeverityLow},
	}
	assert.Equal(t, 63.0, SleepQuality(events))

	many := make([]FusedEvent, 10)
	for i := range many {
		many[i] = FusedEvent{Severity: evolution.SeverityCritical}
	}
	// Floored at zero.
	assert.Equal(t, 0.0, SleepQuality(many))
}
