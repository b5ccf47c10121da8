package workflow

import (
	"time"

	"github.com/sentinelcare/sentinel/plugin/evolution"
	"github.com/sentinelcare/sentinel/plugin/vitals"
)

// promotionConfidence is the minimum signal confidence that corroborates
// an anomaly window.
const promotionConfidence = 0.7

// FusedEvent is an anomaly window corroborated (or not) by a second
// modality. Promotion raises the severity by exactly one ordinal step,
// capped at critical.
type FusedEvent struct {
	Name     string
	Severity evolution.Severity
	WindowID int
	Start    time.Time
	End      time.Time
	Value    float64
	Promoted bool
	// Sources lists the modalities that contributed: vitals always,
	// plus audio/vision when a signal corroborated the window.
	Sources []string
}

// baseSeverity maps an anomaly to its uncorroborated severity. Anomalies
// past a critical cutoff are critical outright.
func baseSeverity(a vitals.Anomaly) evolution.Severity {
	if a.Critical {
		return evolution.SeverityCritical
	}
	switch a.Kind {
	case vitals.Hypoxemia, vitals.Hypothermia:
		return evolution.SeverityHigh
	default:
		return evolution.SeverityMedium
	}
}

// FuseWindows turns anomaly-bearing window summaries into fused events.
// A signal with confidence at or above the promotion cutoff, timestamped
// inside the window span, promotes each of the window's events one step.
// Multiple corroborating signals still promote only once.
func FuseWindows(windows []vitals.Window, summaries []vitals.Summary, signals []SignalEvent) []FusedEvent {
	spans := map[int]vitals.Window{}
	for _, w := range windows {
		spans[w.ID] = w
	}

	events := []FusedEvent{}
	for _, summary := range summaries {
		if len(summary.Anomalies) == 0 {
			continue
		}
		window, ok := spans[summary.WindowID]
		if !ok {
			continue
		}

		corroborating := corroboratingSignal(window, signals)
		for _, anomaly := range summary.Anomalies {
			event := FusedEvent{
				Name:     string(anomaly.Kind),
				Severity: baseSeverity(anomaly),
				WindowID: summary.WindowID,
				Start:    window.Start(),
				End:      window.End(),
				Value:    anomaly.Value,
				Sources:  []string{"vitals"},
			}
			if corroborating != nil {
				event.Severity = event.Severity.Promote()
				event.Promoted = true
				event.Sources = append(event.Sources, string(corroborating.Kind))
			}
			events = append(events, event)
		}
	}
	return events
}

// corroboratingSignal returns the first qualifying signal inside the
// window span, or nil.
func corroboratingSignal(w vitals.Window, signals []SignalEvent) *SignalEvent {
	start, end := w.Start(), w.End()
	for i := range signals {
		s := &signals[i]
		if s.Confidence < promotionConfidence {
			continue
		}
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		return s
	}
	return nil
}

// SleepQuality scores a night from its fused events. Each event deducts
// points by severity from a perfect 100, floored at zero.
func SleepQuality(events []FusedEvent) float64 {
	score := 100.0
	for _, event := range events {
		switch event.Severity {
		case evolution.SeverityCritical:
			score -= 20
		case evolution.SeverityHigh:
			score -= 10
		case evolution.SeverityMedium:
			score -= 5
		default:
			score -= 2
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}
