// Package evolution compares successive clinical report summaries and
// classifies the patient trajectory between them.
package evolution

import "strings"

// Severity is an ordinal clinical severity scale. Higher is worse.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// ParseSeverity normalizes free-text severity labels, including the French
// labels that appear in bilingual report templates. Unrecognized labels map
// to SeverityNone with ok=false so callers can decide how to degrade.
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none", "aucune", "normal", "":
		return SeverityNone, raw != ""
	case "low", "basse", "faible", "mild":
		return SeverityLow, true
	case "medium", "moyenne", "moderate", "moderee", "modérée":
		return SeverityMedium, true
	case "high", "haute", "elevee", "élevée", "severe":
		return SeverityHigh, true
	case "critical", "critique":
		return SeverityCritical, true
	}
	return SeverityNone, false
}

// Promote raises a severity by exactly one step, capped at critical.
func (s Severity) Promote() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}
