package vitals

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// PolicyKind selects the partitioning strategy.
type PolicyKind int

const (
	// PolicySpan closes a window once the next reading would land at or past
	// Span from the window's first reading.
	PolicySpan PolicyKind = iota
	// PolicyCount closes a window after exactly Count readings.
	PolicyCount
)

// Policy describes how a reading sequence is split into windows.
type Policy struct {
	Kind  PolicyKind
	Span  time.Duration
	Count int
}

// SpanPolicy returns a fixed wall-clock span policy.
func SpanPolicy(span time.Duration) Policy {
	return Policy{Kind: PolicySpan, Span: span}
}

// CountPolicy returns a fixed cardinality policy.
func CountPolicy(n int) Policy {
	return Policy{Kind: PolicyCount, Count: n}
}

// Window is an ordered, contiguous, non-overlapping slice of readings.
type Window struct {
	ID       int
	Readings []Reading
}

// Start returns the timestamp of the first reading.
func (w Window) Start() time.Time {
	if len(w.Readings) == 0 {
		return time.Time{}
	}
	return w.Readings[0].Timestamp
}

// End returns the timestamp of the last reading.
func (w Window) End() time.Time {
	if len(w.Readings) == 0 {
		return time.Time{}
	}
	return w.Readings[len(w.Readings)-1].Timestamp
}

// Partition splits readings into windows under the given policy.
//
// Input is sorted defensively (stable, by timestamp) rather than rejected:
// this keeps the operation total, and recorder feeds occasionally deliver
// slightly out-of-order lines. Every reading lands in exactly one window and
// empty windows are never emitted.
func Partition(readings []Reading, policy Policy) ([]Window, error) {
	switch policy.Kind {
	case PolicySpan:
		if policy.Span <= 0 {
			return nil, errors.Wrap(ErrInvalidInput, "span policy requires a positive duration")
		}
	case PolicyCount:
		if policy.Count <= 0 {
			return nil, errors.Wrap(ErrInvalidInput, "count policy requires a positive count")
		}
	default:
		return nil, errors.Wrapf(ErrInvalidInput, "unknown policy kind %d", policy.Kind)
	}

	if len(readings) == 0 {
		return []Window{}, nil
	}

	sorted := make([]Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	windows := []Window{}
	current := []Reading{}
	var windowStart time.Time

	flush := func() {
		if len(current) == 0 {
			return
		}
		windows = append(windows, Window{ID: len(windows), Readings: current})
		current = []Reading{}
	}

	for _, reading := range sorted {
		switch policy.Kind {
		case PolicyCount:
			current = append(current, reading)
			if len(current) == policy.Count {
				flush()
			}
		case PolicySpan:
			if len(current) == 0 {
				windowStart = reading.Timestamp
			} else if reading.Timestamp.Sub(windowStart) >= policy.Span {
				flush()
				windowStart = reading.Timestamp
			}
			current = append(current, reading)
		}
	}
	flush()

	return windows, nil
}
