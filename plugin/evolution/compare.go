package evolution

import (
	"sort"
	"strings"
)

// Compare diffs a later summary against an earlier one.
//
// Finding names match case-insensitively. The trend rule, in priority order:
// any new finding at medium or above forces DEGRADING; otherwise a strict
// drop in overall severity is IMPROVING, a strict rise is DEGRADING, and
// everything else is STABLE.
func Compare(earlier, later Summary) Delta {
	delta := Delta{
		New:        []Finding{},
		Resolved:   []Finding{},
		Persistent: []Finding{},
		Metrics:    []MetricDelta{},
	}

	earlierByName := findingIndex(earlier.Findings)
	laterByName := findingIndex(later.Findings)

	for _, f := range later.Findings {
		if _, ok := earlierByName[findingKey(f.Name)]; ok {
			delta.Persistent = append(delta.Persistent, f)
		} else {
			delta.New = append(delta.New, f)
		}
	}
	for _, f := range earlier.Findings {
		if _, ok := laterByName[findingKey(f.Name)]; !ok {
			delta.Resolved = append(delta.Resolved, f)
		}
	}

	names := []string{}
	for name := range earlier.Metrics {
		if _, ok := later.Metrics[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		before, after := earlier.Metrics[name], later.Metrics[name]
		direction := MetricFlat
		switch {
		case after > before:
			direction = MetricUp
		case after < before:
			direction = MetricDown
		}
		delta.Metrics = append(delta.Metrics, MetricDelta{
			Name:      name,
			Old:       before,
			New:       after,
			Direction: direction,
		})
	}

	delta.Trend = classifyTrend(earlier, later, delta.New)
	delta.Incomplete = isEmpty(earlier) || isEmpty(later)
	return delta
}

// CompareSeries diffs each consecutive pair in chronological order.
func CompareSeries(summaries []Summary) []Delta {
	if len(summaries) < 2 {
		return []Delta{}
	}
	deltas := make([]Delta, 0, len(summaries)-1)
	for i := 1; i < len(summaries); i++ {
		deltas = append(deltas, Compare(summaries[i-1], summaries[i]))
	}
	return deltas
}

func classifyTrend(earlier, later Summary, newFindings []Finding) Trend {
	for _, f := range newFindings {
		if f.Severity >= SeverityMedium {
			return TrendDegrading
		}
	}
	switch {
	case later.Severity < earlier.Severity:
		return TrendImproving
	case later.Severity > earlier.Severity:
		return TrendDegrading
	}
	return TrendStable
}

func findingIndex(findings []Finding) map[string]Finding {
	index := make(map[string]Finding, len(findings))
	for _, f := range findings {
		index[findingKey(f.Name)] = f
	}
	return index
}

func findingKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isEmpty(s Summary) bool {
	return len(s.Findings) == 0 && len(s.Metrics) == 0
}
