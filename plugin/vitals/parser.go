package vitals

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The two supported line grammars:
//
//	Time: HH:MM - heart rate [#/min]: 72
//	Time: 30s - HR: 72, SPO2: 97, RESP: 16
var (
	singleValueLine = regexp.MustCompile(`^Time:\s*(?P<time>[^-]+?)\s*-\s*(?P<param>[^\[:]+?)\s*(?:\[(?P<unit>[^\]]*)\])?\s*:\s*(?P<value>-?\d+(?:\.\d+)?)\s*$`)
	keyValueLine    = regexp.MustCompile(`^Time:\s*(?P<time>[^-]+?)\s*-\s*(?P<kv>.+)$`)
)

// ParseLines parses vitals from text lines. Malformed lines are skipped and
// returned as warnings, never as an error: partial, noisy field data is the
// expected operating condition and one bad line must not fail the ingestion.
//
// Timestamps are offsets from the zero time; callers anchoring readings to a
// wall-clock night shift add their own base time.
func ParseLines(lines []string) ([]Reading, []string) {
	readings := []Reading{}
	warnings := []string{}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if match := singleValueLine.FindStringSubmatch(line); match != nil {
			offset, ok := parseTimeOffset(match[1])
			if !ok {
				warnings = append(warnings, fmt.Sprintf("line %d: unparseable time %q", i+1, match[1]))
				continue
			}
			param, ok := normalizeParameter(match[2])
			if !ok {
				warnings = append(warnings, fmt.Sprintf("line %d: unknown parameter %q", i+1, strings.TrimSpace(match[2])))
				continue
			}
			value, err := strconv.ParseFloat(match[4], 64)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: unparseable value %q", i+1, match[4]))
				continue
			}
			readings = append(readings, Reading{
				Timestamp: time.Time{}.Add(offset),
				Parameter: param,
				Value:     value,
				Unit:      strings.TrimSpace(match[3]),
			})
			continue
		}

		if match := keyValueLine.FindStringSubmatch(line); match != nil {
			offset, ok := parseTimeOffset(match[1])
			if !ok {
				warnings = append(warnings, fmt.Sprintf("line %d: unparseable time %q", i+1, match[1]))
				continue
			}
			parsed := 0
			for _, part := range strings.Split(match[2], ",") {
				key, rawValue, found := strings.Cut(part, ":")
				if !found {
					continue
				}
				param, ok := normalizeParameter(key)
				if !ok {
					warnings = append(warnings, fmt.Sprintf("line %d: unknown parameter %q", i+1, strings.TrimSpace(key)))
					continue
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("line %d: unparseable value %q for %s", i+1, strings.TrimSpace(rawValue), param))
					continue
				}
				readings = append(readings, Reading{
					Timestamp: time.Time{}.Add(offset),
					Parameter: param,
					Value:     value,
				})
				parsed++
			}
			if parsed == 0 {
				warnings = append(warnings, fmt.Sprintf("line %d: no values parsed", i+1))
			}
			continue
		}

		warnings = append(warnings, fmt.Sprintf("line %d: unrecognized format", i+1))
	}

	return readings, warnings
}

// parseTimeOffset converts "30s", "MM:SS" or "HH:MM:SS" into a duration.
// Two-component times are minutes:seconds, matching the bedside recorder output.
func parseTimeOffset(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if strings.HasSuffix(raw, "s") && !strings.Contains(raw, ":") {
		seconds, err := strconv.ParseFloat(strings.TrimSuffix(raw, "s"), 64)
		if err != nil {
			return 0, false
		}
		return time.Duration(seconds * float64(time.Second)), true
	}
	parts := strings.Split(raw, ":")
	numbers := make([]float64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, false
		}
		numbers = append(numbers, n)
	}
	switch len(numbers) {
	case 2:
		return time.Duration((numbers[0]*60 + numbers[1]) * float64(time.Second)), true
	case 3:
		return time.Duration((numbers[0]*3600 + numbers[1]*60 + numbers[2]) * float64(time.Second)), true
	}
	return 0, false
}

// normalizeParameter maps recorder labels onto the closed Parameter set.
func normalizeParameter(raw string) (Parameter, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "%", "")
	switch key {
	case "HEARTRATE", "HR":
		return ParamHeartRate, true
	case "SPO2", "SP02", "O2SAT", "SPO2PERCENT":
		return ParamSpO2, true
	case "RESP", "RR", "RESPIRATORYRATE":
		return ParamRespiratoryRate, true
	case "PULSE":
		return ParamPulse, true
	case "TEMP", "TEMPERATURE":
		return ParamTemperature, true
	case "BPSYS", "SYS", "SYSTOLIC", "BLOODPRESSURESYSTOLIC":
		return ParamBPSystolic, true
	case "BPDIA", "DIA", "DIASTOLIC", "BLOODPRESSUREDIASTOLIC":
		return ParamBPDiastolic, true
	}
	return "", false
}
