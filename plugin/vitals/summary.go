package vitals

import "sort"

// AnomalyKind names a clinically abnormal pattern observed inside a window.
type AnomalyKind string

const (
	Tachycardia  AnomalyKind = "TACHYCARDIA"
	Bradycardia  AnomalyKind = "BRADYCARDIA"
	Hypoxemia    AnomalyKind = "HYPOXEMIA"
	Tachypnea    AnomalyKind = "TACHYPNEA"
	Bradypnea    AnomalyKind = "BRADYPNEA"
	Fever        AnomalyKind = "FEVER"
	Hypothermia  AnomalyKind = "HYPOTHERMIA"
	Hypertension AnomalyKind = "HYPERTENSION"
	Hypotension  AnomalyKind = "HYPOTENSION"
)

// Thresholds holds the cutoffs used to flag anomalies.
type Thresholds struct {
	HeartRateHigh   float64
	HeartRateLow    float64
	SpO2Low         float64
	RespRateHigh    float64
	RespRateLow     float64
	TemperatureHigh float64
	TemperatureLow  float64
	SystolicHigh    float64
	SystolicLow     float64

	// Critical cutoffs, past which an anomaly is immediately life
	// threatening rather than merely abnormal.
	SpO2Critical          float64
	HeartRateHighCritical float64
	HeartRateLowCritical  float64
	TemperatureCritical   float64
}

// DefaultThresholds returns adult inpatient cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeartRateHigh:   100,
		HeartRateLow:    60,
		SpO2Low:         92,
		RespRateHigh:    24,
		RespRateLow:     10,
		TemperatureHigh: 38.5,
		TemperatureLow:  35.5,
		SystolicHigh:    180,
		SystolicLow:     90,

		SpO2Critical:          85,
		HeartRateHighCritical: 150,
		HeartRateLowCritical:  40,
		TemperatureCritical:   40,
	}
}

// Stats aggregates the values of one parameter inside a window.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// Anomaly is a flagged abnormal pattern, with the extreme value that
// triggered it and whether it crossed a critical cutoff.
type Anomaly struct {
	Kind      AnomalyKind
	Parameter Parameter
	Value     float64
	Critical  bool
}

// Summary is the per-window aggregation handed to downstream consumers.
type Summary struct {
	WindowID  int
	Stats     map[Parameter]Stats
	Anomalies []Anomaly
}

// Summarize aggregates a window and flags anomalies against the thresholds.
//
// Flags are derived from per-reading extremes, not means: a single transient
// spike inside an otherwise normal window still surfaces. Parameters absent
// from the window produce no stats and no flags. Summarize is deterministic
// for a given window and thresholds.
func Summarize(w Window, th Thresholds) Summary {
	byParam := map[Parameter][]float64{}
	for _, r := range w.Readings {
		byParam[r.Parameter] = append(byParam[r.Parameter], r.Value)
	}

	summary := Summary{WindowID: w.ID, Stats: make(map[Parameter]Stats, len(byParam))}
	for param, values := range byParam {
		summary.Stats[param] = computeStats(values)
	}

	if st, ok := summary.Stats[ParamHeartRate]; ok {
		if st.Max > th.HeartRateHigh {
			summary.add(Tachycardia, ParamHeartRate, st.Max, st.Max > th.HeartRateHighCritical)
		}
		if st.Min < th.HeartRateLow {
			summary.add(Bradycardia, ParamHeartRate, st.Min, st.Min < th.HeartRateLowCritical)
		}
	}
	if st, ok := summary.Stats[ParamSpO2]; ok {
		if st.Min < th.SpO2Low {
			summary.add(Hypoxemia, ParamSpO2, st.Min, st.Min < th.SpO2Critical)
		}
	}
	if st, ok := summary.Stats[ParamRespiratoryRate]; ok {
		if st.Max > th.RespRateHigh {
			summary.add(Tachypnea, ParamRespiratoryRate, st.Max, false)
		}
		if st.Min < th.RespRateLow {
			summary.add(Bradypnea, ParamRespiratoryRate, st.Min, false)
		}
	}
	if st, ok := summary.Stats[ParamTemperature]; ok {
		if st.Max >= th.TemperatureHigh {
			summary.add(Fever, ParamTemperature, st.Max, st.Max > th.TemperatureCritical)
		}
		if st.Min < th.TemperatureLow {
			summary.add(Hypothermia, ParamTemperature, st.Min, false)
		}
	}
	if st, ok := summary.Stats[ParamBPSystolic]; ok {
		if st.Max > th.SystolicHigh {
			summary.add(Hypertension, ParamBPSystolic, st.Max, false)
		}
		if st.Min < th.SystolicLow {
			summary.add(Hypotension, ParamBPSystolic, st.Min, false)
		}
	}

	return summary
}

// SummarizeAll partitions and summarizes in one pass.
func SummarizeAll(readings []Reading, policy Policy, th Thresholds) ([]Summary, error) {
	windows, err := Partition(readings, policy)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(windows))
	for _, w := range windows {
		summaries = append(summaries, Summarize(w, th))
	}
	return summaries, nil
}

func (s *Summary) add(kind AnomalyKind, param Parameter, value float64, critical bool) {
	s.Anomalies = append(s.Anomalies, Anomaly{
		Kind:      kind,
		Parameter: param,
		Value:     value,
		Critical:  critical,
	})
}

func computeStats(values []float64) Stats {
	st := Stats{Count: len(values), Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Mean = sum / float64(len(values))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		st.Median = sorted[mid]
	} else {
		st.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return st
}
