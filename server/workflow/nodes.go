package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sentinelcare/sentinel/plugin/ai"
	"github.com/sentinelcare/sentinel/plugin/evolution"
	"github.com/sentinelcare/sentinel/plugin/vitals"
	"github.com/sentinelcare/sentinel/server/memory"
)

// PhaseNode executes one phase of a session. Nodes mutate the state in
// place and persist their outputs into patient memory before the engine
// advances the phase. A returned error is fatal for the session; degraded
// conditions are recorded on the state instead.
type PhaseNode interface {
	Name() string
	Execute(ctx context.Context, state *State, input *SessionInput) error
}

// NightNode ingests raw vitals, windows them, fuses anomalies with
// multimodal signals and persists the resulting clinical events.
type NightNode struct {
	memory     *memory.Service
	thresholds vitals.Thresholds
	policy     vitals.Policy
}

func (n *NightNode) Name() string { return "night" }

func (n *NightNode) Execute(ctx context.Context, state *State, input *SessionInput) error {
	night := &NightData{SleepQuality: 100}
	state.Night = night

	if len(input.VitalLines) == 0 {
		state.AddWarning("night: no vitals input, proceeding with empty data")
		return nil
	}

	readings, warnings := vitals.ParseLines(input.VitalLines)
	for _, w := range warnings {
		state.AddWarning("night: " + w)
	}
	night.Readings = readings
	if len(readings) == 0 {
		state.AddWarning("night: no readings parsed, proceeding with empty data")
		return nil
	}

	windows, err := vitals.Partition(readings, n.policy)
	if err != nil {
		state.AddError("night: " + err.Error())
		return nil
	}
	for _, w := range windows {
		night.Summaries = append(night.Summaries, vitals.Summarize(w, n.thresholds))
	}

	night.Events = FuseWindows(windows, night.Summaries, input.Signals)
	night.AlertsTriggered = len(night.Events)
	for _, event := range night.Events {
		if event.Severity == evolution.SeverityCritical {
			night.CriticalAlerts++
		}
	}
	for _, signal := range input.Signals {
		switch signal.Kind {
		case SignalAudio:
			night.AudioEvents = append(night.AudioEvents, signal)
		case SignalVision:
			night.VisionEvents = append(night.VisionEvents, signal)
		}
	}
	night.SleepQuality = SleepQuality(night.Events)
	state.SetMetric("sleep_quality", night.SleepQuality)
	state.SetMetric("night_events", float64(night.AlertsTriggered))
	state.SetMetric("critical_alerts", float64(night.CriticalAlerts))

	for _, event := range night.Events {
		_, err := n.memory.AddClinicalEvent(ctx, &memory.ClinicalEvent{
			PatientID:   state.PatientID,
			Name:        event.Name,
			Description: fmt.Sprintf("window %d, value %.1f", event.WindowID, event.Value),
			Severity:    event.Severity.String(),
			Timestamp:   anchorTime(state.StartedAt, event.Start),
			Source:      strings.Join(event.Sources, "+"),
		})
		if err != nil {
			return err
		}
	}

	state.AddMessage("system", fmt.Sprintf("night surveillance: %d readings, %d events", len(readings), len(night.Events)))
	return nil
}

// Rap1Node generates the morning report from the night's events.
type Rap1Node struct {
	memory   *memory.Service
	provider ai.CompletionProvider
	renderer DocumentRenderer
	timeout  time.Duration
}

func (n *Rap1Node) Name() string { return "rap1" }

func (n *Rap1Node) Execute(ctx context.Context, state *State, input *SessionInput) error {
	facts := buildNightPrompt(state)
	report := generateReport(ctx, state, n.provider, n.timeout, "Night report", nightSystemPrompt, facts)

	if n.renderer != nil {
		path, err := n.renderer.Render(Document{
			Title:    "Night report",
			Sections: []Section{{Heading: "Report", Body: report.Body}},
			Metadata: map[string]string{
				"session": state.SessionID,
				"patient": state.PatientID,
				"phase":   string(PhaseRap1),
			},
		})
		if err != nil {
			state.AddError("rap1: render failed: " + err.Error())
		} else {
			report.Path = path
		}
	}

	if err := n.persist(ctx, state, report); err != nil {
		return err
	}
	state.Rap1Report = report
	state.AddMessage("assistant", report.Summary)
	return nil
}

func (n *Rap1Node) persist(ctx context.Context, state *State, report *Report) error {
	if _, err := n.memory.AddReport(ctx, &memory.Report{
		PatientID: state.PatientID,
		Kind:      "night",
		Path:      report.Path,
		Summary:   report.Summary,
		Timestamp: report.GeneratedAt,
	}); err != nil {
		return err
	}
	_, err := n.memory.AddConsultation(ctx, &memory.Consultation{
		PatientID: state.PatientID,
		Phase:     string(PhaseRap1),
		Summary:   report.Summary,
		Timestamp: report.GeneratedAt,
	})
	return err
}

// DayNode runs the day consultation: it resolves the consultation mode,
// applies the mode's analysis rules and records the symptoms as clinical
// events at the assessed severity.
type DayNode struct {
	memory *memory.Service
}

func (n *DayNode) Name() string { return "day" }

func (n *DayNode) Execute(ctx context.Context, state *State, input *SessionInput) error {
	mode := input.ConsultationMode
	if mode == "" {
		mode = ConsultationGeneral
		if hasCardioSymptom(input.Symptoms) {
			mode = ConsultationCardio
		}
	}

	day := &DayData{Mode: mode, Symptoms: input.Symptoms, ExamNotes: input.ExamNotes}
	state.Day = day

	if len(input.DayVitalLines) > 0 {
		readings, warnings := vitals.ParseLines(input.DayVitalLines)
		for _, w := range warnings {
			state.AddWarning("day: " + w)
		}
		day.Vitals = readings
	}

	if len(input.Symptoms) == 0 && input.ExamNotes == "" {
		state.AddWarning("day: no consultation input, proceeding with empty data")
		return nil
	}

	analysis := AnalyzeConsultation(mode, input.Symptoms)
	day.Differential = analysis.Differential
	day.Severity = analysis.Severity
	day.Actions = analysis.Actions
	if analysis.Severity >= evolution.SeverityHigh {
		state.Mode = ModeTriagePriority
	}

	for _, symptom := range input.Symptoms {
		symptom = strings.TrimSpace(symptom)
		if symptom == "" {
			continue
		}
		_, err := n.memory.AddClinicalEvent(ctx, &memory.ClinicalEvent{
			PatientID: state.PatientID,
			Name:      symptom,
			Severity:  day.Severity.String(),
			Source:    "consultation",
		})
		if err != nil {
			return err
		}
	}

	state.AddMessage("system", fmt.Sprintf("day consultation (%s): %d symptoms, severity %s",
		mode, len(input.Symptoms), day.Severity))
	return nil
}

// Rap2Node generates the evening report, including the evolution against
// the night.
type Rap2Node struct {
	memory   *memory.Service
	provider ai.CompletionProvider
	renderer DocumentRenderer
	timeout  time.Duration
}

func (n *Rap2Node) Name() string { return "rap2" }

func (n *Rap2Node) Execute(ctx context.Context, state *State, input *SessionInput) error {
	delta := sessionDelta(state)
	facts := buildDayPrompt(state, delta)
	report := generateReport(ctx, state, n.provider, n.timeout, "Day report", daySystemPrompt, facts)
	if delta != nil {
		report.Trend = delta.Trend
	}

	if n.renderer != nil {
		path, err := n.renderer.Render(Document{
			Title:    "Day report",
			Sections: []Section{{Heading: "Report", Body: report.Body}},
			Metadata: map[string]string{
				"session": state.SessionID,
				"patient": state.PatientID,
				"phase":   string(PhaseRap2),
				"trend":   string(report.Trend),
			},
		})
		if err != nil {
			state.AddError("rap2: render failed: " + err.Error())
		} else {
			report.Path = path
		}
	}

	if _, err := n.memory.AddReport(ctx, &memory.Report{
		PatientID: state.PatientID,
		Kind:      "day",
		Path:      report.Path,
		Summary:   report.Summary,
		Timestamp: report.GeneratedAt,
	}); err != nil {
		return err
	}
	if _, err := n.memory.AddConsultation(ctx, &memory.Consultation{
		PatientID: state.PatientID,
		Phase:     string(PhaseRap2),
		Summary:   report.Summary,
		Timestamp: report.GeneratedAt,
	}); err != nil {
		return err
	}

	state.Rap2Report = report
	state.AddMessage("assistant", report.Summary)
	return nil
}

// generateReport calls the completion provider with a bounded timeout.
// Provider failure degrades to the deterministic template and is recorded
// on the state; the phase still advances.
func generateReport(ctx context.Context, state *State, provider ai.CompletionProvider, timeout time.Duration, title, system, facts string) *Report {
	report := &Report{Title: title, GeneratedAt: time.Now()}

	if provider == nil {
		state.AddWarning(title + ": no completion provider configured")
		report.Body = fallbackReport(title, facts)
		report.Degraded = true
	} else {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		body, err := provider.Complete(callCtx, ai.CompletionRequest{System: system, Prompt: facts})
		if err != nil {
			state.AddError(fmt.Sprintf("%s: completion failed: %v", title, err))
			report.Body = fallbackReport(title, facts)
			report.Degraded = true
		} else {
			report.Body = body
		}
	}

	report.Summary = extractSummary(report.Body)
	return report
}

// sessionDelta compares the night findings against the day findings.
func sessionDelta(state *State) *evolution.Delta {
	if state.Night == nil && state.Day == nil {
		return nil
	}

	night := evolution.Summary{Ref: "night"}
	if state.Night != nil {
		for _, event := range state.Night.Events {
			night.Findings = append(night.Findings, evolution.Finding{Name: event.Name, Severity: event.Severity})
			if event.Severity > night.Severity {
				night.Severity = event.Severity
			}
		}
		night.Metrics = map[string]float64{"sleep_quality": state.Night.SleepQuality}
	}

	day := evolution.Summary{Ref: "day"}
	if state.Day != nil {
		for _, symptom := range state.Day.Symptoms {
			day.Findings = append(day.Findings, evolution.Finding{Name: symptom, Severity: state.Day.Severity})
		}
		day.Severity = state.Day.Severity
	}

	delta := evolution.Compare(night, day)
	return &delta
}

// anchorTime rebases a zero-epoch reading offset onto the session start.
func anchorTime(base time.Time, offset time.Time) time.Time {
	return base.Add(offset.Sub(time.Time{}))
}
