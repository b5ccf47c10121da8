// Package workflow drives a patient session through the surveillance and
// consultation phases, fusing vitals anomalies with multimodal signals and
// delegating report text to a completion provider.
package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sentinelcare/sentinel/plugin/evolution"
	"github.com/sentinelcare/sentinel/plugin/vitals"
)

// Phase is a stage of the clinical workflow state machine.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseNight     Phase = "NIGHT"
	PhaseRap1      Phase = "RAP1"
	PhaseDay       Phase = "DAY"
	PhaseRap2      Phase = "RAP2"
	PhaseCompleted Phase = "COMPLETED"
	PhaseAborted   Phase = "ABORTED"
)

// SteeringMode is the context-aware posture the assistant adopts for the
// current phase: surveillance during the night, virtual specialist during
// the day consultation, longitudinal analysis while reporting, and triage
// when the consultation assesses an elevated severity.
type SteeringMode string

const (
	ModeNightSurveillance SteeringMode = "night_surveillance"
	ModeSpecialistVirtual SteeringMode = "specialist_virtual"
	ModeTriagePriority    SteeringMode = "triage_priority"
	ModeLongitudinal      SteeringMode = "longitudinal"
)

// steeringFor maps each phase to the mode it runs under. Phases absent
// from the map keep the current mode.
var steeringFor = map[Phase]SteeringMode{
	PhaseNight: ModeNightSurveillance,
	PhaseRap1:  ModeLongitudinal,
	PhaseDay:   ModeSpecialistVirtual,
	PhaseRap2:  ModeLongitudinal,
}

// ErrSessionCompleted is returned on any attempt to mutate a finished
// session. A new session must be created instead.
var ErrSessionCompleted = errors.New("session already completed")

// transitions is the legal phase graph. Linear, no cycles: a completed
// session is never reopened.
var transitions = map[Phase][]Phase{
	PhaseIdle:  {PhaseNight, PhaseAborted},
	PhaseNight: {PhaseRap1, PhaseAborted},
	PhaseRap1:  {PhaseDay, PhaseAborted},
	PhaseDay:   {PhaseRap2, PhaseAborted},
	PhaseRap2:  {PhaseCompleted, PhaseAborted},
}

// Message is one entry of the session's ordered message history.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// NightData is the NIGHT phase payload.
type NightData struct {
	Readings  []vitals.Reading
	Summaries []vitals.Summary
	Events    []FusedEvent

	// AlertsTriggered counts all fused events; CriticalAlerts the subset
	// at critical severity.
	AlertsTriggered int
	CriticalAlerts  int

	// AudioEvents and VisionEvents retain the raw detections that fed
	// the fusion, split by modality.
	AudioEvents  []SignalEvent
	VisionEvents []SignalEvent

	SleepQuality float64
}

// DayData is the DAY phase payload.
type DayData struct {
	// Mode selects the consultation rule set, e.g. "cardio" or "general".
	Mode      ConsultationMode
	Symptoms  []string
	ExamNotes string
	Vitals    []vitals.Reading

	// Analysis outcome.
	Differential []string
	Severity     evolution.Severity
	Actions      []string
}

// Report is a generated clinical document held in a state report slot.
type Report struct {
	Title       string
	Body        string
	Summary     string
	Path        string
	Trend       evolution.Trend
	Degraded    bool
	GeneratedAt time.Time
}

// State carries everything one patient session accumulates. It is mutated
// exclusively by the engine and freezes once the phase reaches COMPLETED.
type State struct {
	SessionID string
	PatientID string
	Phase     Phase
	Mode      SteeringMode

	Night      *NightData
	Day        *DayData
	Rap1Report *Report
	Rap2Report *Report

	// PatientContext is the memory summary snapshot taken at session start.
	PatientContext string

	Messages []Message
	Errors   []string
	Warnings []string
	Metrics  map[string]float64

	StartedAt time.Time
	UpdatedAt time.Time
}

// NewState creates a fresh IDLE session for a patient.
func NewState(patientID string) *State {
	now := time.Now()
	return &State{
		SessionID: uuid.NewString(),
		PatientID: patientID,
		Phase:     PhaseIdle,
		Mode:      ModeNightSurveillance,
		Metrics:   map[string]float64{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Terminal reports whether the session can advance no further.
func (s *State) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseAborted
}

// TransitionTo moves the session to the next phase, enforcing the legal
// transition graph and completed-state immutability.
func (s *State) TransitionTo(next Phase) error {
	if s.Terminal() {
		return errors.Wrapf(ErrSessionCompleted, "session %s", s.SessionID)
	}
	for _, allowed := range transitions[s.Phase] {
		if allowed == next {
			s.Phase = next
			if mode, ok := steeringFor[next]; ok {
				s.Mode = mode
			}
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.Errorf("illegal transition %s -> %s", s.Phase, next)
}

// AddMessage appends to the session history. No-op on a terminal session.
func (s *State) AddMessage(role, content string) {
	if s.Terminal() {
		return
	}
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: time.Now()})
	s.UpdatedAt = time.Now()
}

// AddError records a phase failure that did not halt the session.
func (s *State) AddError(message string) {
	if s.Terminal() {
		return
	}
	s.Errors = append(s.Errors, message)
	s.UpdatedAt = time.Now()
}

// AddWarning records a degraded condition, e.g. missing sensor input.
func (s *State) AddWarning(message string) {
	if s.Terminal() {
		return
	}
	s.Warnings = append(s.Warnings, message)
	s.UpdatedAt = time.Now()
}

// SetMetric records a numeric session metric.
func (s *State) SetMetric(name string, value float64) {
	if s.Terminal() {
		return
	}
	s.Metrics[name] = value
	s.UpdatedAt = time.Now()
}
