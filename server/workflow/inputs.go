package workflow

import "time"

// SignalKind names a non-vitals sensing modality.
type SignalKind string

const (
	SignalAudio  SignalKind = "audio"
	SignalVision SignalKind = "vision"
)

// SignalEvent is a discrete audio or vision detection used only for the
// severity promotion rule during fusion.
type SignalEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	Kind       SignalKind `json:"kind"`
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
}

// SessionInput carries everything the phases of one session consume.
type SessionInput struct {
	PatientID string

	// VitalLines are raw recorder lines for the NIGHT phase.
	VitalLines []string
	// Signals are audio and vision detections overlapping the night.
	Signals []SignalEvent

	// ConsultationMode selects the DAY rule set. Empty resolves to
	// "cardio" when a symptom matches a cardio keyword, else "general".
	ConsultationMode ConsultationMode
	// Symptoms and ExamNotes feed the DAY consultation.
	Symptoms  []string
	ExamNotes string
	// DayVitalLines are raw recorder lines taken during the consultation.
	DayVitalLines []string
}
