package memory

import (
	"time"

	"github.com/sentinelcare/sentinel/store"
)

// PatientProfile is the admission-time description of a patient.
type PatientProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	Room        string   `json:"room"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
	Allergies   []string `json:"allergies"`
	RiskFactors []string `json:"riskFactors"`
}

// ClinicalEvent is a timestamped observation attached to a patient.
type ClinicalEvent struct {
	ID          string
	PatientID   string
	Name        string
	Description string
	Severity    string
	Timestamp   time.Time
	// Source names the producing subsystem, e.g. vitals, audio, vision.
	Source string
}

// Consultation is one workflow phase outcome recorded against a patient.
type Consultation struct {
	ID        string
	PatientID string
	Phase     string
	Summary   string
	Timestamp time.Time
}

// Report is a rendered clinical document reference.
type Report struct {
	ID        string
	PatientID string
	Kind      string
	Path      string
	Summary   string
	Timestamp time.Time
}

// ContextBundle is everything a reasoning step needs about one patient.
type ContextBundle struct {
	Patient      *store.Node
	Conditions   []*store.Node
	Medications  []*store.Node
	Allergies    []*store.Node
	RiskFactors  []*store.Node
	Room         *store.Node
	RecentEvents []*store.Node
}
