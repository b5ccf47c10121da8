package workflow

import (
	"strings"

	"github.com/sentinelcare/sentinel/plugin/evolution"
)

// ConsultationMode selects the rule set the day consultation applies.
type ConsultationMode string

const (
	ConsultationGeneral ConsultationMode = "general"
	ConsultationCardio  ConsultationMode = "cardio"
)

// cardioKeywords match symptoms that orient a cardio consultation toward
// the urgent work-up. Substring match, case-insensitive, so partial terms
// like "dyspn" cover spelling variants.
var cardioKeywords = []string{
	"chest pain", "chest_pain", "douleur thoracique",
	"palpitation", "dyspn", "syncope", "oedem", "edema",
	"insuffisance", "heart failure",
}

// ConsultationAnalysis is the deterministic outcome of a day consultation:
// a differential list, an assessed severity, and recommended actions.
type ConsultationAnalysis struct {
	Differential []string
	Severity     evolution.Severity
	Actions      []string
}

// AnalyzeConsultation applies the mode-specific rule set to the reported
// symptoms. With no symptoms the assessment stays empty; a cardio-mode
// consultation with symptoms assesses high severity and the urgent
// cardiology work-up, any other mode falls back to the general work-up at
// medium severity.
func AnalyzeConsultation(mode ConsultationMode, symptoms []string) ConsultationAnalysis {
	analysis := ConsultationAnalysis{Severity: evolution.SeverityNone}
	if len(symptoms) == 0 {
		return analysis
	}

	if mode == ConsultationCardio {
		analysis.Differential = []string{
			"Acute coronary syndrome",
			"Arrhythmia (AF, SVT, VT)",
			"Decompensated heart failure",
			"Pericarditis",
			"Pulmonary embolism",
		}
		analysis.Severity = evolution.SeverityHigh
		analysis.Actions = []string{
			"Urgent 12-lead ECG",
			"Troponin T/I, BNP/NT-proBNP",
			"Electrolytes, CBC, coagulation panel",
			"Chest radiography",
			"Echocardiography if available",
			"Urgent cardiology opinion",
		}
		return analysis
	}

	analysis.Differential = []string{
		"Acute condition to evaluate",
		"Decompensated chronic condition",
		"Infectious syndrome",
		"Functional cause",
	}
	analysis.Severity = evolution.SeverityMedium
	analysis.Actions = []string{
		"Complete clinical examination",
		"Blood panel: CBC, CRP, electrolytes",
		"Imaging if indicated",
		"Reassessment at 24-48h",
	}
	return analysis
}

// hasCardioSymptom reports whether any symptom matches a cardio keyword.
func hasCardioSymptom(symptoms []string) bool {
	for _, symptom := range symptoms {
		lower := strings.ToLower(symptom)
		for _, keyword := range cardioKeywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}
