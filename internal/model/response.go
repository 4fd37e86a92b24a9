package model

import (
	"time"
)

// PriorityLevel ranks recommended investigations.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

// UrgencyLevel is the ordinal triage classification for a case.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyModerate UrgencyLevel = "moderate"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyUrgent   UrgencyLevel = "urgent"
)

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes,omitempty"`
}

type Investigation struct {
	Name     string        `json:"name"`
	Priority PriorityLevel `json:"priority"`
	Reason   string        `json:"reason"`
}

type PossibleDiagnosis struct {
	Name            string  `json:"name"`
	ConfidenceScore float64 `json:"confidence_score"`
	Description     string  `json:"description,omitempty"`
}

// DiagnosisResponse answers the simple diagnosis form.
type DiagnosisResponse struct {
	Diagnosis                string          `json:"diagnosis"`
	ConfidenceScore          float64         `json:"confidence_score"`
	SuggestedInvestigations  []Investigation `json:"suggested_investigations"`
	RecommendedMedications   []Medication    `json:"recommended_medications"`
	LifestyleAdvice          []string        `json:"lifestyle_advice"`
	FollowUpRecommendations  string          `json:"follow_up_recommendations"`
	Disclaimer               string          `json:"disclaimer"`
	Timestamp                time.Time       `json:"timestamp"`
}

type AllergyConsideration struct {
	AllergicMedications  []string `json:"allergic_medications"`
	SafeAlternatives     []string `json:"safe_alternatives"`
	ContraindicatedDrugs []string `json:"contraindicated_drugs"`
}

type SafetyAssessment struct {
	AllergyConsiderations AllergyConsideration `json:"allergy_considerations"`
	ConditionInteractions []string             `json:"condition_interactions"`
	SafetyWarnings        []string             `json:"safety_warnings"`
}

type RiskAssessment struct {
	UrgencyLevel            UrgencyLevel `json:"urgency_level"`
	RedFlags                []string     `json:"red_flags"`
	WhenToSeekEmergencyCare []string     `json:"when_to_seek_emergency_care"`
}

type TreatmentRecommendation struct {
	PrimaryTreatment       string       `json:"primary_treatment,omitempty"`
	SafeMedications        []Medication `json:"safe_medications"`
	LifestyleModifications []string     `json:"lifestyle_modifications"`
	DietaryAdvice          []string     `json:"dietary_advice"`
	FollowUpTimeline       string       `json:"follow_up_timeline"`
}

// StructuredDiagnosisResponse answers the structured intake form.
type StructuredDiagnosisResponse struct {
	RequestID      string      `json:"request_id"`
	PatientAge     int         `json:"patient_age"`
	PrimarySymptom MainSymptom `json:"primary_symptom"`

	PossibleDiagnoses          []PossibleDiagnosis `json:"possible_diagnoses"`
	ClinicalReasoning          string              `json:"clinical_reasoning"`
	DifferentialConsiderations []string            `json:"differential_considerations"`

	SafetyAssessment SafetyAssessment `json:"safety_assessment"`
	RiskAssessment   RiskAssessment   `json:"risk_assessment"`

	RecommendedInvestigations []Investigation         `json:"recommended_investigations"`
	TreatmentRecommendations  TreatmentRecommendation `json:"treatment_recommendations"`

	PatientEducation []string `json:"patient_education"`
	WarningSigns     []string `json:"warning_signs"`

	ConfidenceScore float64   `json:"confidence_score"`
	ProcessingNotes []string  `json:"processing_notes"`
	Disclaimer      string    `json:"disclaimer"`
	Timestamp       time.Time `json:"timestamp"`
}

// HealthCheckResponse reports overall and per-dependency status.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// ClampConfidence bounds a model-reported confidence to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
