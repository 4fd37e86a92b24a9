package model

import (
	"strings"
)

// SeverityLevel grades symptom severity.
type SeverityLevel string

const (
	SeverityNone     SeverityLevel = "none"
	SeverityMild     SeverityLevel = "mild"
	SeverityModerate SeverityLevel = "moderate"
	SeveritySevere   SeverityLevel = "severe"
)

// OnsetType describes how symptoms started.
type OnsetType string

const (
	OnsetSudden  OnsetType = "sudden"
	OnsetGradual OnsetType = "gradual"
	OnsetChronic OnsetType = "chronic"
)

// ProgressionType describes how symptoms evolve over time.
type ProgressionType string

const (
	ProgressionStable      ProgressionType = "stable"
	ProgressionImproving   ProgressionType = "improving"
	ProgressionWorsening   ProgressionType = "worsening"
	ProgressionFluctuating ProgressionType = "fluctuating"
)

// DiagnosisRequest is the simple free-text diagnosis request form.
type DiagnosisRequest struct {
	Symptoms      []string        `json:"symptoms" validate:"required,min=1,max=3,dive,min=2,max=100"`
	PatientAge    int             `json:"patient_age" validate:"required,gte=12,lte=100"`
	SeverityLevel SeverityLevel   `json:"severity_level" validate:"omitempty,oneof=mild moderate severe"`
	Duration      string          `json:"duration" validate:"required,min=1,max=50"`
	Onset         OnsetType       `json:"onset,omitempty" validate:"omitempty,oneof=sudden gradual chronic"`
	Progression   ProgressionType `json:"progression,omitempty" validate:"omitempty,oneof=stable improving worsening fluctuating"`
}

// Normalize trims and lower-cases free-text fields. Length constraints apply
// to the normalized values, so this must run before Validate.
func (r *DiagnosisRequest) Normalize() {
	cleaned := make([]string, 0, len(r.Symptoms))
	for _, s := range r.Symptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	r.Symptoms = cleaned
	r.Duration = strings.ToLower(strings.TrimSpace(r.Duration))
	if r.SeverityLevel == "" {
		r.SeverityLevel = SeverityModerate
	}
}

// Validate normalizes the request and returns every violated constraint.
func (r *DiagnosisRequest) Validate() error {
	r.Normalize()

	var errs ValidationErrors
	collectStructErrors(validate.Struct(r), &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SymptomValidationRequest carries free-text symptoms for the validation-only
// endpoint. No diagnosis is generated.
type SymptomValidationRequest struct {
	Symptoms []string `json:"symptoms" validate:"required,min=1,max=20"`
}

// SymptomValidationResult partitions submitted symptoms into valid and
// invalid entries.
type SymptomValidationResult struct {
	ValidSymptoms   []string `json:"valid_symptoms"`
	InvalidSymptoms []string `json:"invalid_symptoms"`
	TotalSymptoms   int      `json:"total_symptoms"`
	ValidCount      int      `json:"valid_count"`
	InvalidCount    int      `json:"invalid_count"`
}

// PartitionSymptoms applies the same normalization rules as the diagnosis
// request and splits the input into valid and invalid symptoms.
func PartitionSymptoms(symptoms []string) SymptomValidationResult {
	res := SymptomValidationResult{
		ValidSymptoms:   []string{},
		InvalidSymptoms: []string{},
		TotalSymptoms:   len(symptoms),
	}
	for _, s := range symptoms {
		cleaned := strings.ToLower(strings.TrimSpace(s))
		if len(cleaned) >= 2 && len(cleaned) <= 100 {
			res.ValidSymptoms = append(res.ValidSymptoms, cleaned)
		} else {
			res.InvalidSymptoms = append(res.InvalidSymptoms, s)
		}
	}
	res.ValidCount = len(res.ValidSymptoms)
	res.InvalidCount = len(res.InvalidSymptoms)
	return res
}
