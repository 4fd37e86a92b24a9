// Package diagnosis implements the request-to-prompt-to-validated-response
// pipeline: prompt construction, the LLM provider call, and mapping of the
// provider's JSON back onto response objects.
package diagnosis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/tenderly-care/diagnosis-api/internal/model"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
)

// maxPossibleDiagnoses bounds the structured differential list regardless of
// how many entries the provider returns.
const maxPossibleDiagnoses = 3

// LLMClient is the upstream provider treated as a black-box prompt-to-JSON
// function.
type LLMClient interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Archive persists structured responses so reports can be fetched later.
type Archive interface {
	Save(ctx context.Context, resp *model.StructuredDiagnosisResponse) error
}

// Notifier is called for cases that come back with urgent risk.
type Notifier interface {
	NotifyUrgent(ctx context.Context, resp *model.StructuredDiagnosisResponse) error
}

// Service orchestrates diagnosis generation. It holds no mutable state; all
// collaborators are injected and shared across requests.
type Service struct {
	llm        LLMClient
	archive    Archive
	notifier   Notifier
	disclaimer string
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(llm LLMClient, archive Archive, notifier Notifier, disclaimer string, logger zerolog.Logger) *Service {
	return &Service{
		llm:        llm,
		archive:    archive,
		notifier:   notifier,
		disclaimer: disclaimer,
		logger:     logger,
		now:        time.Now,
	}
}

// simplePayload mirrors the JSON shape the simple system prompt demands.
type simplePayload struct {
	Diagnosis               string                    `json:"diagnosis"`
	ConfidenceScore         float64                   `json:"confidence_score"`
	SuggestedInvestigations []model.Investigation     `json:"suggested_investigations"`
	RecommendedMedications  []model.Medication        `json:"recommended_medications"`
	LifestyleAdvice         []string                  `json:"lifestyle_advice"`
	FollowUpRecommendations string                    `json:"follow_up_recommendations"`
}

// structuredPayload mirrors the JSON shape the structured system prompt
// demands.
type structuredPayload struct {
	PossibleDiagnoses          []model.PossibleDiagnosis     `json:"possible_diagnoses"`
	ClinicalReasoning          string                        `json:"clinical_reasoning"`
	DifferentialConsiderations []string                      `json:"differential_considerations"`
	SafetyAssessment           model.SafetyAssessment        `json:"safety_assessment"`
	RiskAssessment             model.RiskAssessment          `json:"risk_assessment"`
	RecommendedInvestigations  []model.Investigation         `json:"recommended_investigations"`
	TreatmentRecommendations   model.TreatmentRecommendation `json:"treatment_recommendations"`
	PatientEducation           []string                      `json:"patient_education"`
	WarningSigns               []string                      `json:"warning_signs"`
	ConfidenceScore            float64                       `json:"confidence_score"`
	ProcessingNotes            []string                      `json:"processing_notes"`
}

// Generate runs the simple diagnosis pipeline for a validated request.
func (s *Service) Generate(ctx context.Context, req *model.DiagnosisRequest) (*model.DiagnosisResponse, error) {
	content, err := s.llm.GenerateJSON(ctx, simpleSystemPrompt, buildSimplePrompt(req))
	if err != nil {
		return nil, err
	}

	var payload simplePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, apperrors.NewUpstream("invalid JSON response from AI service", err)
	}

	resp := &model.DiagnosisResponse{
		Diagnosis:               payload.Diagnosis,
		ConfidenceScore:         model.ClampConfidence(payload.ConfidenceScore),
		SuggestedInvestigations: orEmptyInvestigations(payload.SuggestedInvestigations),
		RecommendedMedications:  orEmptyMedications(payload.RecommendedMedications),
		LifestyleAdvice:         orEmptyStrings(payload.LifestyleAdvice),
		FollowUpRecommendations: payload.FollowUpRecommendations,
		Disclaimer:              s.disclaimer,
		Timestamp:               s.now().UTC(),
	}
	if resp.Diagnosis == "" {
		resp.Diagnosis = "Unknown"
		resp.ConfidenceScore = 0.0
	}

	s.logger.Info().
		Str("diagnosis", resp.Diagnosis).
		Float64("confidence_score", resp.ConfidenceScore).
		Msg("diagnosis generated")
	return resp, nil
}

// GenerateStructured runs the structured diagnosis pipeline: prompt, LLM
// call, response mapping, archival, and urgent-case escalation.
func (s *Service) GenerateStructured(ctx context.Context, req *model.StructuredDiagnosisRequest) (*model.StructuredDiagnosisResponse, error) {
	content, err := s.llm.GenerateJSON(ctx, structuredSystemPrompt, buildStructuredPrompt(req))
	if err != nil {
		return nil, err
	}

	var payload structuredPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, apperrors.NewUpstream("invalid JSON response from AI service", err)
	}

	resp := &model.StructuredDiagnosisResponse{
		RequestID:                  req.PatientProfile.RequestID,
		PatientAge:                 req.PatientProfile.Age,
		PrimarySymptom:             req.PrimaryComplaint.MainSymptom,
		PossibleDiagnoses:          payload.PossibleDiagnoses,
		ClinicalReasoning:          payload.ClinicalReasoning,
		DifferentialConsiderations: orEmptyStrings(payload.DifferentialConsiderations),
		SafetyAssessment:           normalizeSafety(payload.SafetyAssessment),
		RiskAssessment:             normalizeRisk(payload.RiskAssessment),
		RecommendedInvestigations:  orEmptyInvestigations(payload.RecommendedInvestigations),
		TreatmentRecommendations:   normalizeTreatment(payload.TreatmentRecommendations),
		PatientEducation:           orEmptyStrings(payload.PatientEducation),
		WarningSigns:               orEmptyStrings(payload.WarningSigns),
		ConfidenceScore:            model.ClampConfidence(payload.ConfidenceScore),
		ProcessingNotes:            orEmptyStrings(payload.ProcessingNotes),
		Disclaimer:                 s.disclaimer,
		Timestamp:                  s.now().UTC(),
	}

	if len(resp.PossibleDiagnoses) == 0 {
		resp.PossibleDiagnoses = []model.PossibleDiagnosis{{Name: "Unknown", ConfidenceScore: 0.0}}
		resp.ConfidenceScore = 0.0
	}
	// The prompt orders diagnoses most likely first; overflow beyond the
	// contract limit is dropped from the tail.
	if len(resp.PossibleDiagnoses) > maxPossibleDiagnoses {
		resp.PossibleDiagnoses = resp.PossibleDiagnoses[:maxPossibleDiagnoses]
	}
	for i := range resp.PossibleDiagnoses {
		resp.PossibleDiagnoses[i].ConfidenceScore = model.ClampConfidence(resp.PossibleDiagnoses[i].ConfidenceScore)
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, resp); err != nil {
			// Archival is best-effort; the response is still returned.
			s.logger.Error().Err(err).Str("request_id", resp.RequestID).Msg("failed to archive diagnosis")
		}
	}

	if s.notifier != nil && resp.RiskAssessment.UrgencyLevel == model.UrgencyUrgent {
		if err := s.notifier.NotifyUrgent(ctx, resp); err != nil {
			s.logger.Error().Err(err).Str("request_id", resp.RequestID).Msg("urgent escalation failed")
		}
	}

	s.logger.Info().
		Str("request_id", resp.RequestID).
		Str("primary_diagnosis", resp.PossibleDiagnoses[0].Name).
		Float64("confidence_score", resp.ConfidenceScore).
		Str("urgency", string(resp.RiskAssessment.UrgencyLevel)).
		Msg("structured diagnosis generated")
	return resp, nil
}

func normalizeSafety(sa model.SafetyAssessment) model.SafetyAssessment {
	sa.AllergyConsiderations.AllergicMedications = orEmptyStrings(sa.AllergyConsiderations.AllergicMedications)
	sa.AllergyConsiderations.SafeAlternatives = orEmptyStrings(sa.AllergyConsiderations.SafeAlternatives)
	sa.AllergyConsiderations.ContraindicatedDrugs = orEmptyStrings(sa.AllergyConsiderations.ContraindicatedDrugs)
	sa.ConditionInteractions = orEmptyStrings(sa.ConditionInteractions)
	sa.SafetyWarnings = orEmptyStrings(sa.SafetyWarnings)
	return sa
}

func normalizeRisk(ra model.RiskAssessment) model.RiskAssessment {
	if ra.UrgencyLevel == "" {
		ra.UrgencyLevel = model.UrgencyLow
	}
	ra.RedFlags = orEmptyStrings(ra.RedFlags)
	ra.WhenToSeekEmergencyCare = orEmptyStrings(ra.WhenToSeekEmergencyCare)
	return ra
}

func normalizeTreatment(tr model.TreatmentRecommendation) model.TreatmentRecommendation {
	tr.SafeMedications = orEmptyMedications(tr.SafeMedications)
	tr.LifestyleModifications = orEmptyStrings(tr.LifestyleModifications)
	tr.DietaryAdvice = orEmptyStrings(tr.DietaryAdvice)
	return tr
}

func orEmptyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func orEmptyInvestigations(in []model.Investigation) []model.Investigation {
	if in == nil {
		return []model.Investigation{}
	}
	return in
}

func orEmptyMedications(in []model.Medication) []model.Medication {
	if in == nil {
		return []model.Medication{}
	}
	return in
}
