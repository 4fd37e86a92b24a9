package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

func sampleResponse() *model.StructuredDiagnosisResponse {
	return &model.StructuredDiagnosisResponse{
		RequestID:      "req-12345",
		PatientAge:     25,
		PrimarySymptom: model.SymptomVaginalDischarge,
		PossibleDiagnoses: []model.PossibleDiagnosis{
			{Name: "Bacterial vaginosis", ConfidenceScore: 0.8},
			{Name: "Candidiasis", ConfidenceScore: 0.4},
		},
		ClinicalReasoning:          "Discharge characteristics point to bacterial vaginosis.",
		DifferentialConsiderations: []string{"rule out trichomoniasis"},
		SafetyAssessment: model.SafetyAssessment{
			AllergyConsiderations: model.AllergyConsideration{
				AllergicMedications: []string{"penicillin"},
			},
			SafetyWarnings: []string{"avoid alcohol during treatment"},
		},
		RiskAssessment: model.RiskAssessment{
			UrgencyLevel: model.UrgencyModerate,
			RedFlags:     []string{},
		},
		RecommendedInvestigations: []model.Investigation{
			{Name: "Vaginal pH test", Priority: model.PriorityHigh, Reason: "confirm diagnosis"},
		},
		TreatmentRecommendations: model.TreatmentRecommendation{
			PrimaryTreatment: "oral metronidazole",
			SafeMedications: []model.Medication{
				{Name: "Metronidazole", Dosage: "500mg", Frequency: "twice daily", Duration: "7 days"},
			},
			LifestyleModifications: []string{"wear breathable underwear"},
		},
		PatientEducation: []string{"BV is not sexually transmitted"},
		WarningSigns:     []string{"fever above 38C", "worsening pain"},
		ConfidenceScore:  0.8,
		Disclaimer:       "for testing only",
		Timestamp:        time.Date(2025, 7, 21, 6, 3, 52, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	t.Run("produces a PDF document", func(t *testing.T) {
		r := NewRenderer(nil)

		out, err := r.Render(sampleResponse(), "", nil)
		require.NoError(t, err)
		require.NotEmpty(t, out)
		assert.Equal(t, "%PDF", string(out[:4]))
	})

	t.Run("renders with reviewer notes and letterhead", func(t *testing.T) {
		r := NewRenderer(nil)
		lh := &Letterhead{
			Name:    "Tenderly Care Clinic",
			Address: "12 Health St, Mumbai",
		}

		out, err := r.Render(sampleResponse(), "Reviewed, agree with assessment.", lh)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(out[:4]))
	})

	t.Run("handles a minimal response", func(t *testing.T) {
		r := NewRenderer(nil)
		resp := &model.StructuredDiagnosisResponse{
			RequestID:         "req-minimal",
			PossibleDiagnoses: []model.PossibleDiagnosis{{Name: "Unknown"}},
		}

		out, err := r.Render(resp, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(out[:4]))
	})

	t.Run("urgent urgency renders", func(t *testing.T) {
		r := NewRenderer(nil)
		resp := sampleResponse()
		resp.RiskAssessment.UrgencyLevel = model.UrgencyUrgent
		resp.RiskAssessment.RedFlags = []string{"suspected ectopic pregnancy"}

		out, err := r.Render(resp, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(out[:4]))
	})
}
