package diagnosis

import (
	"fmt"
	"strings"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

// The system prompts pin down the role, safety rules, and the exact JSON
// shape the model must return. The downstream model has been tuned against
// this wording and the user-message section ordering; change neither lightly.

const simpleSystemPrompt = `You are a specialized AI assistant for gynecological diagnosis.

Your task is to analyze patient symptoms and provide a structured diagnosis response.

IMPORTANT GUIDELINES:
1. Focus only on gynecological conditions
2. Provide evidence-based recommendations
3. Always include appropriate disclaimers
4. Suggest follow-up with healthcare providers
5. Be conservative with medication recommendations
6. Consider patient age and medical history

RESPONSE FORMAT:
You must respond with a valid JSON object containing:
{
    "diagnosis": "Primary diagnosis name",
    "confidence_score": 0.85,
    "suggested_investigations": [
        {"name": "Investigation name", "priority": "low/medium/high", "reason": "Reason for investigation"}
    ],
    "recommended_medications": [
        {"name": "Medication name", "dosage": "Dosage amount", "frequency": "How often", "duration": "Treatment duration", "reason": "Reason for prescribing", "notes": "Additional notes"}
    ],
    "lifestyle_advice": ["Lifestyle recommendation 1", "Lifestyle recommendation 2"],
    "follow_up_recommendations": "Follow-up guidance"
}

CONFIDENCE SCORING:
- 0.9-1.0: Very high confidence (clear, classic presentation)
- 0.7-0.89: High confidence (typical presentation)
- 0.5-0.69: Moderate confidence (some uncertainty)
- 0.3-0.49: Low confidence (multiple possibilities)
- 0.1-0.29: Very low confidence (insufficient information)

MEDICATION SAFETY:
- Only suggest FDA-approved medications
- Include appropriate warnings
- Consider drug interactions
- Recommend consulting healthcare provider

Remember: This is an AI-generated diagnosis and should complement, not replace, professional medical evaluation.`

const structuredSystemPrompt = `You are a specialized AI assistant for gynecological diagnosis working from a structured patient intake.

Your task is to analyze the complete structured patient data and provide a comprehensive diagnosis with explicit safety reasoning.

IMPORTANT GUIDELINES:
1. Focus only on gynecological conditions
2. Never recommend any medication the patient is allergic to; propose safe alternatives instead
3. Weigh reproductive history, existing conditions, and family history in your reasoning
4. Assign an urgency level honestly; escalate on red-flag findings
5. Be conservative with medication recommendations

RESPONSE FORMAT:
You must respond with a valid JSON object containing:
{
    "possible_diagnoses": [
        {"name": "Diagnosis name", "confidence_score": 0.85, "description": "Brief description"}
    ],
    "clinical_reasoning": "Reasoning behind the leading diagnosis",
    "differential_considerations": ["Consideration 1"],
    "safety_assessment": {
        "allergy_considerations": {
            "allergic_medications": [], "safe_alternatives": [], "contraindicated_drugs": []
        },
        "condition_interactions": [], "safety_warnings": []
    },
    "risk_assessment": {
        "urgency_level": "low/moderate/high/urgent",
        "red_flags": [], "when_to_seek_emergency_care": []
    },
    "recommended_investigations": [
        {"name": "Investigation name", "priority": "low/medium/high", "reason": "Reason"}
    ],
    "treatment_recommendations": {
        "primary_treatment": "Primary treatment",
        "safe_medications": [
            {"name": "", "dosage": "", "frequency": "", "duration": "", "reason": "", "notes": ""}
        ],
        "lifestyle_modifications": [], "dietary_advice": [],
        "follow_up_timeline": "Follow-up timeline"
    },
    "patient_education": [], "warning_signs": [],
    "confidence_score": 0.85,
    "processing_notes": []
}

List between 1 and 3 possible diagnoses, most likely first. Confidence scores are values in [0, 1].

Remember: This is an AI-generated diagnosis and should complement, not replace, professional medical evaluation.`

// buildSimplePrompt renders a validated simple request into the user message.
func buildSimplePrompt(req *model.DiagnosisRequest) string {
	var b strings.Builder
	b.WriteString("Patient Information:\n")
	fmt.Fprintf(&b, "- Age: %d years\n", req.PatientAge)
	fmt.Fprintf(&b, "- Symptoms: %s\n", strings.Join(req.Symptoms, ", "))
	fmt.Fprintf(&b, "- Severity: %s\n", req.SeverityLevel)
	fmt.Fprintf(&b, "- Duration: %s\n", req.Duration)
	if req.Onset != "" {
		fmt.Fprintf(&b, "- Onset: %s\n", req.Onset)
	}
	if req.Progression != "" {
		fmt.Fprintf(&b, "- Progression: %s\n", req.Progression)
	}
	b.WriteString("\nPlease provide a gynecological diagnosis based on the above information.\n")
	b.WriteString("Focus on common gynecological conditions that match the symptoms.\n")
	b.WriteString("Provide specific, actionable recommendations for treatment and follow-up.")
	return b.String()
}

// buildStructuredPrompt flattens a validated structured request into labeled
// lines. Section order is fixed: patient profile, primary complaint,
// symptom-specific details, reproductive history, associated symptoms,
// medical context, healthcare interaction, patient concerns, closing
// instructions. Absent optional fields are omitted.
func buildStructuredPrompt(req *model.StructuredDiagnosisRequest) string {
	var b strings.Builder

	b.WriteString("PATIENT PROFILE:\n")
	fmt.Fprintf(&b, "- Age: %d years\n", req.PatientProfile.Age)
	fmt.Fprintf(&b, "- Request ID: %s\n", req.PatientProfile.RequestID)

	b.WriteString("\nPRIMARY COMPLAINT:\n")
	fmt.Fprintf(&b, "- Main symptom: %s\n", symptomLabel(req.PrimaryComplaint.MainSymptom))
	fmt.Fprintf(&b, "- Duration: %s\n", req.PrimaryComplaint.Duration)
	fmt.Fprintf(&b, "- Severity: %s\n", req.PrimaryComplaint.Severity)
	fmt.Fprintf(&b, "- Onset: %s\n", req.PrimaryComplaint.Onset)
	fmt.Fprintf(&b, "- Progression: %s\n", req.PrimaryComplaint.Progression)

	writeSymptomDetails(&b, &req.SymptomSpecificDetails)
	writeReproductiveHistory(&b, &req.ReproductiveHistory)
	writeAssociatedSymptoms(&b, &req.AssociatedSymptoms)
	writeMedicalContext(&b, &req.MedicalContext)
	writeHealthcareInteraction(&b, &req.HealthcareInteraction)

	b.WriteString("\nPATIENT CONCERNS:\n")
	fmt.Fprintf(&b, "- Main worry: %s\n", req.PatientConcerns.MainWorry)
	fmt.Fprintf(&b, "- Impact on life: %s\n", req.PatientConcerns.ImpactOnLife)
	if req.PatientConcerns.AdditionalNotes != "" {
		fmt.Fprintf(&b, "- Additional notes: %s\n", req.PatientConcerns.AdditionalNotes)
	}

	b.WriteString("\nAnalyze the structured patient data above and provide a comprehensive gynecological diagnosis.\n")
	b.WriteString("Respect all listed drug allergies when recommending treatment.\n")
	b.WriteString("Respond with the JSON object described in your instructions.")
	return b.String()
}

func writeSymptomDetails(b *strings.Builder, d *model.SymptomSpecificDetails) {
	if d.DischargeCharacteristics == nil && d.BleedingPattern == nil && d.CycleContext == nil {
		return
	}
	b.WriteString("\nSYMPTOM-SPECIFIC DETAILS:\n")
	if dc := d.DischargeCharacteristics; dc != nil {
		fmt.Fprintf(b, "- Discharge color: %s\n", dc.Color)
		fmt.Fprintf(b, "- Discharge consistency: %s\n", dc.Consistency)
		fmt.Fprintf(b, "- Discharge odor: %s\n", dc.Odor)
		fmt.Fprintf(b, "- Associated itching: %s\n", dc.AssociatedItching)
	}
	if bp := d.BleedingPattern; bp != nil {
		fmt.Fprintf(b, "- Flow volume: %s\n", bp.FlowVolume)
		fmt.Fprintf(b, "- Clots present: %t\n", bp.ClotsPresent)
		fmt.Fprintf(b, "- Bleeding between periods: %t\n", bp.Intermenstrual)
		if bp.DurationDays > 0 {
			fmt.Fprintf(b, "- Bleeding duration: %d days\n", bp.DurationDays)
		}
		if bp.PadsPerDay > 0 {
			fmt.Fprintf(b, "- Pads per day: %d\n", bp.PadsPerDay)
		}
	}
	if cc := d.CycleContext; cc != nil {
		if cc.LastPeriodDate != "" {
			fmt.Fprintf(b, "- Last period date: %s\n", cc.LastPeriodDate)
		}
		if cc.CycleDay > 0 {
			fmt.Fprintf(b, "- Cycle day: %d\n", cc.CycleDay)
		}
		if cc.RecentCycleChanges != "" {
			fmt.Fprintf(b, "- Recent cycle changes: %s\n", cc.RecentCycleChanges)
		}
	}
}

func writeReproductiveHistory(b *strings.Builder, h *model.ReproductiveHistory) {
	b.WriteString("\nREPRODUCTIVE HISTORY:\n")
	fmt.Fprintf(b, "- Could be pregnant: %t\n", h.PregnancyStatus.CouldBePregnant)
	if h.PregnancyStatus.PregnancyTestResult != "" {
		fmt.Fprintf(b, "- Pregnancy test result: %s\n", h.PregnancyStatus.PregnancyTestResult)
	}
	fmt.Fprintf(b, "- Sexually active: %t\n", h.SexualActivity.SexuallyActive)
	if h.SexualActivity.ContraceptionMethod != "" {
		fmt.Fprintf(b, "- Contraception method: %s\n", h.SexualActivity.ContraceptionMethod)
	}
	fmt.Fprintf(b, "- Menarche age: %d\n", h.MenstrualHistory.MenarcheAge)
	fmt.Fprintf(b, "- Cycle frequency: %d days\n", h.MenstrualHistory.CycleFrequency)
	fmt.Fprintf(b, "- Period duration: %d days\n", h.MenstrualHistory.PeriodDuration)
	if h.MenstrualHistory.FlowVolume != "" {
		fmt.Fprintf(b, "- Flow volume: %s\n", h.MenstrualHistory.FlowVolume)
	}
	if h.MenstrualHistory.Dysmenorrhea != "" {
		fmt.Fprintf(b, "- Painful periods: %s\n", h.MenstrualHistory.Dysmenorrhea)
	}
}

func writeAssociatedSymptoms(b *strings.Builder, s *model.AssociatedSymptoms) {
	b.WriteString("\nASSOCIATED SYMPTOMS:\n")
	fmt.Fprintf(b, "- Pelvic pain: %s\n", s.Pain.PelvicPain)
	if s.Pain.BackPain != "" {
		fmt.Fprintf(b, "- Back pain: %s\n", s.Pain.BackPain)
	}
	if s.Pain.Cramping != "" {
		fmt.Fprintf(b, "- Cramping: %s\n", s.Pain.Cramping)
	}
	if s.Pain.VulvarIrritation != "" {
		fmt.Fprintf(b, "- Vulvar irritation: %s\n", s.Pain.VulvarIrritation)
	}
	fmt.Fprintf(b, "- Fatigue: %s\n", s.Systemic.Fatigue)
	if s.Systemic.Dizziness != "" {
		fmt.Fprintf(b, "- Dizziness: %s\n", s.Systemic.Dizziness)
	}
	fmt.Fprintf(b, "- Nausea: %t\n", s.Systemic.Nausea)
	fmt.Fprintf(b, "- Fever: %t\n", s.Systemic.Fever)
	if s.Systemic.WeightChange != "" {
		fmt.Fprintf(b, "- Weight change: %s\n", s.Systemic.WeightChange)
	}
}

func writeMedicalContext(b *strings.Builder, m *model.MedicalContext) {
	b.WriteString("\nMEDICAL CONTEXT:\n")
	writeList(b, "Current medications", m.CurrentMedications)
	writeList(b, "Recent medications", m.RecentMedications)
	writeList(b, "Medical conditions", m.MedicalConditions)
	writeList(b, "Previous gynecological issues", m.PreviousGynecologicalIssues)
	writeList(b, "Drug allergies", m.Allergies)
	writeList(b, "Family history", m.FamilyHistory)
}

func writeHealthcareInteraction(b *strings.Builder, h *model.HealthcareInteraction) {
	b.WriteString("\nHEALTHCARE INTERACTION:\n")
	fmt.Fprintf(b, "- Previous consultation: %t\n", h.PreviousConsultation)
	if h.ConsultationOutcome != "" {
		fmt.Fprintf(b, "- Consultation outcome: %s\n", h.ConsultationOutcome)
	}
	fmt.Fprintf(b, "- Investigations done: %t\n", h.InvestigationsDone)
	if h.InvestigationResults != "" {
		fmt.Fprintf(b, "- Investigation results: %s\n", h.InvestigationResults)
	}
	if h.CurrentTreatment != "" {
		fmt.Fprintf(b, "- Current treatment: %s\n", h.CurrentTreatment)
	}
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "- %s: none\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, ", "))
}

func symptomLabel(s model.MainSymptom) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
