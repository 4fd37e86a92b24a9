package model

import (
	"strings"
	"time"
)

// MainSymptom is the closed set of primary complaints the service accepts.
type MainSymptom string

const (
	SymptomExcessiveBleeding MainSymptom = "excessive_vaginal_bleeding"
	SymptomVaginalDischarge  MainSymptom = "vaginal_discharge"
	SymptomPelvicPain        MainSymptom = "pelvic_pain"
	SymptomMissedPeriod      MainSymptom = "missed_period"
	SymptomPainfulPeriods    MainSymptom = "painful_periods"
)

type PatientProfile struct {
	Age       int    `json:"age" validate:"required,gte=10,lte=100"`
	RequestID string `json:"request_id" validate:"required,min=3"`
	Timestamp string `json:"timestamp" validate:"required"`
}

type PrimaryComplaint struct {
	MainSymptom MainSymptom     `json:"main_symptom" validate:"required,oneof=excessive_vaginal_bleeding vaginal_discharge pelvic_pain missed_period painful_periods"`
	Duration    string          `json:"duration" validate:"required,max=50"`
	Severity    SeverityLevel   `json:"severity" validate:"required,oneof=none mild moderate severe"`
	Onset       OnsetType       `json:"onset" validate:"required,oneof=sudden gradual chronic"`
	Progression ProgressionType `json:"progression" validate:"required,oneof=stable improving worsening fluctuating"`
}

type DischargeCharacteristics struct {
	Color              string        `json:"color" validate:"required"`
	Consistency        string        `json:"consistency" validate:"required"`
	Odor               string        `json:"odor" validate:"required"`
	AssociatedItching  SeverityLevel `json:"associated_itching" validate:"required,oneof=none mild moderate severe"`
}

type BleedingPattern struct {
	FlowVolume       string `json:"flow_volume" validate:"required"`
	ClotsPresent     bool   `json:"clots_present"`
	Intermenstrual   bool   `json:"intermenstrual"`
	DurationDays     int    `json:"duration_days" validate:"omitempty,gte=1,lte=60"`
	PadsPerDay       int    `json:"pads_per_day" validate:"omitempty,gte=1,lte=30"`
}

type CycleContext struct {
	LastPeriodDate     string `json:"last_period_date,omitempty"`
	CycleDay           int    `json:"cycle_day,omitempty" validate:"omitempty,gte=1,lte=60"`
	RecentCycleChanges string `json:"recent_cycle_changes,omitempty"`
}

// SymptomSpecificDetails is a tagged union keyed by the primary complaint's
// main symptom: discharge symptoms require DischargeCharacteristics, bleeding
// symptoms require BleedingPattern. CycleContext is optional for the rest.
type SymptomSpecificDetails struct {
	DischargeCharacteristics *DischargeCharacteristics `json:"discharge_characteristics,omitempty"`
	BleedingPattern          *BleedingPattern          `json:"bleeding_pattern,omitempty"`
	CycleContext             *CycleContext             `json:"cycle_context,omitempty"`
}

type PregnancyStatus struct {
	CouldBePregnant     bool   `json:"could_be_pregnant"`
	PregnancyTestResult string `json:"pregnancy_test_result,omitempty"`
	TestDate            string `json:"test_date,omitempty"`
}

type SexualActivity struct {
	SexuallyActive      bool   `json:"sexually_active"`
	LastIntercourse     string `json:"last_intercourse,omitempty"`
	ContraceptionMethod string `json:"contraception_method,omitempty"`
}

type MenstrualHistory struct {
	MenarcheAge    int           `json:"menarche_age" validate:"required,gte=8,lte=18"`
	CycleFrequency int           `json:"cycle_frequency" validate:"required,gte=21,lte=35"`
	PeriodDuration int           `json:"period_duration" validate:"required,gte=2,lte=10"`
	FlowVolume     string        `json:"flow_volume,omitempty"`
	Dysmenorrhea   SeverityLevel `json:"dysmenorrhea,omitempty" validate:"omitempty,oneof=none mild moderate severe"`
}

type ReproductiveHistory struct {
	PregnancyStatus  PregnancyStatus  `json:"pregnancy_status"`
	SexualActivity   SexualActivity   `json:"sexual_activity"`
	MenstrualHistory MenstrualHistory `json:"menstrual_history"`
}

type PainSymptoms struct {
	PelvicPain       SeverityLevel `json:"pelvic_pain" validate:"required,oneof=none mild moderate severe"`
	BackPain         SeverityLevel `json:"back_pain,omitempty" validate:"omitempty,oneof=none mild moderate severe"`
	Cramping         SeverityLevel `json:"cramping,omitempty" validate:"omitempty,oneof=none mild moderate severe"`
	PainTiming       string        `json:"pain_timing,omitempty"`
	VulvarIrritation SeverityLevel `json:"vulvar_irritation,omitempty" validate:"omitempty,oneof=none mild moderate severe"`
}

type SystemicSymptoms struct {
	Fatigue      SeverityLevel `json:"fatigue" validate:"required,oneof=none mild moderate severe"`
	Dizziness    SeverityLevel `json:"dizziness,omitempty" validate:"omitempty,oneof=none mild moderate severe"`
	Nausea       bool          `json:"nausea"`
	Fever        bool          `json:"fever"`
	WeightChange string        `json:"weight_change,omitempty"`
}

type AssociatedSymptoms struct {
	Pain     PainSymptoms     `json:"pain"`
	Systemic SystemicSymptoms `json:"systemic"`
}

type MedicalContext struct {
	CurrentMedications          []string `json:"current_medications"`
	RecentMedications           []string `json:"recent_medications"`
	MedicalConditions           []string `json:"medical_conditions"`
	PreviousGynecologicalIssues []string `json:"previous_gynecological_issues"`
	Allergies                   []string `json:"allergies"`
	FamilyHistory               []string `json:"family_history"`
}

type HealthcareInteraction struct {
	PreviousConsultation bool   `json:"previous_consultation"`
	ConsultationOutcome  string `json:"consultation_outcome,omitempty"`
	InvestigationsDone   bool   `json:"investigations_done"`
	InvestigationResults string `json:"investigation_results,omitempty"`
	CurrentTreatment     string `json:"current_treatment,omitempty"`
}

type PatientConcerns struct {
	MainWorry       string `json:"main_worry" validate:"required"`
	ImpactOnLife    string `json:"impact_on_life" validate:"required"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// StructuredDiagnosisRequest is the full structured intake form.
type StructuredDiagnosisRequest struct {
	PatientProfile        PatientProfile         `json:"patient_profile"`
	PrimaryComplaint      PrimaryComplaint       `json:"primary_complaint"`
	SymptomSpecificDetails SymptomSpecificDetails `json:"symptom_specific_details"`
	ReproductiveHistory   ReproductiveHistory    `json:"reproductive_history"`
	AssociatedSymptoms    AssociatedSymptoms     `json:"associated_symptoms"`
	MedicalContext        MedicalContext         `json:"medical_context"`
	HealthcareInteraction HealthcareInteraction  `json:"healthcare_interaction"`
	PatientConcerns       PatientConcerns        `json:"patient_concerns"`
}

// Validate checks per-field constraints first, then the cross-field
// invariants once all field values are known. Every violation is reported.
func (r *StructuredDiagnosisRequest) Validate() error {
	var errs ValidationErrors
	collectStructErrors(validate.Struct(r), &errs)

	// Symptom-specific detail block must match the primary complaint.
	switch r.PrimaryComplaint.MainSymptom {
	case SymptomVaginalDischarge:
		if r.SymptomSpecificDetails.DischargeCharacteristics == nil {
			errs.add("symptom_specific_details.discharge_characteristics",
				"discharge characteristics are required for vaginal discharge symptoms")
		}
	case SymptomExcessiveBleeding:
		if r.SymptomSpecificDetails.BleedingPattern == nil {
			errs.add("symptom_specific_details.bleeding_pattern",
				"bleeding pattern details are required for bleeding symptoms")
		}
	}

	// Reported allergies must not appear in any listed medication.
	for _, conflict := range r.MedicalContext.medicationConflicts() {
		errs.add("medical_context.allergies", conflict)
	}

	if r.PatientProfile.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, r.PatientProfile.Timestamp); err != nil {
			errs.add("patient_profile.timestamp",
				"must be a valid ISO-8601 timestamp (e.g. 2025-07-21T06:03:52Z)")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// medicationConflicts returns a message per medication that contains a
// reported allergy as a case-insensitive substring.
func (m *MedicalContext) medicationConflicts() []string {
	if len(m.Allergies) == 0 {
		return nil
	}
	var conflicts []string
	all := append(append([]string{}, m.CurrentMedications...), m.RecentMedications...)
	for _, med := range all {
		for _, allergy := range m.Allergies {
			if allergy == "" {
				continue
			}
			if strings.Contains(strings.ToLower(med), strings.ToLower(allergy)) {
				conflicts = append(conflicts,
					"medication '"+med+"' conflicts with reported allergy to '"+allergy+"'")
			}
		}
	}
	return conflicts
}
