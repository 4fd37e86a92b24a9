// Package report renders structured diagnosis responses into PDF reports.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/tenderly-care/diagnosis-api/internal/model"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
	"github.com/tenderly-care/diagnosis-api/pkg/metrics"
)

// Letterhead carries optional clinic information for the report header.
type Letterhead struct {
	Name    string
	Address string
}

// Renderer turns a structured diagnosis response into a paginated PDF.
// Rendering is a pure transformation; any internal failure surfaces as a
// report generation error and no partial document is returned.
type Renderer struct {
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRenderer(m *metrics.Metrics) *Renderer {
	return &Renderer{metrics: m, now: time.Now}
}

const pageWidth = 190.0 // A4 width minus default margins, in mm

func (r *Renderer) Render(resp *model.StructuredDiagnosisResponse, reviewerNotes string, letterhead *Letterhead) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if letterhead != nil && letterhead.Name != "" {
		r.writeTitle(pdf, letterhead.Name)
		if letterhead.Address != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(0, 0, 0)
			pdf.CellFormat(pageWidth, 5, letterhead.Address, "", 1, "C", false, 0, "")
		}
		pdf.Ln(4)
	}

	r.writeTitle(pdf, "AI-ASSISTED GYNECOLOGICAL DIAGNOSIS REPORT")
	pdf.Ln(4)

	r.writePatientInfo(pdf, resp)
	r.writeDiagnoses(pdf, resp)
	r.writeClinicalReasoning(pdf, resp)
	r.writeSafetyAssessment(pdf, resp)
	r.writeInvestigations(pdf, resp)
	r.writeTreatment(pdf, resp)
	r.writePatientEducation(pdf, resp)
	r.writeWarningSigns(pdf, resp)

	if reviewerNotes != "" {
		r.sectionHeader(pdf, "DOCTOR'S ADDITIONAL NOTES")
		r.bodyText(pdf, reviewerNotes)
	}

	r.writeFooter(pdf, resp)

	if pdf.Err() {
		r.failed()
		return nil, apperrors.NewReport(pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.failed()
		return nil, apperrors.NewReport(err)
	}
	if r.metrics != nil {
		r.metrics.ReportsGenerated.Inc()
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 102)
	pdf.CellFormat(pageWidth, 9, title, "", 1, "C", false, 0, "")
}

func (r *Renderer) sectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(139, 0, 0)
	pdf.CellFormat(pageWidth, 7, title, "", 1, "L", false, 0, "")
}

func (r *Renderer) bodyText(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(pageWidth, 5, text, "", "L", false)
}

func (r *Renderer) bulletList(pdf *gofpdf.Fpdf, items []string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, item := range items {
		pdf.MultiCell(pageWidth, 5, "- "+item, "", "L", false)
	}
}

func (r *Renderer) tableHeader(pdf *gofpdf.Fpdf, widths []float64, labels []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(214, 230, 245)
	pdf.SetTextColor(0, 0, 0)
	for i, label := range labels {
		pdf.CellFormat(widths[i], 6, label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *Renderer) tableRow(pdf *gofpdf.Fpdf, widths []float64, cells []string) {
	pdf.SetFont("Helvetica", "", 9)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func (r *Renderer) writePatientInfo(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	r.sectionHeader(pdf, "PATIENT INFORMATION")
	widths := []float64{50, 140}
	rows := [][2]string{
		{"Request ID:", resp.RequestID},
		{"Patient Age:", fmt.Sprintf("%d years", resp.PatientAge)},
		{"Primary Symptom:", titleCase(strings.ReplaceAll(string(resp.PrimarySymptom), "_", " "))},
		{"Report Generated:", r.now().Format("January 2, 2006 at 3:04 PM")},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(widths[0], 6, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(widths[1], 6, row[1], "1", 1, "L", false, 0, "")
	}
}

func (r *Renderer) writeDiagnoses(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	r.sectionHeader(pdf, "DIFFERENTIAL DIAGNOSIS")
	widths := []float64{70, 25, 95}
	r.tableHeader(pdf, widths, []string{"Diagnosis", "Confidence", "Description"})
	for _, d := range resp.PossibleDiagnoses {
		desc := d.Description
		if desc == "" {
			desc = "Clinical assessment based on presented symptoms"
		}
		r.tableRow(pdf, widths, []string{d.Name, fmt.Sprintf("%.1f%%", d.ConfidenceScore*100), desc})
	}
}

func (r *Renderer) writeClinicalReasoning(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	r.sectionHeader(pdf, "CLINICAL REASONING")
	r.bodyText(pdf, resp.ClinicalReasoning)
	if len(resp.DifferentialConsiderations) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pageWidth, 5, "Differential Considerations:", "", 1, "L", false, 0, "")
		r.bulletList(pdf, resp.DifferentialConsiderations)
	}
}

func (r *Renderer) writeSafetyAssessment(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	r.sectionHeader(pdf, "SAFETY ASSESSMENT")

	if allergic := resp.SafetyAssessment.AllergyConsiderations.AllergicMedications; len(allergic) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(pageWidth, 5, "Known Drug Allergies:", "", 1, "L", false, 0, "")
		pdf.MultiCell(pageWidth, 5, strings.Join(allergic, ", "), "", "L", false)
	}

	if warnings := resp.SafetyAssessment.SafetyWarnings; len(warnings) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(pageWidth, 5, "Safety Warnings:", "", 1, "L", false, 0, "")
		for _, w := range warnings {
			pdf.MultiCell(pageWidth, 5, "- "+w, "", "L", false)
		}
	}

	red, green, blue := urgencyColor(resp.RiskAssessment.UrgencyLevel)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(red, green, blue)
	pdf.CellFormat(pageWidth, 6, "Urgency Level: "+strings.ToUpper(string(resp.RiskAssessment.UrgencyLevel)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (r *Renderer) writeInvestigations(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	if len(resp.RecommendedInvestigations) == 0 {
		return
	}
	r.sectionHeader(pdf, "RECOMMENDED INVESTIGATIONS")
	widths := []float64{60, 25, 105}
	r.tableHeader(pdf, widths, []string{"Investigation", "Priority", "Reason"})
	for _, inv := range resp.RecommendedInvestigations {
		r.tableRow(pdf, widths, []string{inv.Name, titleCase(string(inv.Priority)), inv.Reason})
	}
}

func (r *Renderer) writeTreatment(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	r.sectionHeader(pdf, "TREATMENT RECOMMENDATIONS")
	tr := resp.TreatmentRecommendations

	if tr.PrimaryTreatment != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pageWidth, 5, "Primary Treatment: "+tr.PrimaryTreatment, "", "L", false)
	}

	if len(tr.SafeMedications) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pageWidth, 5, "Recommended Medications:", "", 1, "L", false, 0, "")
		widths := []float64{40, 25, 30, 25, 70}
		r.tableHeader(pdf, widths, []string{"Medication", "Dosage", "Frequency", "Duration", "Notes"})
		for _, med := range tr.SafeMedications {
			notes := med.Notes
			if notes == "" {
				notes = med.Reason
			}
			r.tableRow(pdf, widths, []string{med.Name, med.Dosage, med.Frequency, med.Duration, notes})
		}
	}

	if len(tr.LifestyleModifications) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pageWidth, 5, "Lifestyle Modifications:", "", 1, "L", false, 0, "")
		r.bulletList(pdf, tr.LifestyleModifications)
	}

	if len(tr.DietaryAdvice) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pageWidth, 5, "Dietary Advice:", "", 1, "L", false, 0, "")
		r.bulletList(pdf, tr.DietaryAdvice)
	}
}

func (r *Renderer) writePatientEducation(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	if len(resp.PatientEducation) == 0 {
		return
	}
	r.sectionHeader(pdf, "PATIENT EDUCATION")
	r.bulletList(pdf, resp.PatientEducation)
}

func (r *Renderer) writeWarningSigns(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	if len(resp.WarningSigns) == 0 {
		return
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(200, 0, 0)
	pdf.CellFormat(pageWidth, 7, "WARNING SIGNS - SEEK IMMEDIATE MEDICAL ATTENTION", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	for _, w := range resp.WarningSigns {
		pdf.MultiCell(pageWidth, 5, "- "+w, "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)
}

func (r *Renderer) writeFooter(pdf *gofpdf.Fpdf, resp *model.StructuredDiagnosisResponse) {
	r.sectionHeader(pdf, "MEDICAL DISCLAIMER")
	r.bodyText(pdf, resp.Disclaimer)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(pageWidth, 6, fmt.Sprintf("Overall AI Confidence Score: %.1f%%", resp.ConfidenceScore*100), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(pageWidth, 5, "Report generated on: "+r.now().Format("January 2, 2006 at 3:04 PM"), "", 1, "C", false, 0, "")
}

func (r *Renderer) failed() {
	if r.metrics != nil {
		r.metrics.ReportsFailed.Inc()
	}
}

func urgencyColor(level model.UrgencyLevel) (int, int, int) {
	switch level {
	case model.UrgencyUrgent:
		return 200, 0, 0
	case model.UrgencyModerate, model.UrgencyHigh:
		return 230, 140, 0
	default:
		return 0, 140, 0
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
