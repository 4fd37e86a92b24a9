// Package email sends escalation mail for cases the model flags as urgent.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/tenderly-care/diagnosis-api/internal/config"
	"github.com/tenderly-care/diagnosis-api/internal/model"
)

// Service delivers clinical escalation notifications over SMTP.
type Service struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger zerolog.Logger
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) *Service {
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.EscalationTo,
		logger: logger,
	}
}

// NotifyUrgent mails the escalation address about an urgent-risk diagnosis.
// Patient free text is not included; only tracking fields and red flags.
func (s *Service) NotifyUrgent(ctx context.Context, resp *model.StructuredDiagnosisResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	primary := "Unknown"
	if len(resp.PossibleDiagnoses) > 0 {
		primary = resp.PossibleDiagnoses[0].Name
	}

	body := fmt.Sprintf(
		"An AI-assisted diagnosis has been flagged URGENT.\n\n"+
			"Request ID: %s\nPatient age: %d\nPrimary symptom: %s\n"+
			"Leading diagnosis: %s (%.0f%% confidence)\nRed flags: %s\n\n"+
			"Review the full report in the clinical console.",
		resp.RequestID,
		resp.PatientAge,
		strings.ReplaceAll(string(resp.PrimarySymptom), "_", " "),
		primary,
		resp.ConfidenceScore*100,
		strings.Join(resp.RiskAssessment.RedFlags, ", "),
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", fmt.Sprintf("[URGENT] Diagnosis escalation %s", resp.RequestID))
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send escalation email: %w", err)
	}
	s.logger.Info().Str("request_id", resp.RequestID).Msg("urgent escalation email sent")
	return nil
}
