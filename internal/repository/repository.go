// Package repository stores generated structured diagnoses so that report
// downloads can look them up by request id.
package repository

import (
	"context"
	"errors"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

// ErrNotFound is returned when no diagnosis exists for a request id.
var ErrNotFound = errors.New("diagnosis not found")

// DiagnosisRepository is the lookup collaborator behind the PDF endpoint.
type DiagnosisRepository interface {
	Save(ctx context.Context, resp *model.StructuredDiagnosisResponse) error
	Get(ctx context.Context, requestID string) (*model.StructuredDiagnosisResponse, error)
}
