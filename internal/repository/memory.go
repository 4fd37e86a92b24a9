package repository

import (
	"context"
	"sync"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

// MemoryRepository keeps diagnoses in process memory. It is the default
// archive when no database is configured; entries do not survive restarts.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*model.StructuredDiagnosisResponse
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*model.StructuredDiagnosisResponse)}
}

func (r *MemoryRepository) Save(_ context.Context, resp *model.StructuredDiagnosisResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *resp
	r.items[resp.RequestID] = &cp
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, requestID string) (*model.StructuredDiagnosisResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.items[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *resp
	return &cp, nil
}
