package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

const diagnosesSchema = `
CREATE TABLE IF NOT EXISTS diagnoses (
	request_id TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRepository persists diagnoses as JSONB documents keyed by
// request id.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(url string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(diagnosesSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure diagnoses table: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Save(ctx context.Context, resp *model.StructuredDiagnosisResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnosis: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO diagnoses (request_id, payload)
		VALUES ($1, $2)
		ON CONFLICT (request_id) DO UPDATE SET payload = EXCLUDED.payload`,
		resp.RequestID, payload)
	if err != nil {
		return fmt.Errorf("failed to save diagnosis: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, requestID string) (*model.StructuredDiagnosisResponse, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM diagnoses WHERE request_id = $1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnosis: %w", err)
	}
	var resp model.StructuredDiagnosisResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal diagnosis: %w", err)
	}
	return &resp, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
