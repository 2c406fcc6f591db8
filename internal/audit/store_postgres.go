package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore appends submission events to the batch_submissions table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a postgres-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_submissions (id, batch_id, service_id, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.BatchID, event.ServiceID, event.Status, event.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch submission: %w", err)
	}
	return nil
}
