package redshift

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
)

// Repository implements repository.EventRepository over the Redshift Data
// API submit/poll protocol.
type Repository struct {
	client *Client
	policy PollPolicy
	log    *zap.Logger
}

// NewRepository creates a new Redshift repository
func NewRepository(client *Client, policy PollPolicy, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		policy: policy,
		log:    log,
	}
}

// Persist writes one normalized record. The write is keyed by the record's
// event ID: the statement only inserts when no row with that ID exists, so
// request-level retries after a timeout or a prior success never duplicate.
func (r *Repository) Persist(ctx context.Context, record *domain.Record, conn domain.ConnectionContext) error {
	row, err := domain.NewRow(record)
	if err != nil {
		return fmt.Errorf("failed to flatten record %s: %w", record.ID, err)
	}

	stmt := insertStatement(row)

	if err := r.client.Execute(ctx, conn, stmt, r.policy); err != nil {
		return fmt.Errorf("failed to persist event %s: %w", record.ID, err)
	}

	r.log.Info("Event persisted",
		zap.String("event_id", record.ID),
		zap.String("event", record.Event))

	return nil
}

// InitSchema creates the events table if it does not exist. Conditional DDL
// keeps the operation idempotent: running it against an already provisioned
// database is a no-op.
func (r *Repository) InitSchema(ctx context.Context, conn domain.ConnectionContext) error {
	stmt := statement{SQL: createEventsTable}

	if err := r.client.Execute(ctx, conn, stmt, r.policy); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	r.log.Info("Events table schema initialized",
		zap.String("workgroup", conn.Workgroup),
		zap.String("database", conn.Database))

	return nil
}
