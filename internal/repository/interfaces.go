package repository

import (
	"context"
	"errors"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
)

var (
	// ErrSubmissionRejected marks statements the storage backend refused
	// outright (bad SQL, auth failure, throttling).
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrPersistTimeout marks submissions that reached no terminal state
	// within the bounded wait. The underlying write may still complete;
	// retries are safe because writes are keyed by event ID.
	ErrPersistTimeout = errors.New("persist timed out")
	// ErrPersistFailed marks submissions that terminated FAILED or ABORTED.
	ErrPersistFailed = errors.New("persist failed")
)

// EventRepository defines the interface for event storage operations
type EventRepository interface {
	// Persist writes one normalized record, keyed by its event ID.
	// Persisting the same record twice stores exactly one row.
	Persist(ctx context.Context, record *domain.Record, conn domain.ConnectionContext) error

	// InitSchema initializes the storage schema (creates the events table
	// if it does not exist). Safe to invoke repeatedly.
	InitSchema(ctx context.Context, conn domain.ConnectionContext) error
}
