package service

import (
	"context"

	"github.com/nextelBIS/minubo-event-ingest/internal/secrets"
)

// EventServicer defines the interface for event processing operations
type EventServicer interface {
	ProcessEvent(ctx context.Context, raw []byte) (string, error)
}

// CredentialResolver resolves a credential reference to a live bundle.
type CredentialResolver interface {
	Resolve(ctx context.Context, reference string) (*secrets.Credentials, error)
}
