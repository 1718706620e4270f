package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/config"
	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
	"github.com/nextelBIS/minubo-event-ingest/internal/metrics"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository"
	"github.com/nextelBIS/minubo-event-ingest/internal/validation"
)

// EventService processes one inbound event per call: validate, resolve
// credentials, persist. It holds no per-request state; concurrent requests
// share nothing but the external store.
type EventService struct {
	resolver CredentialResolver
	repo     repository.EventRepository
	cfg      config.Redshift
	log      *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(resolver CredentialResolver, repo repository.EventRepository, cfg config.Redshift, log *zap.Logger) *EventService {
	return &EventService{
		resolver: resolver,
		repo:     repo,
		cfg:      cfg,
		log:      log,
	}
}

// ProcessEvent validates a raw payload and writes the normalized record to
// the store. Validation runs before any external call; a rejection never
// touches the secret store or the storage backend. Credentials are resolved
// fresh on every call since they may rotate between invocations.
func (s *EventService) ProcessEvent(ctx context.Context, raw []byte) (string, error) {
	record, err := validation.Validate(raw)
	if err != nil {
		s.log.Warn("Event rejected", zap.Error(err))
		return "", err
	}
	record.ReceivedAt = time.Now().UTC()

	creds, err := s.resolver.Resolve(ctx, s.cfg.SecretName)
	if err != nil {
		metrics.SecretResolutionErrors.Inc()
		return "", err
	}

	database := creds.Database
	if database == "" {
		database = s.cfg.Database
	}

	conn := domain.ConnectionContext{
		Workgroup: s.cfg.Workgroup,
		Database:  database,
		SecretARN: creds.ARN,
	}

	start := time.Now()
	err = s.repo.Persist(ctx, record, conn)
	metrics.PersistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PersistErrors.WithLabelValues(persistErrorKind(err)).Inc()
		s.log.Error("Failed to persist event",
			zap.String("event_id", record.ID),
			zap.String("event", record.Event),
			zap.Error(err))
		return "", err
	}

	s.log.Info("Event processed",
		zap.String("event_id", record.ID),
		zap.String("event", record.Event),
		zap.String("group", record.Group),
		zap.Int64("count", record.Count))

	return record.ID, nil
}

func persistErrorKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrSubmissionRejected):
		return "submission_rejected"
	case errors.Is(err, repository.ErrPersistTimeout):
		return "timeout"
	case errors.Is(err, repository.ErrPersistFailed):
		return "failed"
	default:
		return "other"
	}
}
