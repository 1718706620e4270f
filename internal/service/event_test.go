package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/config"
	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository"
	"github.com/nextelBIS/minubo-event-ingest/internal/secrets"
	"github.com/nextelBIS/minubo-event-ingest/internal/validation"
)

// MockCredentialResolver is a mock implementation of CredentialResolver
type MockCredentialResolver struct {
	mock.Mock
}

func (m *MockCredentialResolver) Resolve(ctx context.Context, reference string) (*secrets.Credentials, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secrets.Credentials), args.Error(1)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Persist(ctx context.Context, record *domain.Record, conn domain.ConnectionContext) error {
	args := m.Called(ctx, record, conn)
	return args.Error(0)
}

func (m *MockEventRepository) InitSchema(ctx context.Context, conn domain.ConnectionContext) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func testRedshiftConfig() config.Redshift {
	return config.Redshift{
		SecretName: "redshift-credentials",
		Workgroup:  "tracking-wg",
		Database:   "dev",
	}
}

func testCredentials() *secrets.Credentials {
	return &secrets.Credentials{
		ARN:      "arn:aws:secretsmanager:eu-central-1:123456789012:secret:redshift-credentials",
		Username: "admin",
		Password: "pw",
		Host:     "wg.example.redshift-serverless.amazonaws.com",
		Port:     5439,
		Database: "tracking",
	}
}

const validBody = `{"event":"page view","id":"test-123","timestamp":1703123456789,"group":"g1","count":1}`

func TestEventService_ProcessEvent_Success(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	svc := NewEventService(resolver, repo, testRedshiftConfig(), zap.NewNop())

	resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(testCredentials(), nil)
	repo.On("Persist", mock.Anything, mock.MatchedBy(func(r *domain.Record) bool {
		return r.ID == "test-123" && !r.ReceivedAt.IsZero()
	}), domain.ConnectionContext{
		Workgroup: "tracking-wg",
		Database:  "tracking", // database from the secret wins over config
		SecretARN: testCredentials().ARN,
	}).Return(nil)

	eventID, err := svc.ProcessEvent(context.Background(), []byte(validBody))

	assert.NoError(t, err)
	assert.Equal(t, "test-123", eventID)
	resolver.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestEventService_ProcessEvent_DatabaseFallsBackToConfig(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	svc := NewEventService(resolver, repo, testRedshiftConfig(), zap.NewNop())

	creds := testCredentials()
	creds.Database = ""
	resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(creds, nil)
	repo.On("Persist", mock.Anything, mock.Anything, mock.MatchedBy(func(conn domain.ConnectionContext) bool {
		return conn.Database == "dev"
	})).Return(nil)

	_, err := svc.ProcessEvent(context.Background(), []byte(validBody))

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEventService_ProcessEvent_RejectionSkipsExternalCalls(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	svc := NewEventService(resolver, repo, testRedshiftConfig(), zap.NewNop())

	eventID, err := svc.ProcessEvent(context.Background(), []byte(`{"data": {}}`))

	assert.Empty(t, eventID)
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.KindMissingField, verr.Kind)
	resolver.AssertNotCalled(t, "Resolve")
	repo.AssertNotCalled(t, "Persist")
}

func TestEventService_ProcessEvent_SecretUnavailable(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	svc := NewEventService(resolver, repo, testRedshiftConfig(), zap.NewNop())

	resolver.On("Resolve", mock.Anything, "redshift-credentials").
		Return(nil, fmt.Errorf("%w: redshift-credentials", secrets.ErrSecretUnavailable))

	eventID, err := svc.ProcessEvent(context.Background(), []byte(validBody))

	assert.Empty(t, eventID)
	assert.ErrorIs(t, err, secrets.ErrSecretUnavailable)
	// no partial write: persistence is never attempted without credentials
	repo.AssertNotCalled(t, "Persist")
}

func TestEventService_ProcessEvent_PersistErrorsPropagate(t *testing.T) {
	for _, sentinel := range []error{
		repository.ErrSubmissionRejected,
		repository.ErrPersistTimeout,
		repository.ErrPersistFailed,
	} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			resolver := new(MockCredentialResolver)
			repo := new(MockEventRepository)
			svc := NewEventService(resolver, repo, testRedshiftConfig(), zap.NewNop())

			resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(testCredentials(), nil)
			repo.On("Persist", mock.Anything, mock.Anything, mock.Anything).
				Return(fmt.Errorf("failed to persist event test-123: %w", sentinel))

			eventID, err := svc.ProcessEvent(context.Background(), []byte(validBody))

			assert.Empty(t, eventID)
			assert.ErrorIs(t, err, sentinel)
		})
	}
}
