package provisioner

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository"
	"github.com/nextelBIS/minubo-event-ingest/internal/secrets"
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

func testRequest() Request {
	return Request{
		Workgroup:  "tracking-wg",
		SecretName: "redshift-credentials",
		Database:   "dev",
		Port:       5439,
	}
}

func testCredentials() *secrets.Credentials {
	return &secrets.Credentials{
		ARN:      "arn:aws:secretsmanager:eu-central-1:123456789012:secret:redshift-credentials",
		Username: "admin",
		Password: "pw",
		Host:     "wg.example.redshift-serverless.amazonaws.com",
		Port:     5439,
		Database: "dev",
	}
}

func TestProvisioner_Provision_Success(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	p := New(resolver, repo, zap.NewNop())

	resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(testCredentials(), nil)
	repo.On("InitSchema", mock.Anything, domain.ConnectionContext{
		Workgroup: "tracking-wg",
		Database:  "dev",
		SecretARN: testCredentials().ARN,
	}).Return(nil)

	result, err := p.Provision(context.Background(), testRequest())

	assert.NoError(t, err)
	assert.Equal(t, "Database setup completed successfully", result.Message)
	assert.Equal(t, "wg.example.redshift-serverless.amazonaws.com", result.Endpoint)
	assert.Equal(t, "dev", result.Database)
	resolver.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestProvisioner_Provision_Repeatable(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	p := New(resolver, repo, zap.NewNop())

	resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(testCredentials(), nil)
	repo.On("InitSchema", mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := p.Provision(context.Background(), testRequest())
	assert.NoError(t, err)
	_, err = p.Provision(context.Background(), testRequest())
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestProvisioner_Provision_MissingIdentifiers(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	p := New(resolver, repo, zap.NewNop())

	result, err := p.Provision(context.Background(), Request{Database: "dev"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrProvisionFailed)
	resolver.AssertNotCalled(t, "Resolve")
}

func TestProvisioner_Provision_SecretFailure(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	p := New(resolver, repo, zap.NewNop())

	resolver.On("Resolve", mock.Anything, "redshift-credentials").
		Return(nil, fmt.Errorf("%w: redshift-credentials", secrets.ErrSecretUnavailable))

	result, err := p.Provision(context.Background(), testRequest())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrProvisionFailed)
	repo.AssertNotCalled(t, "InitSchema")
}

func TestProvisioner_Provision_DDLFailure(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	p := New(resolver, repo, zap.NewNop())

	resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(testCredentials(), nil)
	repo.On("InitSchema", mock.Anything, mock.Anything).
		Return(fmt.Errorf("failed to create events table: %w", repository.ErrPersistFailed))

	result, err := p.Provision(context.Background(), testRequest())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrProvisionFailed)
}

func TestProvisioner_Provision_DatabaseDefaults(t *testing.T) {
	resolver := new(MockCredentialResolver)
	repo := new(MockEventRepository)
	p := New(resolver, repo, zap.NewNop())

	creds := testCredentials()
	creds.Database = "tracking"
	resolver.On("Resolve", mock.Anything, "redshift-credentials").Return(creds, nil)
	repo.On("InitSchema", mock.Anything, mock.MatchedBy(func(conn domain.ConnectionContext) bool {
		return conn.Database == "tracking"
	})).Return(nil)

	req := testRequest()
	req.Database = "" // falls back to the database named in the secret

	result, err := p.Provision(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, "tracking", result.Database)
	repo.AssertExpectations(t)
}
