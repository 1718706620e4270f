package provisioner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository"
	"github.com/nextelBIS/minubo-event-ingest/internal/secrets"
)

// ErrProvisionFailed marks a failed schema provisioning run. The deploy
// driver must treat it as fatal and stop before routing traffic.
var ErrProvisionFailed = errors.New("provision failed")

// Request carries the storage endpoint identity for one provisioning run.
// It arrives through the invocation channel, never through the public HTTP
// path.
type Request struct {
	Workgroup  string `json:"workgroup"`
	SecretName string `json:"secret_name"`
	Database   string `json:"database"`
	Port       int    `json:"port"`
}

// Result reports a completed provisioning run back to the deploy driver.
type Result struct {
	Message  string `json:"message"`
	Endpoint string `json:"endpoint"`
	Database string `json:"database"`
}

// CredentialResolver resolves a credential reference to a live bundle.
type CredentialResolver interface {
	Resolve(ctx context.Context, reference string) (*secrets.Credentials, error)
}

// Provisioner creates or upgrades the events table. It runs once per
// deployment from an environment without direct network reachability to the
// cluster; storage access goes through the same submit/poll protocol the
// serving path uses.
type Provisioner struct {
	resolver CredentialResolver
	repo     repository.EventRepository
	log      *zap.Logger
}

// New creates a new provisioner
func New(resolver CredentialResolver, repo repository.EventRepository, log *zap.Logger) *Provisioner {
	return &Provisioner{
		resolver: resolver,
		repo:     repo,
		log:      log,
	}
}

// Provision applies the schema definition. Idempotent: the DDL is
// conditional, so invoking it against an already provisioned database
// leaves the schema unchanged and still reports success.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*Result, error) {
	if req.Workgroup == "" || req.SecretName == "" {
		return nil, fmt.Errorf("%w: workgroup and secret_name are required", ErrProvisionFailed)
	}

	p.log.Info("Starting database setup",
		zap.String("workgroup", req.Workgroup),
		zap.String("secret_name", req.SecretName),
		zap.Int("port", req.Port))

	creds, err := p.resolver.Resolve(ctx, req.SecretName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}

	database := req.Database
	if database == "" {
		database = creds.Database
	}
	if database == "" {
		database = "dev"
	}

	conn := domain.ConnectionContext{
		Workgroup: req.Workgroup,
		Database:  database,
		SecretARN: creds.ARN,
	}

	if err := p.repo.InitSchema(ctx, conn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}

	p.log.Info("Database setup completed",
		zap.String("endpoint", creds.Host),
		zap.String("database", database))

	return &Result{
		Message:  "Database setup completed successfully",
		Endpoint: creds.Host,
		Database: database,
	}, nil
}
