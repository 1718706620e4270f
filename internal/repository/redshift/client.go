package redshift

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/redshiftdata"
	"go.uber.org/zap"

	envConfig "github.com/nextelBIS/minubo-event-ingest/internal/config"
)

// API is the slice of the Redshift Data API client the repository needs:
// statement submission and status reconciliation.
type API interface {
	ExecuteStatement(ctx context.Context, params *redshiftdata.ExecuteStatementInput, optFns ...func(*redshiftdata.Options)) (*redshiftdata.ExecuteStatementOutput, error)
	DescribeStatement(ctx context.Context, params *redshiftdata.DescribeStatementInput, optFns ...func(*redshiftdata.Options)) (*redshiftdata.DescribeStatementOutput, error)
}

// Client wraps the Redshift Data API connection. Queries run out-of-band on
// the cluster side; no persistent database socket is held.
type Client struct {
	client API
	log    *zap.Logger
}

// NewClient creates a new Data API client with the given configuration.
func NewClient(ctx context.Context, awsCfg envConfig.AWS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}

	var clientOpts []func(*redshiftdata.Options)

	// Configure for local development with LocalStack
	if awsCfg.Endpoint != "" {
		log.Info("Configuring Redshift Data API for local development",
			zap.String("endpoint", awsCfg.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		endpoint := awsCfg.Endpoint
		clientOpts = append(clientOpts, func(o *redshiftdata.Options) {
			o.BaseEndpoint = &endpoint
		})
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Redshift Data API client created", zap.String("region", awsCfg.Region))

	return &Client{
		client: redshiftdata.NewFromConfig(cfg, clientOpts...),
		log:    log,
	}, nil
}

// NewClientWithAPI wires an existing Data API implementation; used by tests.
func NewClientWithAPI(api API, log *zap.Logger) *Client {
	return &Client{client: api, log: log}
}
