package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/config"
	"github.com/nextelBIS/minubo-event-ingest/internal/logger"
	"github.com/nextelBIS/minubo-event-ingest/internal/provisioner"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository/redshift"
	"github.com/nextelBIS/minubo-event-ingest/internal/secrets"
)

// DDL runs fast but queues behind cluster startup; give it a wide window.
const provisionTimeout = 2 * time.Minute

// The provisioner runs as a Lambda so the deploy driver can reach the
// storage backend without network-level access of its own. Endpoint
// identifiers arrive per invocation, not from the environment.
func main() {
	environment := os.Getenv("SERVICE_ENVIRONMENT")
	if environment == "" {
		environment = "production"
	}

	log, err := logger.New(environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	awsCfg := config.AWS{
		Region:   os.Getenv("AWS_REGION"),
		Endpoint: os.Getenv("AWS_ENDPOINT"),
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "eu-central-1"
	}

	ctx := context.Background()

	resolver, err := secrets.NewResolver(ctx, awsCfg, log)
	if err != nil {
		log.Fatal("Failed to create credential resolver", zap.Error(err))
	}

	redshiftClient, err := redshift.NewClient(ctx, awsCfg, log)
	if err != nil {
		log.Fatal("Failed to create Redshift client", zap.Error(err))
	}

	repo := redshift.NewRepository(redshiftClient, redshift.PollPolicy{
		Timeout:  provisionTimeout,
		Interval: 500 * time.Millisecond,
	}, log)

	p := provisioner.New(resolver, repo, log)

	lambda.Start(func(ctx context.Context, req provisioner.Request) (*provisioner.Result, error) {
		return p.Provision(ctx, req)
	})
}
