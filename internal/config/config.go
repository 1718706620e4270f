package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds HTTP server settings.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
}

// AWS holds the region and an optional endpoint override for local stacks.
type AWS struct {
	Region   string `envconfig:"AWS_REGION" default:"eu-central-1"`
	Endpoint string `envconfig:"AWS_ENDPOINT"`
}

// Redshift holds storage endpoint settings and persistence timing policy.
type Redshift struct {
	SecretName        string `envconfig:"REDSHIFT_SECRET_NAME" required:"true"`
	Workgroup         string `envconfig:"REDSHIFT_WORKGROUP" required:"true"`
	Database          string `envconfig:"REDSHIFT_DATABASE" default:"dev"`
	PersistTimeoutSec int    `envconfig:"REDSHIFT_PERSIST_TIMEOUT_SEC" default:"25"`
	PollIntervalMs    int    `envconfig:"REDSHIFT_POLL_INTERVAL_MS" default:"250"`
}

type Config struct {
	Service  Service
	AWS      AWS
	Redshift Redshift
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
