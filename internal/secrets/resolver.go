package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	envConfig "github.com/nextelBIS/minubo-event-ingest/internal/config"
)

var (
	// ErrSecretUnavailable marks failures to reach the secret store or a
	// reference that does not resolve.
	ErrSecretUnavailable = errors.New("secret unavailable")
	// ErrSecretMalformed marks a resolved secret lacking required attributes.
	ErrSecretMalformed = errors.New("secret malformed")
)

// Credentials is the storage credential bundle held by the secret store.
// It lives only for the duration of a single processing call.
type Credentials struct {
	ARN      string
	Username string
	Password string
	Host     string
	Port     int
	Database string
}

// API is the slice of the Secrets Manager client the resolver needs.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver fetches storage credentials by reference name. It never caches
// across calls; secrets may rotate between invocations.
type Resolver struct {
	client API
	log    *zap.Logger
}

// NewResolver creates a resolver backed by AWS Secrets Manager.
func NewResolver(ctx context.Context, awsCfg envConfig.AWS, log *zap.Logger) (*Resolver, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}

	var clientOpts []func(*secretsmanager.Options)

	// Configure for local development with LocalStack
	if awsCfg.Endpoint != "" {
		log.Info("Configuring Secrets Manager for local development",
			zap.String("endpoint", awsCfg.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		endpoint := awsCfg.Endpoint
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = &endpoint
		})
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Resolver{
		client: secretsmanager.NewFromConfig(cfg, clientOpts...),
		log:    log,
	}, nil
}

// NewResolverWithClient wires an existing client; used by tests and by the
// provisioner entry point, which builds its AWS config once.
func NewResolverWithClient(client API, log *zap.Logger) *Resolver {
	return &Resolver{client: client, log: log}
}

// secretPayload mirrors the JSON bundle Redshift-managed secrets store.
// Port arrives as a number from managed secrets and as a string from
// hand-written ones.
type secretPayload struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Host     string    `json:"host"`
	Port     portValue `json:"port"`
	Database string    `json:"database"`
}

// portValue accepts both JSON forms of the port attribute.
type portValue string

func (p *portValue) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*p = portValue(s)
	return nil
}

// Resolve fetches and decodes the credential bundle named by reference.
func (r *Resolver) Resolve(ctx context.Context, reference string) (*Credentials, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &reference,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			r.log.Error("Failed to retrieve secret",
				zap.String("secret_name", reference),
				zap.String("error_code", apiErr.ErrorCode()),
				zap.Error(err))
		} else {
			r.log.Error("Failed to retrieve secret",
				zap.String("secret_name", reference),
				zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSecretUnavailable, reference, err)
	}

	if out.SecretString == nil {
		return nil, fmt.Errorf("%w: %s has no string payload", ErrSecretMalformed, reference)
	}

	var payload secretPayload
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSecretMalformed, reference, err)
	}

	if payload.Username == "" || payload.Password == "" || payload.Host == "" {
		return nil, fmt.Errorf("%w: %s lacks required attributes", ErrSecretMalformed, reference)
	}

	creds := &Credentials{
		Username: payload.Username,
		Password: payload.Password,
		Host:     payload.Host,
		Database: payload.Database,
	}
	if out.ARN != nil {
		creds.ARN = *out.ARN
	}
	if payload.Port != "" && string(payload.Port) != "null" {
		port, err := strconv.Atoi(string(payload.Port))
		if err != nil {
			return nil, fmt.Errorf("%w: %s has non-numeric port", ErrSecretMalformed, reference)
		}
		creds.Port = port
	}

	r.log.Info("Resolved storage credentials",
		zap.String("secret_name", reference),
		zap.String("host", creds.Host))

	return creds, nil
}
