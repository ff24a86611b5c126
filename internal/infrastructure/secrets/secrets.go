package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/types/errs"
)

// Manager fetches the generative API key from AWS Secrets Manager. The key is
// read fresh per pipeline invocation, never cached, so rotations take effect
// without a restart.
type Manager struct {
	client   *secretsmanager.Client
	secretID string
}

func New(ctx context.Context, region, accessKey, secretKey, endpoint, secretID string) (*Manager, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("secrets - New - config.LoadDefaultConfig: %w", err)
	}

	client := secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Manager{client: client, secretID: secretID}, nil
}

func (m *Manager) APIKey(ctx context.Context) (string, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("secrets - APIKey - m.client.GetSecretValue: %w", err)
	}

	key := aws.ToString(out.SecretString)
	if key == "" {
		return "", fmt.Errorf("secrets - APIKey: %w", errs.ErrEmptySecret)
	}

	return key, nil
}
