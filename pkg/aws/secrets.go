package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

var ErrEmptySecretName = errors.New("secret name is empty")

// secretValueAPI is the part of the Secrets Manager client used here.
type secretValueAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient resolves string secrets once per process and memoizes them.
type SecretsClient struct {
	api secretValueAPI

	mu     sync.Mutex
	values map[string]string
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg))
}

func newSecretsClient(api secretValueAPI) *SecretsClient {
	return &SecretsClient{api: api, values: map[string]string{}}
}

// GetSecret returns the SecretString stored under name. Binary secrets are
// reported as errors.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrEmptySecretName
	}
	s.mu.Lock()
	v, ok := s.values[name]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.mu.Lock()
	s.values[name] = *out.SecretString
	s.mu.Unlock()
	return *out.SecretString, nil
}

// GetSecretJSON decodes a JSON secret into out.
func (s *SecretsClient) GetSecretJSON(ctx context.Context, name string, out interface{}) error {
	raw, err := s.GetSecret(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("secret %s is not valid JSON: %w", name, err)
	}
	return nil
}
