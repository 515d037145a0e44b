package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLocalCredentials(t *testing.T) {
	assert.Nil(t, localCredentials(envMap(nil)))

	p := localCredentials(envMap(map[string]string{"AWS_ENDPOINT": "http://localhost:4566"}))
	require.NotNil(t, p)
	creds, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
	assert.Equal(t, "test", creds.SecretAccessKey)

	p = localCredentials(envMap(map[string]string{
		"AWS_ENDPOINT":          "http://localhost:4566",
		"AWS_ACCESS_KEY_ID":     "AKIDLOCAL",
		"AWS_SECRET_ACCESS_KEY": "local-secret",
	}))
	creds, err = p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDLOCAL", creds.AccessKeyID)
	assert.Equal(t, "local-secret", creds.SecretAccessKey)
}

func TestLoadAWSConfig_LocalEndpoint(t *testing.T) {
	t.Setenv("AWS_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_REGION", "ap-south-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	cfg, err := LoadAWSConfig(context.Background())
	require.NoError(t, err)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)

	ep, err := cfg.EndpointResolverWithOptions.ResolveEndpoint("sqs", "ap-south-1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", ep.URL)
	assert.Equal(t, "ap-south-1", ep.SigningRegion)
}
