package aws

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretValues struct {
	values map[string]*string
	calls  int
}

func (f *fakeSecretValues) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[sdkaws.ToString(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: v}, nil
}

func TestSecretsClient_GetSecretMemoizes(t *testing.T) {
	api := &fakeSecretValues{values: map[string]*string{"rzp": sdkaws.String("s3cr3t")}}
	c := newSecretsClient(api)

	for i := 0; i < 3; i++ {
		v, err := c.GetSecret(context.Background(), "rzp")
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", v)
	}
	assert.Equal(t, 1, api.calls)
}

func TestSecretsClient_GetSecretErrors(t *testing.T) {
	api := &fakeSecretValues{values: map[string]*string{"binary": nil}}
	c := newSecretsClient(api)

	_, err := c.GetSecret(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySecretName)

	_, err = c.GetSecret(context.Background(), "missing")
	assert.ErrorContains(t, err, "read secret missing")

	_, err = c.GetSecret(context.Background(), "binary")
	assert.ErrorContains(t, err, "no string value")
}

func TestSecretsClient_GetSecretJSON(t *testing.T) {
	api := &fakeSecretValues{values: map[string]*string{
		"db":  sdkaws.String(`{"username":"svc","port":"6432"}`),
		"bad": sdkaws.String("plain"),
	}}
	c := newSecretsClient(api)

	var db struct {
		Username string `json:"username"`
		Port     string `json:"port"`
	}
	require.NoError(t, c.GetSecretJSON(context.Background(), "db", &db))
	assert.Equal(t, "svc", db.Username)
	assert.Equal(t, "6432", db.Port)

	assert.ErrorContains(t, c.GetSecretJSON(context.Background(), "bad", &db), "not valid JSON")
}
