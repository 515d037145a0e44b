package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// LoadAWSConfig loads the default AWS config. When AWS_ENDPOINT is set (LocalStack)
// every client built from the returned config targets that endpoint instead of AWS.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if p := localCredentials(os.Getenv); p != nil {
		opts = append(opts, config.WithCredentialsProvider(p))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := os.Getenv("AWS_ENDPOINT")
	if endpoint == "" {
		return cfg, nil
	}

	signingRegion := cfg.Region
	if signingRegion == "" {
		signingRegion = os.Getenv("AWS_REGION")
	}

	cfg.EndpointResolverWithOptions = sdkaws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (sdkaws.Endpoint, error) {
		sr := signingRegion
		if sr == "" {
			sr = region
		}
		return sdkaws.Endpoint{
			URL:               endpoint,
			SigningRegion:     sr,
			HostnameImmutable: true,
		}, nil
	})

	return cfg, nil
}

// localCredentials returns static keys for a local endpoint so LocalStack
// works without a shared credentials file. Keys from the environment win over
// LocalStack's "test" default. It returns nil when AWS_ENDPOINT is unset.
func localCredentials(getenv func(string) string) sdkaws.CredentialsProvider {
	if getenv("AWS_ENDPOINT") == "" {
		return nil
	}
	key, secret := getenv("AWS_ACCESS_KEY_ID"), getenv("AWS_SECRET_ACCESS_KEY")
	if key == "" || secret == "" {
		key, secret = "test", "test"
	}
	return credentials.NewStaticCredentialsProvider(key, secret, getenv("AWS_SESSION_TOKEN"))
}
