package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "orders")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg := loadFromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "razorpay", cfg.PaymentProvider)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 5, cfg.MaxVerifyAttempts)
	assert.Equal(t, 4, cfg.DispatchWorkers)
	assert.Equal(t, 256, cfg.DispatchQueueSize)
	assert.Equal(t, "none", cfg.EventBus)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("MAX_VERIFY_ATTEMPTS", "2")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("EVENT_BUS", "Kafka")
	t.Setenv("DISPATCH_WORKERS", "not-a-number")

	cfg := loadFromEnv()

	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 2, cfg.MaxVerifyAttempts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "kafka", cfg.EventBus)
	assert.Equal(t, 4, cfg.DispatchWorkers)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"missing db host":        func(c *Config) { c.PostgresHost = "" },
		"missing jwt secret":     func(c *Config) { c.JWTSecret = "" },
		"missing razorpay key":   func(c *Config) { c.RazorpayKeySecret = "" },
		"stripe without secrets": func(c *Config) { c.PaymentProvider = "stripe" },
		"unknown provider":       func(c *Config) { c.PaymentProvider = "paypal" },
		"sns without topic":      func(c *Config) { c.EventBus = "sns" },
		"kafka without brokers":  func(c *Config) { c.EventBus = "kafka" },
		"unknown bus":            func(c *Config) { c.EventBus = "nats" },
		"zero attempts":          func(c *Config) { c.MaxVerifyAttempts = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			cfg := loadFromEnv()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func (f fakeSecrets) GetSecretJSON(ctx context.Context, name string, out interface{}) error {
	raw, err := f.GetSecret(ctx, name)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func TestApplySecrets(t *testing.T) {
	setBaseEnv(t)
	cfg := loadFromEnv()

	applySecrets(context.Background(), cfg, fakeSecrets{
		cfg.DBSecretName:       `{"username":"vault-user","password":"vault-pw","host":"db.internal"}`,
		cfg.RazorpaySecretName: "vault-rzp",
	})

	assert.Equal(t, "vault-user", cfg.PostgresUser)
	assert.Equal(t, "vault-pw", cfg.PostgresPassword)
	assert.Equal(t, "db.internal", cfg.PostgresHost)
	assert.Equal(t, "orders", cfg.PostgresDB)
	assert.Equal(t, "5432", cfg.PostgresPort)
	assert.Equal(t, "vault-rzp", cfg.RazorpayKeySecret)
}

func TestApplySecrets_NumericPort(t *testing.T) {
	setBaseEnv(t)
	cfg := loadFromEnv()

	applySecrets(context.Background(), cfg, fakeSecrets{
		cfg.DBSecretName: `{"username":"rds","password":"pw2","host":"rds.internal","port":6432,"dbname":"shop"}`,
	})

	assert.Equal(t, "rds", cfg.PostgresUser)
	assert.Equal(t, "6432", cfg.PostgresPort)
	assert.Equal(t, "shop", cfg.PostgresDB)
	assert.Equal(t, "rzp_secret", cfg.RazorpayKeySecret)
}

func TestApplySecrets_MissingKeepsEnv(t *testing.T) {
	setBaseEnv(t)
	cfg := loadFromEnv()

	applySecrets(context.Background(), cfg, fakeSecrets{cfg.DBSecretName: "not-json"})

	assert.Equal(t, "app", cfg.PostgresUser)
	assert.Equal(t, "rzp_secret", cfg.RazorpayKeySecret)
	require.NoError(t, cfg.Validate())
}
