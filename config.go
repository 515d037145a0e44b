package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storefront-service/database"
	awspkg "storefront-service/pkg/aws"
	"storefront-service/sender"
	"storefront-service/services"
)

type Config struct {
	Env            string
	Port           string
	AllowedOrigins string
	RequestTimeout time.Duration

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	MongoURL        string
	MongoDB         string
	RedisURL        string
	CatalogCacheTTL time.Duration

	PaymentProvider      string
	RazorpayKeyID        string
	RazorpayKeySecret    string
	RazorpayBaseURL      string
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePublishableKey string
	GatewayTimeout       time.Duration
	MaxVerifyAttempts    int

	JWTSecret        string
	TokenTTL         time.Duration
	AdminEmail       string
	AdminPassword    string
	AdminName        string
	AdminNotifyEmail string

	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPass         string
	SMTPFrom         string
	EmailSQSQueueURL string

	EventBus         string
	OrderSNSTopicARN string
	KafkaBrokers     []string
	KafkaOrderTopic  string

	DispatchWorkers   int
	DispatchQueueSize int
	RateLimitPerSec   float64
	RateLimitBurst    int

	ExportS3Bucket string

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string

	UseSecrets         bool
	DBSecretName       string
	RazorpaySecretName string
}

// SecretSource is the part of the Secrets Manager client config needs.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
	GetSecretJSON(ctx context.Context, name string, out interface{}) error
}

// dbSecret is the JSON shape RDS rotation stores database credentials in.
type dbSecret struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DBName   string      `json:"dbname"`
}

// LoadConfig reads configuration from the environment (and .env when present)
// with an optional Secrets Manager override.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := loadFromEnv()

	if cfg.UseSecrets {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		applySecrets(ctx, cfg, awspkg.NewSecretsClient(awsCfg))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv() *Config {
	return &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),

		MongoURL:        os.Getenv("MONGO_URL"),
		MongoDB:         getEnv("MONGO_DB", "catalog"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		PaymentProvider:      strings.ToLower(getEnv("PAYMENT_PROVIDER", services.GatewayRazorpay)),
		RazorpayKeyID:        os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:    os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:      os.Getenv("RAZORPAY_BASE_URL"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		GatewayTimeout:       getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
		MaxVerifyAttempts:    getEnvInt("MAX_VERIFY_ATTEMPTS", services.DefaultMaxVerifyAttempts),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenTTL:         getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		AdminName:        getEnv("ADMIN_NAME", "Store Admin"),
		AdminNotifyEmail: os.Getenv("ADMIN_NOTIFY_EMAIL"),

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		SMTPFrom:         os.Getenv("SMTP_FROM"),
		EmailSQSQueueURL: os.Getenv("EMAIL_SQS_QUEUE_URL"),

		EventBus:         strings.ToLower(getEnv("EVENT_BUS", "none")),
		OrderSNSTopicARN: os.Getenv("ORDER_SNS_TOPIC_ARN"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:  getEnv("KAFKA_ORDER_TOPIC", "orders.events"),

		DispatchWorkers:   getEnvInt("DISPATCH_WORKERS", 4),
		DispatchQueueSize: getEnvInt("DISPATCH_QUEUE_SIZE", 256),
		RateLimitPerSec:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 20),

		ExportS3Bucket: os.Getenv("EXPORT_S3_BUCKET"),

		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
		CloudWatchLogGroup:  os.Getenv("CLOUDWATCH_LOG_GROUP"),

		UseSecrets:         os.Getenv("AWS_USE_SECRETS") == "true",
		DBSecretName:       getEnv("ORDER_DB_SECRET_NAME", "storefront/DB_CREDENTIALS"),
		RazorpaySecretName: getEnv("RAZORPAY_SECRET_NAME", "storefront/RAZORPAY_KEY_SECRET"),
	}
}

// applySecrets overrides DB credentials and the gateway secret. Missing
// secrets keep the environment values.
func applySecrets(ctx context.Context, cfg *Config, sm SecretSource) {
	var db dbSecret
	if err := sm.GetSecretJSON(ctx, cfg.DBSecretName, &db); err == nil {
		override(&cfg.PostgresUser, db.Username)
		override(&cfg.PostgresPassword, db.Password)
		override(&cfg.PostgresHost, db.Host)
		override(&cfg.PostgresPort, db.Port.String())
		override(&cfg.PostgresDB, db.DBName)
	}
	if v, err := sm.GetSecret(ctx, cfg.RazorpaySecretName); err == nil {
		override(&cfg.RazorpayKeySecret, v)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.PaymentProvider {
	case services.GatewayRazorpay:
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
		}
	case services.GatewayStripe:
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	switch c.EventBus {
	case "none":
	case "sns":
		if c.OrderSNSTopicARN == "" {
			return fmt.Errorf("ORDER_SNS_TOPIC_ARN is required for EVENT_BUS=sns")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for EVENT_BUS=kafka")
		}
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}
	if c.MaxVerifyAttempts < 1 {
		return fmt.Errorf("MAX_VERIFY_ATTEMPTS must be positive")
	}
	return nil
}

func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSLMode,
		TimeZone: c.PostgresTimeZone,
	}
}

func (c *Config) SMTP() sender.SMTPConfig {
	return sender.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPass,
		From:     c.SMTPFrom,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
