package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront-service/common/auth"
	"storefront-service/common/logger"
	commonmw "storefront-service/common/middleware"
	"storefront-service/consumer"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/kafka"
	"storefront-service/middleware"
	awspkg "storefront-service/pkg/aws"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/sender"
	"storefront-service/services"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)
	initLogger(ctx, cfg, awsCfg, awsErr)
	lg := logger.Log
	defer lg.Sync() //nolint:errcheck
	if awsErr != nil {
		lg.Warn("AWS config unavailable, AWS integrations disabled", zap.Error(awsErr))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		lg.Fatal("Failed to register validators", zap.Error(err))
	}
	auth.Configure(cfg.JWTSecret)

	db, err := database.ConnectPostgres(cfg.Postgres(), 5, lg)
	if err != nil {
		lg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.ClosePostgres(db) //nolint:errcheck
	if err := database.Migrate(db); err != nil {
		lg.Fatal("Migration failed", zap.Error(err))
	}

	var metricsClient *awspkg.MetricsClient
	var metrics services.MetricsRecorder
	if awsErr == nil && cfg.CloudWatchEnabled {
		metricsClient = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, true)
		metrics = metricsClient
	}

	catalog := buildCatalog(ctx, cfg, metrics, lg)

	users := repository.NewGormUserRepository(db)
	authService := services.NewAuthService(users, cfg.TokenTTL, lg)
	if cfg.AdminEmail != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			lg.Error("Admin bootstrap failed", zap.Error(err))
		} else if created {
			lg.Info("Admin account created", zap.String("email", cfg.AdminEmail))
		}
	}

	gateway, webhooks, verifier := buildGateway(cfg)

	events, closeEvents := buildEventBus(cfg, awsCfg, awsErr, lg)
	defer closeEvents()

	mailer := buildMailer(ctx, cfg, awsCfg, awsErr, lg)

	dispatcher := services.NewDispatcher(cfg.DispatchWorkers, cfg.DispatchQueueSize, 15*time.Second, lg)
	hub := services.NewHub(16, lg)

	effects := services.NewSideEffects(services.SideEffectsConfig{
		Runner:     dispatcher,
		Notifier:   hub,
		Events:     events,
		Mailer:     mailer,
		Metrics:    metrics,
		AdminEmail: cfg.AdminNotifyEmail,
		Logger:     lg,
	})

	orderRepo := repository.NewGormOrderRepository(db)
	orderService := services.NewOrderService(services.OrderServiceConfig{
		Repo:           orderRepo,
		Catalog:        catalog,
		Gateway:        gateway,
		Effects:        effects,
		GatewayTimeout: cfg.GatewayTimeout,
		Logger:         lg,
	})
	paymentService := services.NewPaymentService(services.PaymentServiceConfig{
		Repo:              orderRepo,
		Verifier:          verifier,
		Webhooks:          webhooks,
		Effects:           effects,
		MaxVerifyAttempts: cfg.MaxVerifyAttempts,
		Logger:            lg,
	})

	var exporter *services.Exporter
	if cfg.ExportS3Bucket != "" && awsErr == nil {
		exporter = services.NewExporter(awspkg.NewS3Store(awsCfg, cfg.ExportS3Bucket), 15*time.Minute)
	}

	r := routes.SetupRouter(routes.Controllers{
		Orders:   controllers.NewOrderController(orderService),
		Payments: controllers.NewPaymentController(paymentService),
		Admin:    controllers.NewAdminController(orderService, hub, exporter, lg),
		Auth:     controllers.NewAuthController(authService),
	}, routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		RateLimiter:    commonmw.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute),
		Metrics:        metricsClient,
		Logger:         lg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	lg.Info("Storefront service started",
		zap.String("port", cfg.Port),
		zap.String("payment_provider", gateway.Name()),
		zap.String("event_bus", cfg.EventBus))
	<-ctx.Done()
	lg.Info("Shutting down storefront service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server forced to shutdown", zap.Error(err))
	}
	dispatcher.Close()
	lg.Info("Server exited cleanly")
}

func initLogger(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, awsErr error) {
	if !cfg.CloudWatchEnabled || awsErr != nil {
		logger.Initialize(cfg.Env)
		return
	}
	cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
	if err != nil {
		logger.Initialize(cfg.Env)
		logger.Log.Warn("CloudWatch logs unavailable", zap.Error(err))
		return
	}
	logger.InitializeWithWriter(cfg.Env, cw)
}

// buildCatalog returns nil when no catalog store is configured; checkout then
// trusts client prices.
func buildCatalog(ctx context.Context, cfg *Config, metrics services.MetricsRecorder, lg *zap.Logger) services.CatalogReader {
	if cfg.MongoURL == "" {
		lg.Warn("MONGO_URL not set, catalog pricing disabled")
		return nil
	}
	client, mdb, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		lg.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	go func() {
		<-ctx.Done()
		_ = database.DisconnectMongo(client)
	}()

	products := repository.NewProductRepository(mdb)
	if cfg.RedisURL == "" {
		return products
	}
	rc, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		lg.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		return products
	}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return services.NewCachedCatalog(products, services.NewRedisProductCache(rc), cfg.CatalogCacheTTL, metrics, lg)
}

func buildGateway(cfg *Config) (services.PaymentGateway, services.WebhookParser, *services.SignatureVerifier) {
	if cfg.PaymentProvider == services.GatewayStripe {
		g := services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripePublishableKey)
		return g, g, nil
	}
	g := services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, cfg.GatewayTimeout)
	return g, nil, services.NewSignatureVerifier(cfg.RazorpayKeySecret)
}

func buildEventBus(cfg *Config, awsCfg sdkaws.Config, awsErr error, lg *zap.Logger) (services.EventPublisher, func()) {
	switch cfg.EventBus {
	case "sns":
		if awsErr != nil {
			lg.Warn("EVENT_BUS=sns but AWS is unavailable, events disabled")
			return nil, func() {}
		}
		sns := services.NewSNSEventPublisher(awspkg.NewSNSClient(awsCfg), cfg.OrderSNSTopicARN)
		return services.NewMultiPublisher(lg, sns), func() {}
	case "kafka":
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, lg)
		return services.NewMultiPublisher(lg, producer), func() {
			if err := producer.Close(); err != nil {
				lg.Warn("Kafka producer close failed", zap.Error(err))
			}
		}
	}
	return nil, func() {}
}

// buildMailer prefers the SQS queue when configured. The consumer on the same
// queue then delivers through SMTP.
func buildMailer(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, awsErr error, lg *zap.Logger) sender.EmailSender {
	var smtpSender *sender.SMTPSender
	if cfg.SMTPHost != "" {
		s, err := sender.NewSMTPSender(cfg.SMTP())
		if err != nil {
			lg.Warn("SMTP sender disabled", zap.Error(err))
		} else {
			smtpSender = s
		}
	}

	if cfg.EmailSQSQueueURL != "" && awsErr == nil {
		queue := awspkg.NewSQSQueue(awsCfg, cfg.EmailSQSQueueURL, lg)
		if smtpSender != nil {
			go consumer.NewEmailConsumer(queue, smtpSender, lg).Start(ctx)
		}
		return sender.NewQueueSender(queue)
	}
	if smtpSender != nil {
		return smtpSender
	}
	lg.Info("No mailer configured, admin emails disabled")
	return nil
}
