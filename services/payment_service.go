package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/repository"
)

const DefaultMaxVerifyAttempts = 5

type PaymentService interface {
	VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.Order, *ServiceError)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) *ServiceError
}

type PaymentServiceConfig struct {
	Repo              repository.OrderRepository
	Verifier          *SignatureVerifier
	Webhooks          WebhookParser
	Effects           *SideEffects
	MaxVerifyAttempts int
	Logger            *zap.Logger
	Now               func() time.Time
}

type paymentService struct {
	repo        repository.OrderRepository
	verifier    *SignatureVerifier
	webhooks    WebhookParser
	effects     *SideEffects
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
}

func NewPaymentService(cfg PaymentServiceConfig) PaymentService {
	s := &paymentService{
		repo:        cfg.Repo,
		verifier:    cfg.Verifier,
		webhooks:    cfg.Webhooks,
		effects:     cfg.Effects,
		maxAttempts: cfg.MaxVerifyAttempts,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxVerifyAttempts
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *paymentService) log(ctx context.Context) *zap.Logger {
	if id := logger.RequestIDFrom(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

var errPaymentFailed = badRequest("payment verification failed")

// VerifyPayment checks the gateway callback signature and settles the order.
// A previously failed order may still be paid by a later valid callback, up
// to the attempt cap. A paid order is never downgraded.
func (s *paymentService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.Order, *ServiceError) {
	if req == nil || req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" || req.DBOrderID == "" {
		return nil, badRequest("missing payment verification fields")
	}
	id, err := uuid.Parse(req.DBOrderID)
	if err != nil {
		return nil, notFound("order not found")
	}

	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFound("order not found")
	}
	if err != nil {
		s.log(ctx).Error("failed to load order for verification", zap.String("order_id", id.String()), zap.Error(err))
		return nil, internal("failed to verify payment")
	}
	if order.PaymentMethod == models.PaymentMethodCOD {
		return nil, badRequest("cash on delivery orders are not paid online")
	}
	if order.GatewayProvider == GatewayStripe {
		return nil, badRequest("order is settled by the stripe webhook")
	}

	valid := s.signatureMatches(order, req)

	if order.PaymentStatus == models.PaymentStatusPaid {
		if valid {
			return order, nil
		}
		s.log(ctx).Warn("invalid signature for paid order ignored", zap.String("order_id", id.String()))
		return nil, errPaymentFailed
	}

	allowed, err := s.repo.RegisterVerifyAttempt(ctx, id, s.maxAttempts)
	if err != nil {
		s.log(ctx).Error("failed to count verify attempt", zap.String("order_id", id.String()), zap.Error(err))
		return nil, internal("failed to verify payment")
	}
	if !allowed {
		s.log(ctx).Warn("verify attempts exhausted", zap.String("order_id", id.String()), zap.Int("max", s.maxAttempts))
		return nil, &ServiceError{StatusCode: http.StatusTooManyRequests, Message: "too many verification attempts"}
	}

	if !valid {
		return nil, s.reject(ctx, order)
	}
	return s.capture(ctx, order, models.OrderPatch{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
	})
}

func (s *paymentService) signatureMatches(order *models.Order, req *models.VerifyPaymentRequest) bool {
	if s.verifier == nil {
		return false
	}
	if order.GatewayOrderID != "" && order.GatewayOrderID != req.GatewayOrderID {
		return false
	}
	return s.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
}

// capture applies the guarded mark-paid. Losing the race to a concurrent
// capture still reports success.
func (s *paymentService) capture(ctx context.Context, order *models.Order, patch models.OrderPatch) (*models.Order, *ServiceError) {
	now := s.now().UTC()
	patch.PaidAt = &now

	ok, err := s.repo.ApplyTransition(ctx, order.ID, models.TransitionPaymentCaptured, patch)
	if err != nil {
		s.log(ctx).Error("failed to mark order paid", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, internal("failed to verify payment")
	}
	if !ok {
		current, err := s.repo.FindByID(ctx, order.ID)
		if err == nil && current.PaymentStatus == models.PaymentStatusPaid {
			return current, nil
		}
		s.log(ctx).Warn("order not payable in its current state",
			zap.String("order_id", order.ID.String()), zap.String("status", string(order.Status)))
		return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "order can no longer be paid"}
	}

	models.TransitionPaymentCaptured.Apply(order)
	patch.ApplyTo(order)
	s.log(ctx).Info("payment captured",
		zap.String("order_id", order.ID.String()),
		zap.String("gateway_payment_id", order.GatewayPaymentID))
	s.effects.PaymentSucceeded(order)
	return order, nil
}

func (s *paymentService) reject(ctx context.Context, order *models.Order) *ServiceError {
	ok, err := s.repo.ApplyTransition(ctx, order.ID, models.TransitionPaymentRejected, models.OrderPatch{})
	if err != nil {
		s.log(ctx).Error("failed to mark payment failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return internal("failed to verify payment")
	}
	if ok {
		models.TransitionPaymentRejected.Apply(order)
		s.effects.PaymentFailed(order)
	}
	s.log(ctx).Warn("payment signature mismatch", zap.String("order_id", order.ID.String()))
	return errPaymentFailed
}

// HandleStripeWebhook settles orders from signed Stripe events. Events that
// do not concern a known order are acknowledged and ignored.
func (s *paymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) *ServiceError {
	if s.webhooks == nil {
		return notFound("webhook not configured")
	}
	event, err := s.webhooks.ParseWebhook(payload, signature)
	if err != nil {
		s.log(ctx).Warn("stripe webhook rejected", zap.Error(err))
		return badRequest("invalid webhook signature")
	}

	eventType := string(event.Type)
	if eventType != "payment_intent.succeeded" && eventType != "payment_intent.payment_failed" {
		s.log(ctx).Debug("stripe event ignored", zap.String("type", eventType))
		return nil
	}

	var intent stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &intent) != nil {
		return badRequest("malformed payment intent")
	}
	id, err := uuid.Parse(intent.Metadata["db_order_id"])
	if err != nil {
		s.log(ctx).Warn("payment intent without order reference", zap.String("intent", intent.ID))
		return nil
	}

	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		s.log(ctx).Warn("payment intent for unknown order", zap.String("intent", intent.ID), zap.String("order_id", id.String()))
		return nil
	}
	if err != nil {
		s.log(ctx).Error("failed to load order for webhook", zap.String("order_id", id.String()), zap.Error(err))
		return internal("failed to process webhook")
	}
	if order.GatewayOrderID != "" && order.GatewayOrderID != intent.ID {
		s.log(ctx).Warn("payment intent does not match order session",
			zap.String("intent", intent.ID), zap.String("expected", order.GatewayOrderID))
		return nil
	}

	if eventType == "payment_intent.payment_failed" {
		if serr := s.reject(ctx, order); serr != errPaymentFailed {
			return serr
		}
		return nil
	}

	patch := models.OrderPatch{GatewayProvider: GatewayStripe, GatewayOrderID: intent.ID}
	if intent.LatestCharge != nil {
		patch.GatewayPaymentID = intent.LatestCharge.ID
	}
	if _, serr := s.capture(ctx, order, patch); serr != nil && serr.StatusCode >= http.StatusInternalServerError {
		return serr
	}
	return nil
}
