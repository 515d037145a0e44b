package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/models"
	awspkg "storefront-service/pkg/aws"
	"storefront-service/sender"
)

// SideEffects schedules the best-effort work that follows a state change:
// admin broadcast, admin email, bus events and business metrics. Nothing here
// can fail the request; every dependency is optional.
type SideEffects struct {
	runner     TaskRunner
	notifier   Notifier
	events     EventPublisher
	mailer     sender.EmailSender
	metrics    MetricsRecorder
	adminEmail string
	logger     *zap.Logger
}

type SideEffectsConfig struct {
	Runner     TaskRunner
	Notifier   Notifier
	Events     EventPublisher
	Mailer     sender.EmailSender
	Metrics    MetricsRecorder
	AdminEmail string
	Logger     *zap.Logger
}

func NewSideEffects(cfg SideEffectsConfig) *SideEffects {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SideEffects{
		runner:     cfg.Runner,
		notifier:   cfg.Notifier,
		events:     cfg.Events,
		mailer:     cfg.Mailer,
		metrics:    cfg.Metrics,
		adminEmail: cfg.AdminEmail,
		logger:     logger,
	}
}

func (s *SideEffects) OrderCreated(o *models.Order) {
	if s == nil {
		return
	}
	s.broadcast(models.TopicNewOrder, models.NewOrderNotification(o))
	s.mailAdmin(o)
	s.publish(models.NewOrderEvent(models.EventOrderCreated, o))
	s.count(awspkg.MetricOrdersCreated, string(o.PaymentMethod))
	s.value(awspkg.MetricOrderAmount, o.TotalAmount, string(o.PaymentMethod))
}

func (s *SideEffects) OrderConfirmed(o *models.Order) {
	if s == nil {
		return
	}
	s.publish(models.NewOrderEvent(models.EventOrderConfirmed, o))
}

func (s *SideEffects) PaymentSucceeded(o *models.Order) {
	if s == nil {
		return
	}
	s.broadcast(models.TopicPaymentConfirmed, models.NewOrderNotification(o))
	s.publish(models.NewOrderEvent(models.EventPaymentSucceeded, o))
	s.count(awspkg.MetricPaymentSucceeded, o.GatewayProvider)
}

func (s *SideEffects) PaymentFailed(o *models.Order) {
	if s == nil {
		return
	}
	s.publish(models.NewOrderEvent(models.EventPaymentFailed, o))
	s.count(awspkg.MetricPaymentFailed, o.GatewayProvider)
}

func (s *SideEffects) OrderCancelled(o *models.Order) {
	if s == nil {
		return
	}
	s.publish(models.NewOrderEvent(models.EventOrderCancelled, o))
	s.count(awspkg.MetricOrdersCancelled, string(o.PaymentMethod))
}

func (s *SideEffects) StatusUpdated(o *models.Order) {
	if s == nil {
		return
	}
	s.publish(models.NewOrderEvent(models.EventOrderStatusUpdated, o))
}

// GatewayError records a failed session creation.
func (s *SideEffects) GatewayError(provider string) {
	if s == nil {
		return
	}
	s.count(awspkg.MetricGatewayErrors, provider)
}

func (s *SideEffects) submit(name string, task Task) {
	if s.runner == nil {
		return
	}
	if !s.runner.Submit(name, task) {
		s.logger.Warn("side effect dropped", zap.String("task", name))
	}
}

func (s *SideEffects) broadcast(topic string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.submit("broadcast:"+topic, func(ctx context.Context) error {
		s.notifier.Publish(topic, payload)
		return nil
	})
}

func (s *SideEffects) publish(evt models.OrderEvent) {
	if s.events == nil {
		return
	}
	s.submit("event:"+evt.EventType, func(ctx context.Context) error {
		return s.events.PublishEvent(ctx, evt)
	})
}

func (s *SideEffects) mailAdmin(o *models.Order) {
	if s.mailer == nil || s.adminEmail == "" {
		return
	}
	data := sender.OrderEmail{
		OrderNumber:   o.OrderNumber,
		OrderID:       o.ID.String(),
		CustomerName:  o.Customer.Name,
		CustomerPhone: o.Customer.Phone,
		Amount:        o.TotalAmount,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		ItemCount:     len(o.Items),
	}
	s.submit("email:order_created", func(ctx context.Context) error {
		subject, body, err := sender.RenderOrderCreated(data)
		if err != nil {
			return err
		}
		if _, err := s.mailer.SendEmail(ctx, s.adminEmail, subject, body); err != nil {
			return fmt.Errorf("admin email for %s: %w", data.OrderNumber, err)
		}
		if s.metrics != nil {
			if err := s.metrics.RecordCount(ctx, awspkg.MetricEmailsQueued, nil); err != nil {
				s.logger.Debug("emails metric not recorded", zap.String("order_number", data.OrderNumber), zap.Error(err))
			}
		}
		return nil
	})
}

func (s *SideEffects) count(metric, dimension string) {
	if s.metrics == nil {
		return
	}
	s.submit("metric:"+metric, func(ctx context.Context) error {
		return s.metrics.RecordCount(ctx, metric, dimensions(dimension))
	})
}

func (s *SideEffects) value(metric string, v float64, dimension string) {
	if s.metrics == nil {
		return
	}
	s.submit("metric:"+metric, func(ctx context.Context) error {
		return s.metrics.RecordValue(ctx, metric, v, dimensions(dimension))
	})
}

func dimensions(v string) map[string]string {
	if v == "" {
		return nil
	}
	return map[string]string{"Kind": v}
}
