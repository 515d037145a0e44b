package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// WebhookParser authenticates a provider webhook and decodes its event.
type WebhookParser interface {
	ParseWebhook(payload []byte, signatureHeader string) (stripe.Event, error)
}

// StripeGateway opens PaymentIntents. Confirmation arrives through the
// signed webhook rather than the client callback.
type StripeGateway struct {
	webhookSecret  string
	publishableKey string
}

func NewStripeGateway(secretKey, webhookSecret, publishableKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret, publishableKey: publishableKey}
}

func (g *StripeGateway) Name() string { return GatewayStripe }

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*GatewaySession, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String("Order " + req.Receipt),
	}
	params.Context = ctx
	params.AddMetadata("db_order_id", req.DBOrderID)
	params.AddMetadata("receipt", req.Receipt)
	params.SetIdempotencyKey("session-" + req.DBOrderID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &GatewaySession{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Key:          g.publishableKey,
		ClientSecret: pi.ClientSecret,
		DBOrderID:    req.DBOrderID,
		OrderID:      req.Receipt,
		Method:       GatewayStripe,
	}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
}
