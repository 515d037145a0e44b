package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	awspkg "storefront-service/pkg/aws"
	"storefront-service/sender"
)

// Poller is satisfied by awspkg.SQSQueue.
type Poller interface {
	StartPolling(ctx context.Context, handler awspkg.MessageHandler) error
}

// EmailConsumer drains the outbound email queue into SMTP.
type EmailConsumer struct {
	poller Poller
	sender sender.EmailSender
	logger *zap.Logger
}

func NewEmailConsumer(poller Poller, s sender.EmailSender, logger *zap.Logger) *EmailConsumer {
	return &EmailConsumer{poller: poller, sender: s, logger: logger}
}

// Start blocks until ctx is cancelled.
func (c *EmailConsumer) Start(ctx context.Context) {
	c.logger.Info("email consumer started")
	if err := c.poller.StartPolling(ctx, c.Handle); err != nil && ctx.Err() == nil {
		c.logger.Error("email consumer stopped", zap.Error(err))
	}
}

// Handle delivers one queued email. Undecodable messages are acknowledged
// (returned nil) so they do not loop forever; delivery failures are retried.
func (c *EmailConsumer) Handle(ctx context.Context, body string) error {
	var msg sender.EmailMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		c.logger.Error("discarding malformed email message", zap.Error(err))
		return nil
	}
	if msg.To == "" {
		c.logger.Error("discarding email message without recipient", zap.String("subject", msg.Subject))
		return nil
	}

	res, err := c.sender.SendEmail(ctx, msg.To, msg.Subject, msg.Body)
	if err != nil {
		return fmt.Errorf("deliver email to %s: %w", msg.To, err)
	}
	c.logger.Info("email delivered", zap.String("to", msg.To), zap.String("message_id", res.MessageID))
	return nil
}
