package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MessageQueue is the slice of the SQS client the queue sender needs.
type MessageQueue interface {
	SendMessage(ctx context.Context, body string) error
}

// QueueSender hands emails to a queue; the email consumer delivers them.
type QueueSender struct {
	queue MessageQueue
}

func NewQueueSender(queue MessageQueue) *QueueSender {
	return &QueueSender{queue: queue}
}

func (s *QueueSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	payload, err := json.Marshal(EmailMessage{To: to, Subject: subject, Body: body})
	if err != nil {
		return SendResult{}, fmt.Errorf("encode email: %w", err)
	}
	if err := s.queue.SendMessage(ctx, string(payload)); err != nil {
		return SendResult{}, fmt.Errorf("enqueue email: %w", err)
	}
	return SendResult{MessageID: fmt.Sprintf("queued-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}
