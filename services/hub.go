package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notifier is a publish-only broadcast to connected admin dashboards.
type Notifier interface {
	Publish(topic string, payload interface{}) int
}

// Notification is one message pushed to subscribers.
type Notification struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}

// Hub fans notifications out to in-process subscribers. Delivery is at most
// once: a subscriber whose buffer is full misses the message, and nothing is
// kept for subscribers that connect later.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Notification
	nextID      uint64
	buffer      int
	logger      *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subscribers: make(map[uint64]chan Notification),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a listener. Call Unsubscribe with the returned id when done.
func (h *Hub) Subscribe() (uint64, <-chan Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan Notification, h.buffer)
	h.subscribers[h.nextID] = ch
	return h.nextID, ch
}

func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish never blocks and returns how many subscribers received the message.
func (h *Hub) Publish(topic string, payload interface{}) int {
	n := Notification{Topic: topic, Payload: payload, SentAt: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for id, ch := range h.subscribers {
		select {
		case ch <- n:
			delivered++
		default:
			h.logger.Debug("admin subscriber lagging, notification dropped",
				zap.Uint64("subscriber", id), zap.String("topic", topic))
		}
	}
	return delivered
}

// Subscribers returns the number of connected listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
