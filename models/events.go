package models

import "time"

const (
	EventOrderCreated       = "order_created"
	EventOrderConfirmed     = "order_confirmed"
	EventOrderCancelled     = "order_cancelled"
	EventOrderStatusUpdated = "order_status_updated"
	EventPaymentSucceeded   = "payment_succeeded"
	EventPaymentFailed      = "payment_failed"
)

// Admin broadcast topics.
const (
	TopicNewOrder         = "new-order"
	TopicPaymentConfirmed = "payment-confirmed"
)

// OrderEvent is published on the event bus whenever an order changes state.
type OrderEvent struct {
	EventType     string        `json:"event_type"`
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	UserID        string        `json:"user_id,omitempty"`
	Amount        float64       `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewOrderEvent snapshots o into an event of the given type.
func NewOrderEvent(eventType string, o *Order) OrderEvent {
	evt := OrderEvent{
		EventType:     eventType,
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		Amount:        o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		Timestamp:     time.Now().UTC(),
	}
	if o.UserID != nil {
		evt.UserID = o.UserID.String()
	}
	return evt
}

// OrderNotification is the payload pushed to connected admin dashboards.
type OrderNotification struct {
	OrderID       string        `json:"orderId"`
	OrderNumber   string        `json:"orderNumber"`
	CustomerName  string        `json:"customerName"`
	Amount        float64       `json:"amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Status        OrderStatus   `json:"status"`
}

func NewOrderNotification(o *Order) OrderNotification {
	return OrderNotification{
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.Customer.Name,
		Amount:        o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
	}
}
