package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod selects between the gateway path and cash on delivery.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodCOD
}

// PaymentStatus is the monetary settlement stage of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// OrderStatus is the fulfillment stage of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusReturned  OrderStatus = "returned"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusReturned:
		return true
	}
	return false
}

// CustomerSnapshot is stored on every order, including orders linked to an
// account, so the order keeps displaying what the buyer entered at checkout.
type CustomerSnapshot struct {
	Name  string `gorm:"type:varchar(120)" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email"`
	Phone string `gorm:"type:varchar(32)" json:"phone"`
}

// ShippingAddress is a denormalized copy of the address chosen at checkout.
type ShippingAddress struct {
	FullName   string `gorm:"type:varchar(120)" json:"fullName"`
	Phone      string `gorm:"type:varchar(32)" json:"phone"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City       string `gorm:"type:varchar(120)" json:"city"`
	State      string `gorm:"type:varchar(120)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postalCode"`
	Country    string `gorm:"type:varchar(60)" json:"country"`
}

// Order is the persisted checkout. Items and TotalAmount are written once at
// creation and never recomputed.
type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"orderNumber"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`

	Customer        CustomerSnapshot `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	ShippingAddress ShippingAddress  `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	Items           []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     float64          `gorm:"type:numeric(12,2);not null" json:"totalAmount"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(16);not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"paymentStatus"`
	Status        OrderStatus   `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`

	GatewayProvider  string `gorm:"type:varchar(16)" json:"gatewayProvider,omitempty"`
	GatewayOrderID   string `gorm:"type:varchar(64);index" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string `gorm:"type:varchar(64)" json:"gatewayPaymentId,omitempty"`
	VerifyAttempts   int    `gorm:"not null;default:0" json:"-"`

	PaidAt      *time.Time     `json:"paidAt,omitempty"`
	CancelledAt *time.Time     `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is a line-item snapshot. Position keeps the cart order.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"orderId"`
	Position  int       `gorm:"not null" json:"-"`
	ProductID string    `gorm:"type:varchar(64);not null" json:"productId"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Image     string    `gorm:"type:text" json:"image,omitempty"`
	Size      string    `gorm:"type:varchar(32)" json:"size,omitempty"`
	Color     string    `gorm:"type:varchar(32)" json:"color,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
}

// LineTotal is quantity times unit price.
func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// IsGuest reports whether the order was placed without an account.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// OwnedBy reports whether the order is linked to userID.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}
