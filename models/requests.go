package models

// CheckoutItem is one cart line as submitted by the client. Price, Name and
// Image are display hints when the catalog is available.
type CheckoutItem struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// CreateOrderRequest is the body of POST /orders/create.
type CreateOrderRequest struct {
	Items           []CheckoutItem    `json:"items"`
	ShippingAddress *ShippingAddress  `json:"shippingAddress"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod" binding:"omitempty,paymentmethod"`
	Customer        *CustomerSnapshot `json:"customer"`
}

// VerifyPaymentRequest is the gateway callback relayed by the client.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
	DBOrderID        string `json:"dbOrderId"`
}

// AdminStatusUpdate sets either or both states directly.
type AdminStatusUpdate struct {
	Status        *OrderStatus   `json:"status" binding:"omitempty,orderstatus"`
	PaymentStatus *PaymentStatus `json:"paymentStatus" binding:"omitempty,paymentstatus"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
