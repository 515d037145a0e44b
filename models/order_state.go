package models

import "time"

// Transition is a guarded state change. Empty From lists match any current
// value; empty To values leave the field untouched.
type Transition struct {
	Name        string
	FromStatus  []OrderStatus
	FromPayment []PaymentStatus
	ToStatus    OrderStatus
	ToPayment   PaymentStatus
}

var (
	// COD orders skip the gateway and are confirmed right after creation.
	TransitionConfirmCOD = Transition{
		Name:        "confirm_cod",
		FromStatus:  []OrderStatus{OrderStatusPending},
		FromPayment: []PaymentStatus{PaymentStatusPending},
		ToStatus:    OrderStatusConfirmed,
	}

	// TransitionAttachGateway records the gateway session on an unpaid order.
	TransitionAttachGateway = Transition{
		Name:        "attach_gateway",
		FromPayment: []PaymentStatus{PaymentStatusPending, PaymentStatusFailed},
	}

	// A failed attempt may still be followed by a successful one.
	TransitionPaymentCaptured = Transition{
		Name:        "payment_captured",
		FromStatus:  []OrderStatus{OrderStatusPending, OrderStatusConfirmed},
		FromPayment: []PaymentStatus{PaymentStatusPending, PaymentStatusFailed},
		ToStatus:    OrderStatusConfirmed,
		ToPayment:   PaymentStatusPaid,
	}

	// Paid is never downgraded by a bad signature.
	TransitionPaymentRejected = Transition{
		Name:        "payment_rejected",
		FromPayment: []PaymentStatus{PaymentStatusPending, PaymentStatusFailed},
		ToPayment:   PaymentStatusFailed,
	}

	TransitionCustomerCancel = Transition{
		Name:       "customer_cancel",
		FromStatus: []OrderStatus{OrderStatusPending, OrderStatusConfirmed},
		ToStatus:   OrderStatusCancelled,
	}
)

// Allows reports whether o is in a state the transition may start from.
func (t Transition) Allows(o *Order) bool {
	return containsStatus(t.FromStatus, o.Status) && containsPayment(t.FromPayment, o.PaymentStatus)
}

// Apply sets the target states on o without checking Allows.
func (t Transition) Apply(o *Order) {
	if t.ToStatus != "" {
		o.Status = t.ToStatus
	}
	if t.ToPayment != "" {
		o.PaymentStatus = t.ToPayment
	}
}

func containsStatus(list []OrderStatus, s OrderStatus) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPayment(list []PaymentStatus, s PaymentStatus) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// OrderPatch carries the non-state columns written together with a transition.
// Zero fields are left untouched.
type OrderPatch struct {
	GatewayProvider  string
	GatewayOrderID   string
	GatewayPaymentID string
	PaidAt           *time.Time
	CancelledAt      *time.Time
}

// ApplyTo copies the set fields onto o.
func (p OrderPatch) ApplyTo(o *Order) {
	if p.GatewayProvider != "" {
		o.GatewayProvider = p.GatewayProvider
	}
	if p.GatewayOrderID != "" {
		o.GatewayOrderID = p.GatewayOrderID
	}
	if p.GatewayPaymentID != "" {
		o.GatewayPaymentID = p.GatewayPaymentID
	}
	if p.PaidAt != nil {
		o.PaidAt = p.PaidAt
	}
	if p.CancelledAt != nil {
		o.CancelledAt = p.CancelledAt
	}
}
