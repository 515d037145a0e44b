package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCustomerCancelAllowedStates(t *testing.T) {
	cases := map[OrderStatus]bool{
		OrderStatusPending:   true,
		OrderStatusConfirmed: true,
		OrderStatusShipped:   false,
		OrderStatusDelivered: false,
		OrderStatusCancelled: false,
		OrderStatusRefunded:  false,
		OrderStatusReturned:  false,
	}
	for status, want := range cases {
		o := &Order{Status: status, PaymentStatus: PaymentStatusPending}
		assert.Equal(t, want, TransitionCustomerCancel.Allows(o), status)
	}
}

func TestPaymentRejectedNeverTouchesPaid(t *testing.T) {
	o := &Order{Status: OrderStatusConfirmed, PaymentStatus: PaymentStatusPaid}
	assert.False(t, TransitionPaymentRejected.Allows(o))
}

func TestPaymentCapturedRecoversFromFailed(t *testing.T) {
	o := &Order{Status: OrderStatusPending, PaymentStatus: PaymentStatusFailed}
	assert.True(t, TransitionPaymentCaptured.Allows(o))

	TransitionPaymentCaptured.Apply(o)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, OrderStatusConfirmed, o.Status)
}

func TestPaymentRejectedLeavesFulfillment(t *testing.T) {
	o := &Order{Status: OrderStatusPending, PaymentStatus: PaymentStatusPending}
	TransitionPaymentRejected.Apply(o)
	assert.Equal(t, PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, OrderStatusPending, o.Status)
}

func TestOrderPatchApplyTo(t *testing.T) {
	now := time.Now()
	o := &Order{GatewayOrderID: "order_abc"}
	OrderPatch{GatewayPaymentID: "pay_1", PaidAt: &now}.ApplyTo(o)

	assert.Equal(t, "order_abc", o.GatewayOrderID)
	assert.Equal(t, "pay_1", o.GatewayPaymentID)
	assert.Equal(t, &now, o.PaidAt)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, PaymentMethodCOD.Valid())
	assert.False(t, PaymentMethod("upi").Valid())
	assert.True(t, PaymentStatusRefunded.Valid())
	assert.False(t, PaymentStatus("settled").Valid())
	assert.True(t, OrderStatusReturned.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}
