package services

import (
	"context"
	"math"
)

const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"

	CurrencyINR = "INR"
)

// SessionRequest asks a gateway to open one checkout attempt.
type SessionRequest struct {
	Amount    int64 // minor units (paise)
	Currency  string
	Receipt   string
	DBOrderID string
}

// GatewaySession is returned to the client to open the hosted checkout.
type GatewaySession struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Key          string `json:"key,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	DBOrderID    string `json:"dbOrderId"`
	OrderID      string `json:"orderId"`
	Method       string `json:"method"`
}

// PaymentGateway creates checkout sessions. Verification of the result is
// done locally and is not part of this interface.
type PaymentGateway interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (*GatewaySession, error)
}

// ToMinorUnits converts a rupee amount to paise.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
