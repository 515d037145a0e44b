package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRazorpayBaseURL = "https://api.razorpay.com"

// RazorpayGateway creates orders through the Razorpay REST API.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayGateway(keyID, keySecret, baseURL string, timeout time.Duration) *RazorpayGateway {
	if baseURL == "" {
		baseURL = defaultRazorpayBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *RazorpayGateway) Name() string { return GatewayRazorpay }

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateSession(ctx context.Context, req SessionRequest) (*GatewaySession, error) {
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    map[string]string{"db_order_id": req.DBOrderID},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("razorpay read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr razorpayErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay returned %d: %s", resp.StatusCode, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay returned %d", resp.StatusCode)
	}

	var order razorpayOrderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("razorpay decode order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay returned an order without id")
	}

	return &GatewaySession{
		ID:        order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Key:       g.keyID,
		DBOrderID: req.DBOrderID,
		OrderID:   req.Receipt,
		Method:    GatewayRazorpay,
	}, nil
}
