package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"storefront-service/models"
)

var exportHeader = []string{
	"order_number", "created_at", "customer", "phone", "email", "items",
	"total", "payment_method", "payment_status", "status",
}

// WriteOrdersCSV writes one row per order.
func WriteOrdersCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			o.OrderNumber,
			o.CreatedAt.UTC().Format(time.RFC3339),
			sanitizeCell(o.Customer.Name),
			sanitizeCell(o.Customer.Phone),
			sanitizeCell(o.Customer.Email),
			sanitizeCell(itemSummary(o.Items)),
			strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
			string(o.PaymentMethod),
			string(o.PaymentStatus),
			string(o.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sanitizeCell quotes values a spreadsheet would evaluate as a formula.
func sanitizeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

func itemSummary(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return strings.Join(parts, "; ")
}

// ExportStore is where uploaded exports live. awspkg.S3Store implements it.
type ExportStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Exporter uploads CSV exports and returns a temporary download link.
type Exporter struct {
	store  ExportStore
	expiry time.Duration
	now    func() time.Time
}

func NewExporter(store ExportStore, expiry time.Duration) *Exporter {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Exporter{store: store, expiry: expiry, now: time.Now}
}

func (e *Exporter) Upload(ctx context.Context, orders []models.Order) (*ExportResult, error) {
	var buf bytes.Buffer
	if err := WriteOrdersCSV(&buf, orders); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	now := e.now().UTC()
	key := fmt.Sprintf("exports/orders/%s-%s.csv", now.Format("20060102-150405"), strings.ToLower(randomSuffix()))
	if err := e.store.PutObject(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, err
	}
	url, err := e.store.PresignGet(ctx, key, e.expiry)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Key: key, URL: url, Rows: len(orders), ExpiresAt: now.Add(e.expiry)}, nil
}
