package sender

import (
	"bytes"
	"fmt"
	"html/template"
)

// OrderEmail is the data rendered into the admin order notification.
type OrderEmail struct {
	OrderNumber   string
	OrderID       string
	CustomerName  string
	CustomerPhone string
	Amount        float64
	PaymentMethod string
	PaymentStatus string
	ItemCount     int
}

var orderCreatedTmpl = template.Must(template.New("order_created").Parse(`<h2>New order {{.OrderNumber}}</h2>
<p>Reference: {{.OrderID}}</p>
<table>
  <tr><td>Customer</td><td>{{.CustomerName}} {{.CustomerPhone}}</td></tr>
  <tr><td>Items</td><td>{{.ItemCount}}</td></tr>
  <tr><td>Amount</td><td>&#8377;{{printf "%.2f" .Amount}}</td></tr>
  <tr><td>Payment</td><td>{{.PaymentMethod}} ({{.PaymentStatus}})</td></tr>
</table>`))

// RenderOrderCreated returns the subject and HTML body for a new-order email.
func RenderOrderCreated(data OrderEmail) (string, string, error) {
	var buf bytes.Buffer
	if err := orderCreatedTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render order email: %w", err)
	}
	subject := fmt.Sprintf("New order %s - Rs. %.2f", data.OrderNumber, data.Amount)
	return subject, buf.String(), nil
}
