package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"storefront-service/models"
	"storefront-service/repository"
)

// memoryOrderRepository applies transitions with the same guard semantics as
// the SQL implementation.
type memoryOrderRepository struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	createErr error
	updateErr error
}

func newMemoryOrderRepository() *memoryOrderRepository {
	return &memoryOrderRepository{orders: map[uuid.UUID]*models.Order{}}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

func (r *memoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memoryOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *memoryOrderRepository) FindByOrderNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			return cloneOrder(o), nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (r *memoryOrderRepository) list(match func(*models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range r.orders {
		if match(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return out
}

func page(all []models.Order, p, limit int) []models.Order {
	start := (p - 1) * limit
	if start >= len(all) {
		return []models.Order{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (r *memoryOrderRepository) FindByUserID(_ context.Context, userID uuid.UUID, p, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.list(func(o *models.Order) bool { return o.OwnedBy(userID) })
	return page(all, p, limit), int64(len(all)), nil
}

func (r *memoryOrderRepository) FindAll(_ context.Context, f repository.OrderFilter, p, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.list(func(o *models.Order) bool {
		return (f.Status == "" || o.Status == f.Status) && (f.PaymentStatus == "" || o.PaymentStatus == f.PaymentStatus)
	})
	return page(all, p, limit), int64(len(all)), nil
}

func (r *memoryOrderRepository) ApplyTransition(_ context.Context, id uuid.UUID, t models.Transition, patch models.OrderPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return false, r.updateErr
	}
	o, ok := r.orders[id]
	if !ok || !t.Allows(o) {
		return false, nil
	}
	t.Apply(o)
	patch.ApplyTo(o)
	return true, nil
}

func (r *memoryOrderRepository) RegisterVerifyAttempt(_ context.Context, id uuid.UUID, max int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.VerifyAttempts >= max {
		return false, nil
	}
	o.VerifyAttempts++
	return true, nil
}

func (r *memoryOrderRepository) SetStatus(_ context.Context, id uuid.UUID, status *models.OrderStatus, payment *models.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	if status != nil {
		o.Status = *status
	}
	if payment != nil {
		o.PaymentStatus = *payment
	}
	return true, nil
}

func (r *memoryOrderRepository) Stats(_ context.Context) (*repository.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.OrderStats{
		ByStatus:        map[models.OrderStatus]int64{},
		ByPaymentStatus: map[models.PaymentStatus]int64{},
	}
	for _, o := range r.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		stats.ByPaymentStatus[o.PaymentStatus]++
		if o.PaymentStatus == models.PaymentStatusPaid {
			stats.TotalRevenue += o.TotalAmount
		}
	}
	stats.PendingPayments = stats.ByPaymentStatus[models.PaymentStatusPending]
	return stats, nil
}

func (r *memoryOrderRepository) ListForExport(_ context.Context, f repository.OrderFilter, limit int) ([]models.Order, error) {
	all, _, err := r.FindAll(context.Background(), f, 1, limit)
	return all, err
}

// get returns a copy of the stored row for assertions.
func (r *memoryOrderRepository) get(id uuid.UUID) models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *cloneOrder(r.orders[id])
}

// syncRunner runs tasks inline so side effects are observable in tests.
type syncRunner struct {
	mu    sync.Mutex
	names []string
}

func (r *syncRunner) Submit(name string, task Task) bool {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	_ = task(context.Background())
	return true
}

type fakeGateway struct {
	err      error
	requests []SessionRequest
}

func (g *fakeGateway) Name() string { return GatewayRazorpay }

func (g *fakeGateway) CreateSession(ctx context.Context, req SessionRequest) (*GatewaySession, error) {
	g.requests = append(g.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.err != nil {
		return nil, g.err
	}
	return &GatewaySession{
		ID:        "order_gw_" + req.Receipt,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Key:       "rzp_test_key",
		DBOrderID: req.DBOrderID,
		OrderID:   req.Receipt,
		Method:    GatewayRazorpay,
	}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordingNotifier) Publish(topic string, _ interface{}) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
	return 1
}

var errStorage = errors.New("storage unavailable")
