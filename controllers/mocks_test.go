package controllers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// ---- concrete mock implementing services.OrderService ----

type concreteOrderSvc struct {
	createResult *services.CreateOrderResult
	createErr    *services.ServiceError
	lastCreate   *models.CreateOrderRequest
	lastCaller   *models.Identity

	order    *models.Order
	orderErr *services.ServiceError
	lastRef  string

	list     *services.OrderResponse
	listErr  *services.ServiceError
	lastPage int
	lastLim  int
	filter   repository.OrderFilter

	lastUpdate *models.AdminStatusUpdate
	stats      *repository.OrderStats
	exportRows []models.Order
}

func (m *concreteOrderSvc) CreateOrder(_ context.Context, caller *models.Identity, req *models.CreateOrderRequest) (*services.CreateOrderResult, *services.ServiceError) {
	m.lastCreate = req
	m.lastCaller = caller
	return m.createResult, m.createErr
}

func (m *concreteOrderSvc) GetOrder(_ context.Context, ref string, caller *models.Identity) (*models.Order, *services.ServiceError) {
	m.lastRef = ref
	m.lastCaller = caller
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return m.order, nil
}

func (m *concreteOrderSvc) ListUserOrders(_ context.Context, _ uuid.UUID, page, limit int) (*services.OrderResponse, *services.ServiceError) {
	m.lastPage, m.lastLim = page, limit
	return m.list, m.listErr
}

func (m *concreteOrderSvc) ListOrders(_ context.Context, filter repository.OrderFilter, page, limit int) (*services.OrderResponse, *services.ServiceError) {
	m.filter = filter
	m.lastPage, m.lastLim = page, limit
	return m.list, m.listErr
}

func (m *concreteOrderSvc) CancelOrder(_ context.Context, _ uuid.UUID, caller *models.Identity) (*models.Order, *services.ServiceError) {
	m.lastCaller = caller
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return m.order, nil
}

func (m *concreteOrderSvc) UpdateStatus(_ context.Context, _ uuid.UUID, req *models.AdminStatusUpdate) (*models.Order, *services.ServiceError) {
	m.lastUpdate = req
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return m.order, nil
}

func (m *concreteOrderSvc) Stats(context.Context) (*repository.OrderStats, *services.ServiceError) {
	return m.stats, nil
}

func (m *concreteOrderSvc) ListForExport(_ context.Context, filter repository.OrderFilter) ([]models.Order, *services.ServiceError) {
	m.filter = filter
	return m.exportRows, nil
}

// ---- concrete mock implementing services.PaymentService ----

type concretePaymentSvc struct {
	order      *models.Order
	err        *services.ServiceError
	lastVerify *models.VerifyPaymentRequest
	payload    []byte
	signature  string
}

func (m *concretePaymentSvc) VerifyPayment(_ context.Context, req *models.VerifyPaymentRequest) (*models.Order, *services.ServiceError) {
	m.lastVerify = req
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *concretePaymentSvc) HandleStripeWebhook(_ context.Context, payload []byte, signature string) *services.ServiceError {
	m.payload = payload
	m.signature = signature
	return m.err
}

type memoryStore struct {
	keys []string
}

func (s *memoryStore) PutObject(_ context.Context, key string, _ []byte, _ string) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *memoryStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://exports.example.com/" + key, nil
}

// ---- helpers ----

// withIdentity stands in for the auth middleware.
func withIdentity(id *models.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != nil {
			c.Set(middleware.IdentityContextKey, id)
		}
		c.Next()
	}
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20240101-120000-ABCD1234",
		TotalAmount:   499,
		PaymentMethod: models.PaymentMethodOnline,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPending,
		Items:         []models.OrderItem{{ProductID: "p1", Name: "Tee", Quantity: 1, UnitPrice: 499}},
	}
}
