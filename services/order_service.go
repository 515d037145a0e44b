package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/repository"
)

// ExportLimit caps the number of rows in one export.
const ExportLimit = 10000

// Checkout bounds. MaxOrderTotal keeps totals inside numeric(12,2).
const (
	MaxItemQuantity = 1000
	MaxUnitPrice    = 1_000_000.0
	MaxOrderTotal   = 9_999_999_999.99
)

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"totalOrders"`
	TotalPages  int64 `json:"totalPages"`
	HasMore     bool  `json:"hasMore"`
}

// CreateOrderResult identifies the persisted order and, for online orders,
// the gateway session the client opens. It is returned even when the gateway
// step fails so the client keeps a record of its attempt.
type CreateOrderResult struct {
	Order   *models.Order
	Session *GatewaySession
	Gateway string
}

type OrderService interface {
	CreateOrder(ctx context.Context, caller *models.Identity, req *models.CreateOrderRequest) (*CreateOrderResult, *ServiceError)
	GetOrder(ctx context.Context, ref string, caller *models.Identity) (*models.Order, *ServiceError)
	ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, *ServiceError)
	ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) (*OrderResponse, *ServiceError)
	CancelOrder(ctx context.Context, id uuid.UUID, caller *models.Identity) (*models.Order, *ServiceError)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *models.AdminStatusUpdate) (*models.Order, *ServiceError)
	Stats(ctx context.Context) (*repository.OrderStats, *ServiceError)
	ListForExport(ctx context.Context, filter repository.OrderFilter) ([]models.Order, *ServiceError)
}

type OrderServiceConfig struct {
	Repo           repository.OrderRepository
	Catalog        CatalogReader
	Gateway        PaymentGateway
	Effects        *SideEffects
	GatewayTimeout time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

type orderService struct {
	repo           repository.OrderRepository
	catalog        CatalogReader
	gateway        PaymentGateway
	effects        *SideEffects
	gatewayTimeout time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

func NewOrderService(cfg OrderServiceConfig) OrderService {
	s := &orderService{
		repo:           cfg.Repo,
		catalog:        cfg.Catalog,
		gateway:        cfg.Gateway,
		effects:        cfg.Effects,
		gatewayTimeout: cfg.GatewayTimeout,
		logger:         cfg.Logger,
		now:            cfg.Now,
	}
	if s.gatewayTimeout <= 0 {
		s.gatewayTimeout = 10 * time.Second
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *orderService) log(ctx context.Context) *zap.Logger {
	if id := logger.RequestIDFrom(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

// CreateOrder validates the cart, snapshots it into a pending order and then
// either confirms it (COD) or opens a gateway session (online).
func (s *orderService) CreateOrder(ctx context.Context, caller *models.Identity, req *models.CreateOrderRequest) (*CreateOrderResult, *ServiceError) {
	if serr := validateCheckout(req); serr != nil {
		return nil, serr
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodOnline
	}

	items, serr := s.snapshotItems(ctx, req.Items)
	if serr != nil {
		return nil, serr
	}

	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	if total > MaxOrderTotal {
		return nil, badRequest("order total exceeds the allowed maximum")
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(s.now()),
		Customer:        customerSnapshot(req, caller),
		ShippingAddress: *req.ShippingAddress,
		Items:           items,
		TotalAmount:     roundAmount(total),
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentStatusPending,
		Status:          models.OrderStatusPending,
	}
	if caller != nil {
		uid := caller.UserID
		order.UserID = &uid
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.log(ctx).Error("failed to persist order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, internal("failed to create order")
	}
	s.log(ctx).Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", string(method)),
		zap.Float64("amount", order.TotalAmount),
		zap.Bool("guest", order.IsGuest()))
	s.effects.OrderCreated(order)

	result := &CreateOrderResult{Order: order}
	if method == models.PaymentMethodCOD {
		return s.confirmCOD(ctx, result)
	}
	return s.openSession(ctx, result)
}

func (s *orderService) confirmCOD(ctx context.Context, result *CreateOrderResult) (*CreateOrderResult, *ServiceError) {
	order := result.Order
	ok, err := s.repo.ApplyTransition(ctx, order.ID, models.TransitionConfirmCOD, models.OrderPatch{})
	if err != nil {
		s.log(ctx).Error("failed to confirm cod order", zap.String("order_id", order.ID.String()), zap.Error(err))
		return result, internal("order saved but could not be confirmed")
	}
	if !ok {
		s.log(ctx).Warn("cod order no longer pending", zap.String("order_id", order.ID.String()))
		return result, nil
	}
	models.TransitionConfirmCOD.Apply(order)
	s.effects.OrderConfirmed(order)
	return result, nil
}

// openSession runs detached from the client's context: once the order is
// persisted, a client disconnect must not abort the gateway round-trip.
func (s *orderService) openSession(ctx context.Context, result *CreateOrderResult) (*CreateOrderResult, *ServiceError) {
	order := result.Order
	if s.gateway == nil {
		s.log(ctx).Error("online order without a configured gateway", zap.String("order_id", order.ID.String()))
		return result, &ServiceError{StatusCode: http.StatusBadGateway, Message: "online payments are unavailable"}
	}
	result.Gateway = s.gateway.Name()

	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()

	session, err := s.gateway.CreateSession(gctx, SessionRequest{
		Amount:    ToMinorUnits(order.TotalAmount),
		Currency:  CurrencyINR,
		Receipt:   order.OrderNumber,
		DBOrderID: order.ID.String(),
	})
	if err != nil {
		s.log(ctx).Error("gateway session failed",
			zap.String("gateway", result.Gateway), zap.String("order_id", order.ID.String()), zap.Error(err))
		s.effects.GatewayError(result.Gateway)
		return result, &ServiceError{StatusCode: http.StatusBadGateway, Message: "failed to create payment session"}
	}

	patch := models.OrderPatch{GatewayProvider: result.Gateway, GatewayOrderID: session.ID}
	ok, err := s.repo.ApplyTransition(gctx, order.ID, models.TransitionAttachGateway, patch)
	switch {
	case err != nil:
		s.log(ctx).Error("failed to store gateway order id", zap.String("order_id", order.ID.String()), zap.Error(err))
	case !ok:
		s.log(ctx).Warn("order left the unpaid state before the session was stored", zap.String("order_id", order.ID.String()))
	default:
		patch.ApplyTo(order)
	}

	result.Session = session
	return result, nil
}

func validateCheckout(req *models.CreateOrderRequest) *ServiceError {
	if req == nil || len(req.Items) == 0 {
		return badRequest("at least one item is required")
	}
	if req.ShippingAddress == nil || strings.TrimSpace(req.ShippingAddress.Line1) == "" {
		return badRequest("shipping address is required")
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return badRequest("unknown payment method")
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return badRequest(fmt.Sprintf("item %d: product is required", i+1))
		}
		if it.Quantity <= 0 {
			return badRequest(fmt.Sprintf("item %d: quantity must be positive", i+1))
		}
		if it.Quantity > MaxItemQuantity {
			return badRequest(fmt.Sprintf("item %d: quantity must not exceed %d", i+1, MaxItemQuantity))
		}
		if it.Price < 0 {
			return badRequest(fmt.Sprintf("item %d: price must not be negative", i+1))
		}
		if it.Price > MaxUnitPrice || math.IsNaN(it.Price) {
			return badRequest(fmt.Sprintf("item %d: price is out of range", i+1))
		}
	}
	return nil
}

// snapshotItems copies each cart line into an immutable order item. With a
// catalog, price, name and image come from it and the client values are
// ignored.
func (s *orderService) snapshotItems(ctx context.Context, in []models.CheckoutItem) ([]models.OrderItem, *ServiceError) {
	var products map[string]models.Product
	if s.catalog != nil {
		ids := make([]string, 0, len(in))
		seen := make(map[string]bool, len(in))
		for _, it := range in {
			key := catalogKey(it.ProductID)
			if !seen[key] {
				seen[key] = true
				ids = append(ids, key)
			}
		}
		var err error
		products, err = s.catalog.FindByIDs(ctx, ids)
		if err != nil {
			s.log(ctx).Error("catalog lookup failed", zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "product catalog unavailable"}
		}
	} else {
		s.log(ctx).Warn("no catalog configured, using client-submitted prices")
	}

	items := make([]models.OrderItem, 0, len(in))
	for i, it := range in {
		item := models.OrderItem{
			Position:  i,
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		}
		if products != nil {
			item.ProductID = catalogKey(it.ProductID)
			p, ok := products[item.ProductID]
			if !ok {
				return nil, badRequest("unknown product " + it.ProductID)
			}
			if p.Price > MaxUnitPrice {
				s.log(ctx).Error("catalog price out of range", zap.String("product_id", item.ProductID), zap.Float64("price", p.Price))
				return nil, badRequest("product " + it.ProductID + " cannot be ordered")
			}
			item.UnitPrice = p.Price
			if p.Name != "" {
				item.Name = p.Name
			}
			if img := p.PrimaryImage(); img != "" {
				item.Image = img
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func customerSnapshot(req *models.CreateOrderRequest, caller *models.Identity) models.CustomerSnapshot {
	var c models.CustomerSnapshot
	if req.Customer != nil {
		c = *req.Customer
	}
	if c.Name == "" {
		c.Name = req.ShippingAddress.FullName
	}
	if c.Phone == "" {
		c.Phone = req.ShippingAddress.Phone
	}
	if c.Email == "" && caller != nil {
		c.Email = caller.Email
	}
	return c
}

func newOrderNumber(now time.Time) string {
	return "ORD-" + now.UTC().Format("20060102-150405") + "-" + randomSuffix()
}

func randomSuffix() string {
	return uuid.New().String()[:8]
}

// catalogKey matches the lowercase hex form the product store keys by.
func catalogKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetOrder looks an order up by storage key or order number. Guest orders are
// visible to whoever holds the reference; linked orders only to their owner
// and admins.
func (s *orderService) GetOrder(ctx context.Context, ref string, caller *models.Identity) (*models.Order, *ServiceError) {
	order, serr := s.load(ctx, ref)
	if serr != nil {
		return nil, serr
	}
	if serr := authorize(order, caller, "view"); serr != nil {
		return nil, serr
	}
	return order, nil
}

func (s *orderService) load(ctx context.Context, ref string) (*models.Order, *ServiceError) {
	var (
		order *models.Order
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		order, err = s.repo.FindByID(ctx, id)
	} else {
		order, err = s.repo.FindByOrderNumber(ctx, ref)
	}
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFound("order not found")
	}
	if err != nil {
		s.log(ctx).Error("failed to load order", zap.String("ref", ref), zap.Error(err))
		return nil, internal("failed to fetch order")
	}
	return order, nil
}

func authorize(order *models.Order, caller *models.Identity, action string) *ServiceError {
	if order.IsGuest() || caller.IsAdmin() {
		return nil
	}
	if caller == nil {
		return &ServiceError{StatusCode: http.StatusUnauthorized, Message: "authentication required"}
	}
	if !order.OwnedBy(caller.UserID) {
		return &ServiceError{StatusCode: http.StatusForbidden, Message: "not allowed to " + action + " this order"}
	}
	return nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.log(ctx).Error("failed to fetch user orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, internal("failed to fetch orders")
	}
	return newOrderResponse(orders, total, page, limit), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.repo.FindAll(ctx, filter, page, limit)
	if err != nil {
		s.log(ctx).Error("failed to fetch orders", zap.Error(err))
		return nil, internal("failed to fetch orders")
	}
	return newOrderResponse(orders, total, page, limit), nil
}

func newOrderResponse(orders []models.Order, total int64, page, limit int) *OrderResponse {
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// CancelOrder moves an order to cancelled if it has not shipped yet.
func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID, caller *models.Identity) (*models.Order, *ServiceError) {
	order, serr := s.load(ctx, id.String())
	if serr != nil {
		return nil, serr
	}
	if serr := authorize(order, caller, "cancel"); serr != nil {
		return nil, serr
	}

	now := s.now().UTC()
	patch := models.OrderPatch{CancelledAt: &now}
	ok, err := s.repo.ApplyTransition(ctx, id, models.TransitionCustomerCancel, patch)
	if err != nil {
		s.log(ctx).Error("failed to cancel order", zap.String("order_id", id.String()), zap.Error(err))
		return nil, internal("failed to cancel order")
	}
	if !ok {
		return nil, badRequest("cannot cancel at this stage")
	}

	models.TransitionCustomerCancel.Apply(order)
	patch.ApplyTo(order)
	s.log(ctx).Info("order cancelled", zap.String("order_id", id.String()))
	s.effects.OrderCancelled(order)
	return order, nil
}

// UpdateStatus is the privileged admin setter. Only enum validity is checked.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *models.AdminStatusUpdate) (*models.Order, *ServiceError) {
	if req == nil || (req.Status == nil && req.PaymentStatus == nil) {
		return nil, badRequest("status or paymentStatus is required")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, badRequest("invalid status")
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return nil, badRequest("invalid paymentStatus")
	}

	ok, err := s.repo.SetStatus(ctx, id, req.Status, req.PaymentStatus)
	if err != nil {
		s.log(ctx).Error("failed to update order status", zap.String("order_id", id.String()), zap.Error(err))
		return nil, internal("failed to update order")
	}
	if !ok {
		return nil, notFound("order not found")
	}

	order, serr := s.load(ctx, id.String())
	if serr != nil {
		return nil, serr
	}
	s.log(ctx).Info("order status set by admin",
		zap.String("order_id", id.String()),
		zap.String("status", string(order.Status)),
		zap.String("payment_status", string(order.PaymentStatus)))
	s.effects.StatusUpdated(order)
	return order, nil
}

func (s *orderService) Stats(ctx context.Context) (*repository.OrderStats, *ServiceError) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.log(ctx).Error("failed to compute order stats", zap.Error(err))
		return nil, internal("failed to compute stats")
	}
	return stats, nil
}

func (s *orderService) ListForExport(ctx context.Context, filter repository.OrderFilter) ([]models.Order, *ServiceError) {
	orders, err := s.repo.ListForExport(ctx, filter, ExportLimit)
	if err != nil {
		s.log(ctx).Error("failed to load orders for export", zap.Error(err))
		return nil, internal("failed to export orders")
	}
	return orders, nil
}
