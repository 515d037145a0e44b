package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-service/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderFilter narrows admin listings. Zero fields match everything.
type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
}

// OrderStats is the admin dashboard aggregate.
type OrderStats struct {
	TotalOrders     int64                          `json:"totalOrders"`
	TotalRevenue    float64                        `json:"totalRevenue"`
	PendingPayments int64                          `json:"pendingPayments"`
	ByStatus        map[models.OrderStatus]int64   `json:"byStatus"`
	ByPaymentStatus map[models.PaymentStatus]int64 `json:"byPaymentStatus"`
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error)
	// ApplyTransition performs a single conditional UPDATE. It returns false
	// when the row does not exist or is not in one of the transition's From states.
	ApplyTransition(ctx context.Context, id uuid.UUID, t models.Transition, patch models.OrderPatch) (bool, error)
	// RegisterVerifyAttempt increments the attempt counter unless it already reached max.
	RegisterVerifyAttempt(ctx context.Context, id uuid.UUID, max int) (bool, error)
	// SetStatus overwrites the given states without any guard.
	SetStatus(ctx context.Context, id uuid.UUID, status *models.OrderStatus, paymentStatus *models.PaymentStatus) (bool, error)
	Stats(ctx context.Context) (*OrderStats, error)
	ListForExport(ctx context.Context, filter OrderFilter, limit int) ([]models.Order, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create writes the order and its items in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			order.Items[i].Position = i
		}
		if err := tx.Create(&order.Items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("id = ?", id).
		First(&order).Error
	return r.found(&order, err)
}

func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	return r.found(&order, err)
}

func (r *GormOrderRepository) found(order *models.Order, err error) (*models.Order, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID), page, limit)
}

func (r *GormOrderRepository) FindAll(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(ctx, applyFilter(r.db.WithContext(ctx).Model(&models.Order{}), filter), page, limit)
}

func (r *GormOrderRepository) paginate(ctx context.Context, query *gorm.DB, page, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Session(&gorm.Session{}).
		Preload("Items", itemsByPosition).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func applyFilter(query *gorm.DB, filter OrderFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", string(filter.PaymentStatus))
	}
	return query
}

func (r *GormOrderRepository) ApplyTransition(ctx context.Context, id uuid.UUID, t models.Transition, patch models.OrderPatch) (bool, error) {
	updates := patchColumns(patch)
	if t.ToStatus != "" {
		updates["status"] = string(t.ToStatus)
	}
	if t.ToPayment != "" {
		updates["payment_status"] = string(t.ToPayment)
	}
	if len(updates) == 0 {
		return false, fmt.Errorf("transition %s has nothing to update", t.Name)
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if len(t.FromStatus) > 0 {
		query = query.Where("status IN ?", statusStrings(t.FromStatus))
	}
	if len(t.FromPayment) > 0 {
		query = query.Where("payment_status IN ?", paymentStrings(t.FromPayment))
	}

	res := query.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition %s: %w", t.Name, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormOrderRepository) RegisterVerifyAttempt(ctx context.Context, id uuid.UUID, max int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND verify_attempts < ?", id, max).
		UpdateColumn("verify_attempts", gorm.Expr("verify_attempts + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status *models.OrderStatus, paymentStatus *models.PaymentStatus) (bool, error) {
	updates := map[string]interface{}{}
	if status != nil {
		updates["status"] = string(*status)
	}
	if paymentStatus != nil {
		updates["payment_status"] = string(*paymentStatus)
	}
	if len(updates) == 0 {
		return false, fmt.Errorf("no status given")
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type countRow struct {
	Label string
	Total int64
}

func (r *GormOrderRepository) Stats(ctx context.Context) (*OrderStats, error) {
	db := r.db.WithContext(ctx)
	stats := &OrderStats{
		ByStatus:        map[models.OrderStatus]int64{},
		ByPaymentStatus: map[models.PaymentStatus]int64{},
	}

	var byStatus []countRow
	if err := db.Model(&models.Order{}).
		Select("status AS label, COUNT(*) AS total").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	for _, row := range byStatus {
		stats.ByStatus[models.OrderStatus(row.Label)] = row.Total
		stats.TotalOrders += row.Total
	}

	var byPayment []countRow
	if err := db.Model(&models.Order{}).
		Select("payment_status AS label, COUNT(*) AS total").
		Group("payment_status").
		Scan(&byPayment).Error; err != nil {
		return nil, fmt.Errorf("count by payment status: %w", err)
	}
	for _, row := range byPayment {
		stats.ByPaymentStatus[models.PaymentStatus(row.Label)] = row.Total
	}
	stats.PendingPayments = stats.ByPaymentStatus[models.PaymentStatusPending]

	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("payment_status = ?", string(models.PaymentStatusPaid)).
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	return stats, nil
}

func (r *GormOrderRepository) ListForExport(ctx context.Context, filter OrderFilter, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := applyFilter(r.db.WithContext(ctx).Model(&models.Order{}), filter).
		Preload("Items", itemsByPosition).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func patchColumns(p models.OrderPatch) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.GatewayProvider != "" {
		cols["gateway_provider"] = p.GatewayProvider
	}
	if p.GatewayOrderID != "" {
		cols["gateway_order_id"] = p.GatewayOrderID
	}
	if p.GatewayPaymentID != "" {
		cols["gateway_payment_id"] = p.GatewayPaymentID
	}
	if p.PaidAt != nil {
		cols["paid_at"] = *p.PaidAt
	}
	if p.CancelledAt != nil {
		cols["cancelled_at"] = *p.CancelledAt
	}
	return cols
}

func statusStrings(in []models.OrderStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func paymentStrings(in []models.PaymentStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
