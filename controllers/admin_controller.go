package controllers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/services"
)

// Subscriber is the listening side of the admin notifier.
type Subscriber interface {
	Subscribe() (uint64, <-chan services.Notification)
	Unsubscribe(id uint64)
}

type AdminController struct {
	orderService services.OrderService
	hub          Subscriber
	exporter     *services.Exporter
	heartbeat    time.Duration
	logger       *zap.Logger
}

// NewAdminController builds the back-office handlers. exporter may be nil
// when no export bucket is configured.
func NewAdminController(orderService services.OrderService, hub Subscriber, exporter *services.Exporter, logger *zap.Logger) *AdminController {
	return &AdminController{
		orderService: orderService,
		hub:          hub,
		exporter:     exporter,
		heartbeat:    25 * time.Second,
		logger:       logger,
	}
}

func parseFilter(ctx *gin.Context) (repository.OrderFilter, bool) {
	filter := repository.OrderFilter{
		Status:        models.OrderStatus(ctx.Query("status")),
		PaymentStatus: models.PaymentStatus(ctx.Query("paymentStatus")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return filter, false
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid paymentStatus filter"})
		return filter, false
	}
	return filter, true
}

// ListOrders returns paginated orders for all customers
func (ac *AdminController) ListOrders(ctx *gin.Context) {
	filter, ok := parseFilter(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	result, serr := ac.orderService.ListOrders(ctx.Request.Context(), filter, page, limit)
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (ac *AdminController) UpdateStatus(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	var req models.AdminStatusUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, serr := ac.orderService.UpdateStatus(ctx.Request.Context(), orderID, &req)
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (ac *AdminController) Stats(ctx *gin.Context) {
	stats, serr := ac.orderService.Stats(ctx.Request.Context())
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// ExportOrders streams a CSV, or with ?destination=s3 uploads it and returns
// a temporary download link.
func (ac *AdminController) ExportOrders(ctx *gin.Context) {
	filter, ok := parseFilter(ctx)
	if !ok {
		return
	}
	toStorage := ctx.Query("destination") == "s3"
	if toStorage && ac.exporter == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Export storage is not configured"})
		return
	}

	orders, serr := ac.orderService.ListForExport(ctx.Request.Context(), filter)
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}

	if toStorage {
		result, err := ac.exporter.Upload(ctx.Request.Context(), orders)
		if err != nil {
			ac.logger.Error("export upload failed", zap.Error(err))
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload export"})
			return
		}
		ctx.JSON(http.StatusOK, result)
		return
	}

	filename := fmt.Sprintf("orders-%s.csv", time.Now().UTC().Format("20060102-150405"))
	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Status(http.StatusOK)
	if err := services.WriteOrdersCSV(ctx.Writer, orders); err != nil {
		ac.logger.Error("export stream failed", zap.Error(err))
	}
}

// Events streams admin notifications (new orders, confirmed payments) as
// server-sent events until the client disconnects.
func (ac *AdminController) Events(ctx *gin.Context) {
	id, ch := ac.hub.Subscribe()
	defer ac.hub.Unsubscribe(id)

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(ac.heartbeat)
	defer ticker.Stop()

	ctx.SSEvent("ready", gin.H{"subscriber": id})
	ctx.Writer.Flush()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case n, ok := <-ch:
			if !ok {
				return false
			}
			ctx.SSEvent(n.Topic, n)
			return true
		case <-ticker.C:
			ctx.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
