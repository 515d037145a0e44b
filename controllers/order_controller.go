package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder handles checkout for guests and signed-in customers.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}

	result, serr := oc.orderService.CreateOrder(ctx.Request.Context(), middleware.GetIdentity(ctx), &req)
	if serr != nil {
		body := gin.H{"success": false, "error": serr.Message}
		if result != nil && result.Order != nil {
			body["orderId"] = result.Order.OrderNumber
			body["dbOrderId"] = result.Order.ID
		}
		ctx.JSON(serr.StatusCode, body)
		return
	}

	order := result.Order
	body := gin.H{
		"success":   true,
		"orderId":   order.OrderNumber,
		"dbOrderId": order.ID,
		"order":     order,
	}
	if result.Session != nil {
		body[result.Gateway] = result.Session
	} else {
		body["message"] = "Order placed successfully"
	}
	ctx.JSON(http.StatusCreated, body)
}

// GetMyOrders returns paginated orders for the authenticated user
func (oc *OrderController) GetMyOrders(ctx *gin.Context) {
	identity := middleware.GetIdentity(ctx)
	if identity == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)
	result, serr := oc.orderService.ListUserOrders(ctx.Request.Context(), identity.UserID, page, limit)
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetOrder accepts either the storage key or the order number.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	order, serr := oc.orderService.GetOrder(ctx.Request.Context(), ctx.Param("id"), middleware.GetIdentity(ctx))
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, serr := oc.orderService.CancelOrder(ctx.Request.Context(), orderID, middleware.GetIdentity(ctx))
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled", "order": order})
}
