package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/models"
	"storefront-service/services"
)

const maxWebhookBody = 64 << 10

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// VerifyPayment handles the checkout callback relayed by the client.
func (pc *PaymentController) VerifyPayment(ctx *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"status": "failure", "error": "Invalid request"})
		return
	}

	order, serr := pc.paymentService.VerifyPayment(ctx.Request.Context(), &req)
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"status": "failure", "error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"orderId":   order.OrderNumber,
		"dbOrderId": order.ID,
	})
}

func (pc *PaymentController) StripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read body"})
		return
	}

	if serr := pc.paymentService.HandleStripeWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature")); serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
