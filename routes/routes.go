package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	commonmw "storefront-service/common/middleware"
	"storefront-service/controllers"
	"storefront-service/middleware"
	awspkg "storefront-service/pkg/aws"
)

const serviceName = "storefront-service"

// Controllers bundles the HTTP handlers mounted by SetupRouter.
type Controllers struct {
	Orders   *controllers.OrderController
	Payments *controllers.PaymentController
	Admin    *controllers.AdminController
	Auth     *controllers.AuthController
}

type Options struct {
	AllowedOrigins string
	RequestTimeout time.Duration
	RateLimiter    *commonmw.RateLimiter
	Metrics        *awspkg.MetricsClient
	Logger         *zap.Logger
}

// SetupRouter builds the engine with the global middleware chain and every route.
func SetupRouter(c Controllers, opts Options) *gin.Engine {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(opts.Logger))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(opts.AllowedOrigins))
	r.Use(commonmw.MetricsMiddleware(opts.Metrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	api := r.Group("/")
	if opts.RateLimiter != nil {
		api.Use(commonmw.RateLimitMiddleware(opts.RateLimiter))
	}

	// Long-lived streams stay outside the request timeout.
	timed := api.Group("/")
	timed.Use(commonmw.Timeout(opts.RequestTimeout))

	RegisterOrderRoutes(timed, c.Orders)
	RegisterPaymentRoutes(r, timed, c.Payments)
	RegisterAuthRoutes(timed, c.Auth)
	RegisterAdminRoutes(api, timed, c.Admin)
	return r
}

func RegisterOrderRoutes(rg *gin.RouterGroup, oc *controllers.OrderController) {
	orders := rg.Group("/orders")
	orders.POST("/create", middleware.OptionalAuth(), oc.CreateOrder)
	orders.GET("/my", middleware.RequireAuth(), oc.GetMyOrders)
	orders.GET("/:id", middleware.OptionalAuth(), oc.GetOrder)
	orders.PUT("/:id/cancel", middleware.OptionalAuth(), oc.CancelOrder)
}

// RegisterPaymentRoutes mounts the webhook on the bare engine so gateway
// retries are never rate limited.
func RegisterPaymentRoutes(r *gin.Engine, rg *gin.RouterGroup, pc *controllers.PaymentController) {
	rg.POST("/payment/verify", pc.VerifyPayment)
	r.POST("/payment/webhook/stripe", commonmw.Timeout(30*time.Second), pc.StripeWebhook)
}

func RegisterAuthRoutes(rg *gin.RouterGroup, ac *controllers.AuthController) {
	rg.POST("/auth/login", ac.Login)
}

func RegisterAdminRoutes(api, timed *gin.RouterGroup, ac *controllers.AdminController) {
	guard := []gin.HandlerFunc{middleware.RequireAuth(), middleware.RequireAdmin()}

	admin := timed.Group("/admin", guard...)
	admin.GET("/orders", ac.ListOrders)
	admin.GET("/stats", ac.Stats)
	admin.GET("/orders/export", ac.ExportOrders)
	admin.PUT("/orders/:id/status", ac.UpdateStatus)

	api.GET("/admin/events", append(guard, ac.Events)...)
}
