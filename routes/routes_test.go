package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-service/common/auth"
	"storefront-service/controllers"
	"storefront-service/models"
	"storefront-service/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	hub := services.NewHub(1, zap.NewNop())
	return SetupRouter(Controllers{
		Orders:   controllers.NewOrderController(nil),
		Payments: controllers.NewPaymentController(nil),
		Admin:    controllers.NewAdminController(nil, hub, nil, zap.NewNop()),
		Auth:     controllers.NewAuthController(nil),
	}, Options{AllowedOrigins: "https://shop.example.com"})
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	auth.Configure("routes-secret")
	tok, err := auth.GenerateAccessToken(uuid.NewString(), "u@example.com", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := testRouter()
	paths := []string{"/admin/orders", "/admin/stats", "/admin/orders/export", "/admin/events"}

	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, p)

		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.Header.Set("Authorization", bearer(t, models.RoleUser))
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, p)
	}
}

func TestMyOrdersRequiresAuth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/my", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/orders/create", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, req)

	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
