package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	awspkg "storefront-service/pkg/aws"
)

// MetricsMiddleware records request count, latency and error counts in
// CloudWatch off the request goroutine. Event streams are counted but their
// latency is not, since it is the connection lifetime.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		stream := strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusClass(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPRequests, dims)
			if !stream {
				_ = metricsClient.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dims)
			}
			if status >= 400 {
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPErrors, dims)
			}
			if status >= 500 {
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTP5xx, dims)
			} else if status >= 400 {
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTP4xx, dims)
			}
		}()
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}
