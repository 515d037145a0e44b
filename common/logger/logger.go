package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op until Initialize runs.
var Log = zap.NewNop()

// RequestIDKey is the gin context key (and header) carrying the request id.
const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

type ctxKey struct{}

// Initialize sets up the logger with the specified environment
func Initialize(env string) {
	InitializeWithWriter(env, nil)
}

// InitializeWithWriter sets up the logger and, when extra is non-nil, tees a
// JSON copy of every entry into it (CloudWatch Logs in deployed environments).
func InitializeWithWriter(env string, extra io.Writer) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if extra == nil {
		l, err := config.Build()
		if err != nil {
			fmt.Printf("Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		Log = l
		return
	}

	level := zap.NewAtomicLevelAt(config.Level.Level())
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(config.EncoderConfig), zapcore.AddSync(os.Stdout), level)

	jsonConfig := config.EncoderConfig
	jsonConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	remoteCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(extra), level)

	Log = zap.New(zapcore.NewTee(consoleCore, remoteCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// RequestID assigns every request an id, reusing X-Request-ID when the caller
// (or the gateway in front of us) already set one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), requestID))
		c.Next()
	}
}

// Error logs an error with request ID and additional context
func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", getRequestID(ctx)))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Error(msg, fields...)
}

// Info logs an info message with request ID and additional context
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Info(msg, append(fields, zap.String("request_id", getRequestID(ctx)))...)
}

// Warn logs a warning message with request ID and additional context
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Warn(msg, append(fields, zap.String("request_id", getRequestID(ctx)))...)
}

// Debug logs a debug message with request ID and additional context
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Debug(msg, append(fields, zap.String("request_id", getRequestID(ctx)))...)
}

// RequestIDFrom returns the request id carried by ctx, or "unknown".
func RequestIDFrom(ctx context.Context) string {
	return getRequestID(ctx)
}

func getRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if requestID := ginCtx.GetString(RequestIDKey); requestID != "" {
			return requestID
		}
		ctx = ginCtx.Request.Context()
	}
	if requestID, ok := ctx.Value(ctxKey{}).(string); ok && requestID != "" {
		return requestID
	}
	return "unknown"
}

// WithContext creates a new context with the given request ID
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}
