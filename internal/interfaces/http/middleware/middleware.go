// Package middleware provides the Gin middleware chain: request correlation,
// structured request logging, observability, session auth, and rate limiting.
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/logigrain/portauth/internal/infrastructure/monitoring"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

// RequestID assigns each request a correlation id, honoring an incoming
// X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogger logs one line per handled request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if c.Writer.Status() >= 500 {
			log.Error(c.Request.Context(), "request failed", nil, fields)
			return
		}
		log.Info(c.Request.Context(), "request handled", fields)
	}
}

// Observability starts a trace span per request and records HTTP metrics.
func Observability(tm *monitoring.TracingManager, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx, span := tm.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()

		if traceID := tm.TraceID(ctx); traceID != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "not_found"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.ObserveHTTPRequest(c.Request.Method, route, status, time.Since(start))

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.String("http.client_ip", c.ClientIP()),
		)
	}
}
