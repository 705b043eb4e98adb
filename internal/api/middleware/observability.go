package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/metrics"
)

const RequestIDHeader = "X-Request-ID"

// Observability gives every request an X-Request-ID and a request-scoped logger
// (trace-aware when a W3C traceparent arrives) and records HTTP metrics labelled
// by route template.
func Observability(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	prop := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	return func(c *gin.Context) {
		ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)

		reqLogger := logger.With(zap.String("request_id", rid))
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			reqLogger = logging.WithTrace(reqLogger, sc.TraceID().String(), sc.SpanID().String())
		}
		c.Request = c.Request.WithContext(logging.ContextWithLogger(ctx, reqLogger))

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, status, elapsed)

		reqLogger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
	}
}
