package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates a Gin middleware that opens a span per request
// and tags it with method and path.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracer.StartSpan(c.Request.Context(), c.Request.Method+" "+c.Request.URL.Path)
		span.SetTag("method", c.Request.Method)
		span.SetTag("path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", string(span.TraceID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
