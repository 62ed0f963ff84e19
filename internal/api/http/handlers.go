package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gemhq/cdpgate/internal/auth"
	"github.com/gemhq/cdpgate/internal/infrastructure/monitoring"
	"github.com/gemhq/cdpgate/internal/proxy"
)

// Handler exposes the gateway's HTTP surface: service endpoints, the
// authentication subrequest endpoint, and the CDP discovery proxy.
type Handler struct {
	gateway *auth.Gateway
	tickets *auth.TicketStore
	proxy   *proxy.Service
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	gateway *auth.Gateway,
	tickets *auth.TicketStore,
	proxySvc *proxy.Service,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		gateway: gateway,
		tickets: tickets,
		proxy:   proxySvc,
		metrics: metrics,
		logger:  logger,
	}
}

// Register wires all routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/tickets", h.CreateTicket)
	r.GET("/auth", h.Authorize)

	r.GET("/json", h.Discovery)
	r.POST("/json", h.Discovery)
	r.GET("/json/*path", h.Discovery)
	r.POST("/json/*path", h.Discovery)

	r.GET("/devtools/*path", h.DevTools)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Root returns basic service information.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "cdpgate",
		"status":  "ok",
	})
}

// Health returns the health status.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"proxy":  h.proxy.Configured(),
	})
}

// CreateTicket mints a new short-lived ticket. Every call produces a
// distinct ticket.
func (h *Handler) CreateTicket(c *gin.Context) {
	ticket := h.tickets.Issue()
	h.metrics.TicketsIssued.Inc()
	c.JSON(http.StatusOK, ticket)
}

// Authorize decides an authentication subrequest. The original request
// URI arrives in X-Original-URI; the outcome is carried entirely by the
// status code so a fronting proxy can act on it.
func (h *Handler) Authorize(c *gin.Context) {
	decision, err := h.gateway.Authorize(
		c.GetHeader("X-Original-URI"),
		c.GetHeader("Authorization"),
	)
	if err != nil {
		h.metrics.RecordAuthDecision(string(decision.Scheme), "deny")
		switch {
		case errors.Is(err, auth.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		}
		return
	}

	h.metrics.RecordAuthDecision(string(decision.Scheme), "allow")
	if decision.Cached {
		h.metrics.JWTCacheHits.Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": decision.Message,
	})
}

// Discovery proxies CDP /json endpoints to the upstream browser.
func (h *Handler) Discovery(c *gin.Context) {
	result, err := h.proxy.ForwardDiscovery(c.Request.Context(), c.Request)
	if err != nil {
		status := discoveryStatus(err)
		h.logger.Error("discovery request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// Framing headers are recomputed for the body actually written.
	for key, values := range result.Headers {
		if key == "Content-Length" || key == "Transfer-Encoding" {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Data(result.StatusCode, result.ContentType, result.Body)
}

// DevTools relays a debugging session over WebSocket.
func (h *Handler) DevTools(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	h.proxy.Relay(c.Writer, c.Request, path)
}

func discoveryStatus(err error) int {
	switch {
	case errors.Is(err, proxy.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, proxy.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, proxy.ErrUpstreamUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
