package proxy

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gemhq/cdpgate/internal/infrastructure/config"
	"github.com/gemhq/cdpgate/internal/infrastructure/monitoring"
)

const (
	// ControlDomain is the method prefix reserved for messages the relay
	// answers itself instead of forwarding upstream.
	ControlDomain = "CDPProxy"

	maxMessageSize   = 20 * 1024 * 1024
	pingInterval     = 20 * time.Second
	pingTimeout      = 20 * time.Second
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// wsURLPattern matches quoted WebSocket debugger URLs in discovery
// responses: scheme, host, and the /devtools/ path.
var wsURLPattern = regexp.MustCompile(`"(ws[s]?://)([^/]+)(/devtools/[^"]*)"`)

// Service proxies CDP traffic to a single upstream browser endpoint:
// HTTP discovery requests with URL rewriting, and WebSocket session
// relays.
type Service struct {
	origin     string
	netloc     string
	configured bool

	logger  *zap.Logger
	metrics *monitoring.Metrics

	upgrader websocket.Upgrader
	dialer   *websocket.Dialer

	clientOnce sync.Once
	client     *resty.Client
}

// NewService creates a proxy service for the configured upstream. An
// unconfigured upstream is not an error at construction time; requests
// fail closed instead.
func NewService(cfg config.ProxyConfig, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	netloc := cfg.ResolvedNetloc()

	s := &Service{
		origin:     cfg.Origin,
		netloc:     netloc,
		configured: cfg.Configured(),
		logger:     logger,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    4096,
			WriteBufferSize:   4096,
			EnableCompression: false,
			// Auth happens at the gateway in front of this handler.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout:  handshakeTimeout,
			ReadBufferSize:    4096,
			WriteBufferSize:   4096,
			EnableCompression: false,
		},
	}

	if !s.configured {
		logger.Warn("cdp upstream not configured, proxy requests will fail closed")
	} else {
		logger.Info("cdp proxy configured",
			zap.String("origin", s.origin),
			zap.String("netloc", s.netloc),
		)
	}

	return s
}

// Configured reports whether the upstream endpoint is resolved.
func (s *Service) Configured() bool {
	return s.configured
}

// httpClient lazily builds the upstream HTTP client. Retries stay
// disabled: discovery requests are forwarded exactly once.
func (s *Service) httpClient() *resty.Client {
	s.clientOnce.Do(func() {
		c := resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(0).
			// Redirects pass through to the caller unchanged instead of
			// being chased.
			SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}))
		c.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			req.Host = s.netloc
			return nil
		})
		s.client = c
		s.logger.Info("http client initialized for cdp proxy")
	})
	return s.client
}

// verboseDefault reports whether new sessions start with frame logging
// enabled.
func (s *Service) verboseDefault() bool {
	return s.logger.Core().Enabled(zapcore.DebugLevel)
}

// Close releases upstream HTTP connections.
func (s *Service) Close() {
	if s.client != nil {
		s.client.GetClient().CloseIdleConnections()
		s.logger.Info("http client closed for cdp proxy")
	}
}
