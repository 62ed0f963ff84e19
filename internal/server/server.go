package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/gemhq/cdpgate/internal/api/http"
	"github.com/gemhq/cdpgate/internal/api/middleware"
	"github.com/gemhq/cdpgate/internal/auth"
	"github.com/gemhq/cdpgate/internal/cache"
	"github.com/gemhq/cdpgate/internal/infrastructure/config"
	"github.com/gemhq/cdpgate/internal/infrastructure/logging"
	"github.com/gemhq/cdpgate/internal/infrastructure/monitoring"
	"github.com/gemhq/cdpgate/internal/infrastructure/tracing"
	"github.com/gemhq/cdpgate/internal/proxy"
)

const sweepInterval = time.Minute

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	proxy   *proxy.Service

	ticketCache *cache.Cache[string, struct{}]
	jwtCache    *cache.Cache[string, struct{}]
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	logger.Info("Initializing CDP gateway",
		zap.String("port", cfg.Server.Port),
		zap.String("cdp_origin", cfg.Proxy.Origin),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("cdpgate", logger.Logger)

	// An unusable key disables JWT validation rather than blocking
	// startup; the auth endpoint answers 503 for bearer requests.
	key, err := cfg.Auth.PublicKey()
	if err != nil {
		logger.Error("jwt public key unusable, bearer validation disabled", zap.Error(err))
		key = nil
	}
	if key == nil {
		logger.Warn("jwt validation disabled: no public key configured")
	}

	ticketCache := cache.NewSweeping[string, struct{}](sweepInterval)
	jwtCache := cache.NewSweeping[string, struct{}](sweepInterval)

	tickets := auth.NewTicketStore(ticketCache, cfg.Auth.TicketTTL(), logger.Logger)
	verifier := auth.NewVerifier(key, jwtCache, cfg.Auth.CacheTTL(), logger.Logger)
	gateway := auth.NewGateway(tickets, verifier, logger.Logger)

	proxySvc := proxy.NewService(cfg.Proxy, logger.Logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandler(gateway, tickets, proxySvc, metrics, logger.Logger)
	handlers.Register(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router:      router,
		logger:      logger,
		config:      cfg,
		metrics:     metrics,
		proxy:       proxySvc,
		ticketCache: ticketCache,
		jwtCache:    jwtCache,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.proxy.Close()
	s.ticketCache.Stop()
	s.jwtCache.Stop()

	s.logger.Sync()
	return nil
}
