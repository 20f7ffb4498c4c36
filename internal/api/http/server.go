package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/monitoring"
)

// Config contains server configuration
type Config struct {
	Addr      string
	RateLimit *middleware.RateLimitConfig
	CORS      middleware.CORSConfig

	// MaxConns caps concurrent connections; zero means unlimited.
	MaxConns int

	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// Streamer is an Engine that also delivers notifications.
type Streamer interface {
	Engine
	ws.Source
}

// Server wraps the HTTP server and its router
type Server struct {
	router   *gin.Engine
	srv      *http.Server
	maxConns int
	log      *zap.Logger
}

// NewServer builds the router.
func NewServer(cfg Config, eng Streamer, metrics *monitoring.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}

	handlers := NewHandlers(eng, metrics, log)
	wsHandler := ws.NewHandler(eng, metrics, log)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	router.GET("/ws", wsHandler.HandleConnection)

	api := router.Group("/api")
	if cfg.RateLimit != nil {
		api.Use(middleware.RateLimit(*cfg.RateLimit))
	}
	api.GET("/entries", handlers.ListEntries)
	api.GET("/entries/:id", handlers.GetEntry)
	api.POST("/entries/:id/activate", handlers.ActivateEntry)
	api.POST("/entries/:id/close", handlers.CloseEntry)
	api.POST("/entries/:id/consume-urgency", handlers.ConsumeUrgency)
	api.GET("/state", handlers.GetState)
	api.POST("/kill", handlers.Kill)
	api.GET("/metrics", handlers.MetricsSnapshot)

	return &Server{
		router: router,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		maxConns: cfg.MaxConns,
		log:      log.Named("http"),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}
	return s.serve(ln)
}

func (s *Server) serve(ln net.Listener) error {
	s.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Int("max_conns", s.maxConns))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
