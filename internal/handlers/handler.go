package handlers

import (
	"time"

	"markov_occupancy/internal/logger"
	"markov_occupancy/internal/metrics"
	"markov_occupancy/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// ServiceName identifies the HTTP server in traces.
const ServiceName = "markov-occupancy"

const (
	defaultStreamInterval = 1 * time.Second
	defaultStreamLimit    = 20
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	metrics        *metrics.Metrics
	limiter        *rate.Limiter
	tracerProvider trace.TracerProvider
	streamInterval time.Duration
	streamLimit    int
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithMetrics exposes m on GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRateLimit caps compute requests at rps with the given burst. A
// non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Handler) {
		if rps <= 0 {
			h.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracerProvider sets the provider used for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		if tp != nil {
			h.tracerProvider = tp
		}
	}
}

// WithStream sets the default push interval and batch size of /ws.
func WithStream(interval time.Duration, limit int) Option {
	return func(h *Handler) {
		if interval > 0 {
			h.streamInterval = interval
		}
		if limit > 0 {
			h.streamLimit = limit
		}
	}
}

// WithAllowedOrigins lists the browser origins allowed to open /ws. "*"
// allows any origin; with none, only same-host origins are accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.allowedOrigins = origins }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		services:       services,
		log:            log,
		tracerProvider: otel.GetTracerProvider(),
		streamInterval: defaultStreamInterval,
		streamLimit:    defaultStreamLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName, otelgin.WithTracerProvider(h.tracerProvider)))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health and metrics
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	// Unversioned compute endpoints
	router.GET("/get_states", h.rateLimitMiddleware, h.getStates)
	router.POST("/simulate", h.rateLimitMiddleware, h.simulate)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Live run stream (HTTP upgrade), same port
	router.GET("/ws", h.streamAuthMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/states", h.rateLimitMiddleware, h.getStates)
		api.POST("/simulate", h.rateLimitMiddleware, h.simulate)
	}

	protected := api.Group("", h.userIdMiddleware)
	{
		h.registerModelRoutes(protected)
		h.registerRunRoutes(protected)
	}
}

func (h *Handler) registerModelRoutes(api *gin.RouterGroup) {
	model := api.Group("/model")
	{
		model.GET("", h.getModel)
		// Body example: {"states":["a","b"],"transitions":{"a":{"b":1}},"holding_times":{"a":1,"b":2}}
		model.PUT("", h.putModel)
	}
}

func (h *Handler) registerRunRoutes(api *gin.RouterGroup) {
	runs := api.Group("/runs")
	{
		runs.GET("", h.getRuns)
	}
}
