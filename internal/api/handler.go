package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront-orders/internal/auth"
	"storefront-orders/internal/service"
	"storefront-orders/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	userIDKey       = "user_id"
	requestIDHeader = "X-Request-Id"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies wires the handler to the services
type Dependencies struct {
	Webhooks    *service.WebhookReceiver
	Sessions    *service.SessionResolver
	Orders      *service.OrderService
	Storefronts *service.StorefrontService
	Auth        auth.Provider
	Readiness   map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	webhooks    *service.WebhookReceiver
	sessions    *service.SessionResolver
	orders      *service.OrderService
	storefronts *service.StorefrontService
	auth        auth.Provider
	readiness   map[string]Pinger
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	provider := deps.Auth
	if provider == nil {
		provider = auth.NewHeaderProvider()
	}
	return &Handler{
		webhooks:    deps.Webhooks,
		sessions:    deps.Sessions,
		orders:      deps.Orders,
		storefronts: deps.Storefronts,
		auth:        provider,
		readiness:   deps.Readiness,
		logger:      util.GetLogger().Named("http"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(prometheusMiddleware())
	router.Use(h.loggingMiddleware())
	router.Use(h.authenticate())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/webhooks/payments", h.receivePaymentWebhook)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/stores/:slug", h.getStore)
	}

	checkout := router.Group("/checkout")
	{
		checkout.GET("/success", h.checkoutLanding(service.LandingSuccess))
		checkout.GET("/cancel", h.checkoutLanding(service.LandingCancel))
	}

	h.setupLegacyRoutes(router)

	router.GET("/feedback/:kind", h.feedback)
	router.GET("/orders", h.listOrders)
	router.GET("/orders/:id", h.getOrder)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, p := range h.readiness {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}

// userID returns the authenticated user id, empty when anonymous
func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := h.auth.CurrentUserID(c.Request); id != "" {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		h.logger.Info("Request handled",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
