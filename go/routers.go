package lucentserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/KwakOri/lucent-sub001/internal/platform/auth"
	"github.com/KwakOri/lucent-sub001/internal/platform/metrics"
)

// Access says whether a route needs a session.
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// Access gates the route behind authentication and the access policy.
	Access Access
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API section.
type ApiHandleFunctions struct {
	HealthAPI HealthAPI
	AuthAPI   AuthAPI
	OrderAPI  OrderAPI
}

// RouterOptions carries the cross-cutting collaborators of the router.
type RouterOptions struct {
	ServiceName    string
	Tokens         *auth.TokenManager
	Policy         *auth.Policy
	Metrics        *metrics.HTTP
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter returns a new router with middleware installed ahead of every route.
func NewRouter(handleFunctions ApiHandleFunctions, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", opts.Metrics.Handler())
	}
	router.Use(requestLogger(logger))

	guard := newAccessGuard(opts.Tokens, opts.Policy, logger)
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			continue
		}
		handlers := make([]gin.HandlerFunc, 0, 3)
		if route.Access == AccessAuthenticated {
			handlers = append(handlers, guard.authenticate, guard.authorize)
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	router.NoRoute(func(c *gin.Context) {
		respondProblem(c, notFoundRoute)
	})
	return router
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", AccessPublic, handleFunctions.HealthAPI.Healthz},
		{"ListOrderStatuses", http.MethodGet, "/order-statuses", AccessPublic, handleFunctions.HealthAPI.ListOrderStatuses},

		{"RequestVerificationCode", http.MethodPost, "/auth/verification-codes", AccessPublic, handleFunctions.AuthAPI.RequestVerificationCode},
		{"VerifyCode", http.MethodPost, "/auth/verification-codes/verify", AccessPublic, handleFunctions.AuthAPI.VerifyCode},
		{"CreateSession", http.MethodPost, "/auth/sessions", AccessPublic, handleFunctions.AuthAPI.CreateSession},
		{"GetCurrentUser", http.MethodGet, "/auth/me", AccessAuthenticated, handleFunctions.AuthAPI.GetCurrentUser},

		{"GetOrder", http.MethodGet, "/orders/:orderId", AccessAuthenticated, handleFunctions.OrderAPI.GetOrder},
		{"UpdateOrderStatus", http.MethodPatch, "/orders/:orderId/status", AccessAuthenticated, handleFunctions.OrderAPI.UpdateOrderStatus},
		{"UpdateItemsStatus", http.MethodPatch, "/orders/:orderId/items/status", AccessAuthenticated, handleFunctions.OrderAPI.UpdateItemsStatus},
		{"UpdateItemStatus", http.MethodPatch, "/orders/:orderId/items/:itemId/status", AccessAuthenticated, handleFunctions.OrderAPI.UpdateItemStatus},
		{"GetShipmentTracking", http.MethodGet, "/orders/:orderId/items/:itemId/shipment", AccessAuthenticated, handleFunctions.OrderAPI.GetShipmentTracking},
		{"GetDownload", http.MethodGet, "/orders/:orderId/items/:itemId/download", AccessAuthenticated, handleFunctions.OrderAPI.GetDownload},

		{"ListOrders", http.MethodGet, "/admin/orders", AccessAuthenticated, handleFunctions.OrderAPI.ListOrders},
		{"BulkUpdateOrderStatus", http.MethodPatch, "/admin/orders/bulk-update", AccessAuthenticated, handleFunctions.OrderAPI.BulkUpdateOrderStatus},
		{"UpdateTracking", http.MethodPut, "/admin/orders/:orderId/items/:itemId/tracking", AccessAuthenticated, handleFunctions.OrderAPI.UpdateTracking},
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
