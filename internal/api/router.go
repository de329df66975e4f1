package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parcelgate/shipping-agent/internal/api/handler"
	"github.com/parcelgate/shipping-agent/internal/api/middleware"
	"github.com/parcelgate/shipping-agent/internal/core/ports"
	"github.com/parcelgate/shipping-agent/internal/payment"
)

// Deps collects everything the router wires together. Mongo and Redis are
// optional and only affect readiness reporting; JWTSecret empty disables the
// history endpoint.
type Deps struct {
	Service       ports.ShippingService
	PaymentConfig payment.Config
	// Strict is the x402 facilitator strategy gating the API routes.
	Strict payment.Verifier
	// Weak is the tx-hash strategy gating the browser-facing routes.
	Weak      payment.Verifier
	JWTSecret string
	Mongo     *mongo.Database
	Redis     *redis.Client
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("shipping_agent"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Health probes and metrics (no payment required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Gated shipping routes ---
	shippingHandler := handler.NewShippingHandler(deps.Service)

	apiGroup := e.Group("/api/shipping",
		middleware.X402(deps.Strict, deps.PaymentConfig, deps.Logger))
	apiGroup.POST("/quote", shippingHandler.Quote)
	apiGroup.POST("/label", shippingHandler.PurchaseLabel)

	webGroup := e.Group("/api/web/shipping",
		middleware.PaymentTx(deps.Weak, deps.PaymentConfig, deps.Logger))
	webGroup.POST("/quote", shippingHandler.Quote)
	webGroup.POST("/label", shippingHandler.WebPurchaseLabel)

	// --- Purchase history (bearer auth, no payment) ---
	if deps.JWTSecret != "" {
		e.GET("/api/shipping/labels", shippingHandler.ListLabels,
			middleware.Auth(deps.JWTSecret))
	}

	return e
}
