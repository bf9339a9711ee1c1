// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/theater-seat-ticketing/internal/config"
	"github.com/iliyamo/theater-seat-ticketing/internal/handler"
	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
)

// Deps is everything the router needs.  Redis may be nil, in which case
// rate limiting and the inventory cache are off.
type Deps struct {
	Handler   *handler.Handler
	JWTSecret string
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	// Ping backs /readyz; nil means always ready.
	Ping func(ctx context.Context) error
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())

	RegisterRoutes(e, d)
	RegisterShopper(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers routes that do not need an identity: probes,
// metrics, sessions, inventory polling and ticket verification.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.Ping))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	v1.POST("/sessions", d.Handler.CreateSession)
	v1.GET("/shows/:id/inventory", d.Handler.GetInventory, middleware.NewRedisCache(d.Cache, d.Redis))
	v1.POST("/tickets/verify", d.Handler.VerifyTicket)
}
