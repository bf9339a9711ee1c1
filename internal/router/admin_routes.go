package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
	"github.com/iliyamo/theater-seat-ticketing/internal/utils"
)

// RegisterAdmin registers box office administration under /v1/admin.  All
// routes require a bearer token with the admin role.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.POST("/shows", d.Handler.CreateShow)
	g.POST("/charts/preview", d.Handler.PreviewChart)

	invalidate := middleware.NewCacheInvalidator(d.Cache, d.Redis, inventoryPath)
	g.POST("/shows/:id/block", d.Handler.BlockSeats, invalidate)
	g.POST("/shows/:id/unblock", d.Handler.UnblockSeats, invalidate)
}
