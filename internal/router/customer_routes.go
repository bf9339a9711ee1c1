package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
)

// RegisterShopper registers the holder-scoped endpoints under /v1.  The
// caller is identified by a shopper token or the X-Holder-ID header; seat
// writes go through the tighter write bucket and drop the cached inventory
// of the show they touched.
func RegisterShopper(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1",
		middleware.Identity(d.JWTSecret),
		middleware.RequireHolder(),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)
	seatWrite := []echo.MiddlewareFunc{
		middleware.NewWriteTokenBucket(d.RateLimit, d.Redis),
		middleware.NewCacheInvalidator(d.Cache, d.Redis, inventoryPath),
	}
	g.POST("/shows/:id/reserve", d.Handler.Reserve, seatWrite...)
	g.POST("/shows/:id/finalize", d.Handler.Finalize, seatWrite...)
	g.GET("/bookings/:reference", d.Handler.GetBooking)
}

// inventoryPath is the cached inventory URL of the show in the request.
func inventoryPath(c echo.Context) string {
	if id := c.Param("id"); id != "" {
		return "/v1/shows/" + id + "/inventory"
	}
	return ""
}
