package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
)

type reserveRequest struct {
	SeatIDs    []uint64 `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
	TTLSeconds int64    `json:"ttl_seconds" validate:"gte=0"`
}

// Reserve handles POST /v1/shows/:id/reserve.  All requested seats are
// held for the caller or none are; a refused request reports the seats
// that blocked it.  ttl_seconds is optional and capped server side.
func (h *Handler) Reserve(c echo.Context) error {
	id, err := showID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req reserveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.Holds.Reserve(c.Request().Context(), id, req.SeatIDs, middleware.HolderID(c), time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reserved_until": formatTime(res.ReservedUntil),
		"seat_ids":       res.SeatIDs,
	})
}
