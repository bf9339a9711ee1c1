package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/booking"
	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

type finalizeRequest struct {
	SeatIDs     []uint64       `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
	Customer    model.Customer `json:"customer"`
	TotalAmount int64          `json:"total_amount" validate:"gte=0"`
}

// Finalize handles POST /v1/shows/:id/finalize.  Payment is assumed to have
// been captured by the caller; total_amount is recorded as given.
func (h *Handler) Finalize(c echo.Context) error {
	id, err := showID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req finalizeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.Finalizer.Finalize(c.Request().Context(), booking.Request{
		ShowID:      id,
		SeatIDs:     req.SeatIDs,
		Holder:      middleware.HolderID(c),
		Customer:    req.Customer,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":        res.Booking.ID,
		"booking_reference": res.Booking.Reference,
		"ticket_payload":    res.Ticket,
		"notification_sent": res.NotificationSent,
	})
}
