package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
	"github.com/iliyamo/theater-seat-ticketing/internal/utils"
)

// GetBooking handles GET /v1/bookings/:reference.  Shoppers only see their
// own bookings; someone else's reference reads as not found.  Admins see
// every booking.
func (h *Handler) GetBooking(c echo.Context) error {
	b, err := h.Inventory.Store().BookingByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return respondError(c, err)
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	if role != utils.RoleAdmin && b.HolderID != middleware.HolderID(c) {
		return respondError(c, apperr.ErrBookingNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":     b.ID,
		"reference":      b.Reference,
		"show_id":        b.ShowID,
		"seat_ids":       ids(b.SeatIDs),
		"customer":       b.Customer,
		"total_amount":   b.TotalAmount,
		"status":         b.Status,
		"created_at":     formatTime(b.CreatedAt),
		"confirmed_at":   formatTime(b.ConfirmedAt),
		"ticket_sent":    b.TicketSent,
		"ticket_payload": json.RawMessage(b.TicketPayload),
	})
}
