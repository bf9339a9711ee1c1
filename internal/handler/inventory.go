package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

type seatItem struct {
	ID            uint64             `json:"id"`
	Section       string             `json:"section"`
	Row           string             `json:"row"`
	Number        uint32             `json:"number"`
	Category      model.SeatCategory `json:"category"`
	PriceMinor    int64              `json:"price_minor"`
	Status        model.SeatStatus   `json:"status"`
	ReservedUntil *string            `json:"reserved_until,omitempty"`
}

// GetInventory handles GET /v1/shows/:id/inventory.  Statuses are advisory:
// lapsed holds read as available and the next reserve call is what
// decides.  Holder identities are never exposed.
func (h *Handler) GetInventory(c echo.Context) error {
	id, err := showID(c)
	if err != nil {
		return respondError(c, err)
	}
	seats, err := h.Inventory.GetStatuses(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]seatItem, 0, len(seats))
	for _, s := range seats {
		items = append(items, seatItem{
			ID:            s.ID,
			Section:       s.Section,
			Row:           s.RowLabel,
			Number:        s.SeatNumber,
			Category:      s.Category,
			PriceMinor:    s.PriceMinor,
			Status:        s.Status,
			ReservedUntil: formatTimePtr(s.ReservedUntil),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "items": items})
}
