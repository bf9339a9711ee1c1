package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
	"github.com/iliyamo/theater-seat-ticketing/internal/seatmap"
)

type createShowRequest struct {
	Title    string            `json:"title" validate:"required,max=255"`
	Venue    string            `json:"venue" validate:"required,max=255"`
	StartsAt time.Time         `json:"starts_at" validate:"required"`
	Chart    json.RawMessage   `json:"chart" validate:"required"`
	Pricing  inventory.Pricing `json:"pricing"`
}

type previewRequest struct {
	Chart json.RawMessage `json:"chart" validate:"required"`
}

type seatIDsRequest struct {
	SeatIDs []uint64 `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
}

// CreateShow handles POST /v1/admin/shows.  The chart is normalized and the
// show is created together with its seats in one transaction, so
// available_seats starts equal to the number of seats in the chart.
func (h *Handler) CreateShow(c echo.Context) error {
	var req createShowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	descs, err := normalizeChart(req.Chart)
	if err != nil {
		return respondError(c, err)
	}

	show := model.Show{
		Title:    strings.TrimSpace(req.Title),
		Venue:    strings.TrimSpace(req.Venue),
		StartsAt: req.StartsAt.UTC(),
	}
	seats, err := h.Inventory.CreateShow(c.Request().Context(), &show, descs, req.Pricing)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":              show.ID,
		"title":           show.Title,
		"venue":           show.Venue,
		"starts_at":       formatTime(show.StartsAt),
		"available_seats": show.AvailableSeats,
		"seats_created":   len(seats),
	})
}

// PreviewChart handles POST /v1/admin/charts/preview.  It returns the
// canonical seat list without persisting anything, so an editor can show
// the labels a chart will produce.
func (h *Handler) PreviewChart(c echo.Context) error {
	var req previewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	descs, err := normalizeChart(req.Chart)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(descs), "seats": descs})
}

// BlockSeats handles POST /v1/admin/shows/:id/block.
func (h *Handler) BlockSeats(c echo.Context) error {
	return h.adminTransition(c, h.Inventory.Block, model.SeatBlocked)
}

// UnblockSeats handles POST /v1/admin/shows/:id/unblock.
func (h *Handler) UnblockSeats(c echo.Context) error {
	return h.adminTransition(c, h.Inventory.Unblock, model.SeatAvailable)
}

func (h *Handler) adminTransition(c echo.Context, apply func(ctx context.Context, showID uint64, seatIDs []uint64) error, to model.SeatStatus) error {
	id, err := showID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req seatIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := apply(c.Request().Context(), id, req.SeatIDs); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seat_ids": req.SeatIDs, "status": to})
}

func normalizeChart(raw json.RawMessage) ([]seatmap.Descriptor, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, apperr.Invalid("chart is required")
	}
	chart, err := seatmap.Decode(raw)
	if err != nil {
		return nil, err
	}
	return seatmap.Normalize(chart)
}
