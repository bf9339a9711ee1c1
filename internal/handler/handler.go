// Package handler exposes the box office over HTTP.
package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/booking"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/reservation"
	"github.com/iliyamo/theater-seat-ticketing/internal/ticket"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	Inventory  *inventory.Inventory
	Holds      *reservation.Service
	Finalizer  *booking.Finalizer
	Codec      *ticket.Codec
	JWTSecret  string        // signs guest session tokens
	SessionTTL time.Duration // lifetime of guest session tokens
}

// New constructs a Handler and panics if a service is missing.
func New(inv *inventory.Inventory, holds *reservation.Service, fin *booking.Finalizer, codec *ticket.Codec, jwtSecret string, sessionTTL time.Duration) *Handler {
	if inv == nil || holds == nil || fin == nil || codec == nil {
		panic("nil service passed to handler.New")
	}
	return &Handler{
		Inventory:  inv,
		Holds:      holds,
		Finalizer:  fin,
		Codec:      codec,
		JWTSecret:  jwtSecret,
		SessionTTL: sessionTTL,
	}
}

// showID parses the :id path parameter.
func showID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid show id %q", c.Param("id"))
	}
	return id, nil
}

// bindAndValidate binds the request body into v and runs the echo
// validator over it.  Both failures are InvalidRequest.
func bindAndValidate(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Invalid("invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return err
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
