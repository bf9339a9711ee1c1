package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
)

// respondError maps the error taxonomy onto HTTP responses:
//
//	NotFound         404 not_found
//	SeatUnavailable  409 seat_unavailable (blocking seats and per-reason counts when known)
//	InvalidRequest   400 invalid_request
//	SignatureInvalid 422 signature_invalid
//
// Anything else is logged and answered with a bare 500.
func respondError(c echo.Context, err error) error {
	var ue *inventory.UnavailableError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ue):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":             "seat_unavailable",
			"message":           ue.Error(),
			"sold":                    ids(ue.Sold),
			"blocked":                 ids(ue.Blocked),
			"reserved_by_other":       ids(ue.ReservedByOther),
			"sold_count":              len(ue.Sold),
			"blocked_count":           len(ue.Blocked),
			"reserved_by_other_count": len(ue.ReservedByOther),
			"seat_ids":                ids(ue.SeatIDs()),
		})
	case errors.Is(err, apperr.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat_unavailable", "message": err.Error()})
	case apperr.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	case apperr.IsInvalid(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "message": err.Error()})
	case errors.Is(err, apperr.ErrSignatureInvalid):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "signature_invalid", "valid": false})
	case errors.As(err, &he):
		return he
	}
	logging.FromContext(c.Request().Context()).WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

func ids(v []uint64) []uint64 {
	if v == nil {
		return []uint64{}
	}
	return v
}
