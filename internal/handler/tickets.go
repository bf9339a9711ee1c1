package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/metrics"
)

type verifyRequest struct {
	// TicketPayload is the ticket object, or the same object as a JSON
	// string the way a QR code carries it.
	TicketPayload json.RawMessage `json:"ticket_payload"`
}

// VerifyTicket handles POST /v1/tickets/verify.  A ticket whose signature
// does not match is 422, anything that is not a ticket is 400.
func (h *Handler) VerifyTicket(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil || len(req.TicketPayload) == 0 {
		return respondError(c, apperr.Invalid("ticket_payload is required"))
	}
	raw := []byte(req.TicketPayload)
	var quoted string
	if json.Unmarshal(raw, &quoted) == nil {
		raw = []byte(quoted)
	}

	p, err := h.Codec.VerifyJSON(raw)
	switch {
	case err == nil:
		metrics.TicketVerifications.WithLabelValues("valid").Inc()
	case apperr.IsInvalid(err):
		return respondError(c, err)
	default:
		metrics.TicketVerifications.WithLabelValues("invalid").Inc()
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":     true,
		"reference": p.Reference,
		"show_id":   p.ShowID,
		"seats":     p.Seats,
	})
}
