package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/utils"
)

// CreateSession handles POST /v1/sessions.  It mints a shopper token for a
// fresh guest identity; holds and bookings made with the token belong to
// that identity.
func (h *Handler) CreateSession(c echo.Context) error {
	holder := "guest-" + uuid.NewString()
	tok, err := utils.NewAccessToken(h.JWTSecret, holder, utils.RoleShopper, h.SessionTTL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"holder_id":    holder,
		"access_token": tok.Token,
		"expires_at":   formatTime(tok.Exp),
	})
}
