package middleware

// identity.go resolves who a request acts for.  The holder identity is the
// JWT subject when a bearer token is presented, otherwise the X-Holder-ID
// header under the hdr- namespace.  Seat holds and bookings are recorded
// against it.

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-ticketing/internal/utils"
)

// Context keys set by the identity middleware.
const (
	CtxHolderID = "holder_id"
	CtxRole     = "role"
)

// HeaderHolderID lets anonymous clients name their own holder identity.
// The value is namespaced with HeaderHolderPrefix so a header can never
// claim an identity minted into a token.
const (
	HeaderHolderID     = "X-Holder-ID"
	HeaderHolderPrefix = "hdr-"
)

const maxHolderLen = 64

// Identity returns a middleware that attaches the holder identity and role
// to the echo context when the request carries one.  A malformed bearer
// token is rejected with 401; no credentials at all is fine here and left
// to RequireHolder.
func Identity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
				raw, ok := strings.CutPrefix(auth, "Bearer ")
				if !ok {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
				}
				claims, err := utils.ParseAccessToken(secret, raw)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				c.Set(CtxHolderID, claims.Subject)
				c.Set(CtxRole, claims.Role)
				return next(c)
			}
			if h := strings.TrimSpace(c.Request().Header.Get(HeaderHolderID)); h != "" {
				if len(h) > maxHolderLen {
					return c.JSON(http.StatusBadRequest, echo.Map{"error": "holder id too long"})
				}
				c.Set(CtxHolderID, HeaderHolderPrefix+h)
			}
			return next(c)
		}
	}
}

// RequireHolder rejects requests without a holder identity.
func RequireHolder() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HolderID(c) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "holder identity required"})
			}
			return next(c)
		}
	}
}

// HolderID returns the holder identity attached by Identity, or "".
func HolderID(c echo.Context) string {
	if v, ok := c.Get(CtxHolderID).(string); ok {
		return v
	}
	return ""
}

// holderKey is HolderID with a placeholder for anonymous callers, used in
// rate limit keys.
func holderKey(c echo.Context) string {
	if h := HolderID(c); h != "" {
		return h
	}
	return "anon"
}
