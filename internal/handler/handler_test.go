package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-ticketing/internal/booking"
	"github.com/iliyamo/theater-seat-ticketing/internal/handler"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/middleware"
	"github.com/iliyamo/theater-seat-ticketing/internal/repository"
	"github.com/iliyamo/theater-seat-ticketing/internal/reservation"
	"github.com/iliyamo/theater-seat-ticketing/internal/router"
	"github.com/iliyamo/theater-seat-ticketing/internal/ticket"
	"github.com/iliyamo/theater-seat-ticketing/internal/utils"
)

const jwtSecret = "handler-test-secret"

type acceptingNotifier struct{ calls int }

func (n *acceptingNotifier) Send(context.Context, booking.Notification) (bool, error) {
	n.calls++
	return true, nil
}

type api struct {
	t        *testing.T
	e        *echo.Echo
	admin    string
	notifier *acceptingNotifier
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := repository.NewMemoryStore()
	inv := inventory.New(store)
	codec, err := ticket.NewCodec([]byte("ticket-secret"))
	require.NoError(t, err)
	n := &acceptingNotifier{}
	fin := booking.NewFinalizer(inv, codec, booking.NewReferenceGenerator("TKT"), n)
	h := handler.New(inv, reservation.NewService(inv, 5*time.Minute, 15*time.Minute), fin, codec, jwtSecret, time.Hour)

	admin, err := utils.NewAccessToken(jwtSecret, "ops", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return &api{t: t, e: router.New(router.Deps{Handler: h, JWTSecret: jwtSecret}), admin: "Bearer " + admin.Token, notifier: n}
}

// do sends body as JSON and decodes the JSON response into a map.
func (a *api) do(method, path string, body any, hdr map[string]string) (int, map[string]any) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if ct := rec.Header().Get(echo.HeaderContentType); len(ct) >= 16 && ct[:16] == echo.MIMEApplicationJSON {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (a *api) asAdmin() map[string]string { return map[string]string{echo.HeaderAuthorization: a.admin} }

func holder(id string) map[string]string { return map[string]string{middleware.HeaderHolderID: id} }

// createShow makes a 2x3 grid show; seat ids 1-3 are row A (nearest the
// stage) and 4-6 row B.  Seat 2 (A2) is a handicap seat.
func (a *api) createShow() uint64 {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/v1/admin/shows", map[string]any{
		"title":     "The Cherry Orchard",
		"venue":     "Main Stage",
		"starts_at": "2026-06-01T19:30:00Z",
		"chart": map[string]any{
			"gridRows": 2, "gridCols": 3, "section": "Stalls",
			"cells": [][]string{{"seat", "seat", "seat"}, {"seat", "handicap", "seat"}},
		},
		"pricing": map[string]any{"default": 2500, "categories": map[string]int{"handicap": 1500}},
	}, a.asAdmin())
	require.Equal(a.t, http.StatusCreated, code, body)
	assert.EqualValues(a.t, 6, body["available_seats"])
	return uint64(body["id"].(float64))
}

func customer() map[string]any {
	return map[string]any{"name": "Ada Lovelace", "email": "ada@example.com"}
}

func TestShopperFlow(t *testing.T) {
	a := newAPI(t)
	show := a.createShow()
	base := fmt.Sprintf("/v1/shows/%d", show)

	code, sess := a.do(http.MethodPost, "/v1/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, code)
	shopper := map[string]string{echo.HeaderAuthorization: "Bearer " + sess["access_token"].(string)}

	code, inv := a.do(http.MethodGet, base+"/inventory", nil, nil)
	require.Equal(t, http.StatusOK, code)
	items := inv["items"].([]any)
	require.Len(t, items, 6)
	first := items[0].(map[string]any)
	assert.Equal(t, "A", first["row"])
	assert.EqualValues(t, 1, first["number"])
	assert.Equal(t, "available", first["status"])
	assert.EqualValues(t, 1500, items[1].(map[string]any)["price_minor"])

	code, res := a.do(http.MethodPost, base+"/reserve", map[string]any{"seat_ids": []int{1, 2}, "ttl_seconds": 60}, shopper)
	require.Equal(t, http.StatusCreated, code, res)
	assert.Equal(t, []any{1.0, 2.0}, res["seat_ids"])
	assert.NotEmpty(t, res["reserved_until"])

	code, res = a.do(http.MethodPost, base+"/reserve", map[string]any{"seat_ids": []int{2, 3}}, holder("rival"))
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "seat_unavailable", res["error"])
	assert.Equal(t, []any{2.0}, res["reserved_by_other"])
	assert.Equal(t, []any{}, res["sold"])
	assert.EqualValues(t, 1, res["reserved_by_other_count"])
	assert.EqualValues(t, 0, res["sold_count"])
	assert.EqualValues(t, 0, res["blocked_count"])

	// naming the guest identity in the header does not reach its holds
	impostor := holder(sess["holder_id"].(string))
	code, res = a.do(http.MethodPost, base+"/finalize", map[string]any{
		"seat_ids": []int{1}, "customer": customer(),
	}, impostor)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []any{1.0}, res["reserved_by_other"])

	code, inv = a.do(http.MethodGet, base+"/inventory", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "reserved", inv["items"].([]any)[0].(map[string]any)["status"])
	assert.Equal(t, "available", inv["items"].([]any)[2].(map[string]any)["status"])

	code, fin := a.do(http.MethodPost, base+"/finalize", map[string]any{
		"seat_ids": []int{1, 2}, "customer": customer(), "total_amount": 4000,
	}, shopper)
	require.Equal(t, http.StatusCreated, code, fin)
	assert.Equal(t, true, fin["notification_sent"])
	assert.Regexp(t, `^TKT-\d{8}-[0-9A-F]{4}$`, fin["booking_reference"])
	assert.Equal(t, 1, a.notifier.calls)
	tkt := fin["ticket_payload"].(map[string]any)
	assert.Equal(t, "The Cherry Orchard", tkt["show_title"])
	assert.Equal(t, "2026-06-01T19:30:00Z", tkt["show_datetime"])

	// verify the ticket as an object and as a QR-style string
	code, v := a.do(http.MethodPost, "/v1/tickets/verify", map[string]any{"ticket_payload": tkt}, nil)
	require.Equal(t, http.StatusOK, code, v)
	assert.Equal(t, true, v["valid"])
	raw, err := json.Marshal(tkt)
	require.NoError(t, err)
	code, _ = a.do(http.MethodPost, "/v1/tickets/verify", map[string]any{"ticket_payload": string(raw)}, nil)
	assert.Equal(t, http.StatusOK, code)

	tkt["customer_name"] = "Mallory"
	code, v = a.do(http.MethodPost, "/v1/tickets/verify", map[string]any{"ticket_payload": tkt}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "signature_invalid", v["error"])
	code, _ = a.do(http.MethodPost, "/v1/tickets/verify", map[string]any{"ticket_payload": "{oops"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// sold seats block everyone, including the buyer
	code, res = a.do(http.MethodPost, base+"/reserve", map[string]any{"seat_ids": []int{1}}, shopper)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []any{1.0}, res["sold"])

	ref := fin["booking_reference"].(string)
	code, b := a.do(http.MethodGet, "/v1/bookings/"+ref, nil, shopper)
	require.Equal(t, http.StatusOK, code, b)
	assert.Equal(t, []any{1.0, 2.0}, b["seat_ids"])
	assert.Equal(t, true, b["ticket_sent"])
	assert.EqualValues(t, 4000, b["total_amount"])
	code, _ = a.do(http.MethodGet, "/v1/bookings/"+ref, nil, holder("rival"))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodGet, "/v1/bookings/"+ref, nil, impostor)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodGet, "/v1/bookings/"+ref, nil, a.asAdmin())
	assert.Equal(t, http.StatusOK, code)
}

func TestFinalizeErrors(t *testing.T) {
	a := newAPI(t)
	show := a.createShow()
	path := fmt.Sprintf("/v1/shows/%d/finalize", show)

	code, _ := a.do(http.MethodPost, path, map[string]any{"seat_ids": []int{1}, "customer": customer()}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := a.do(http.MethodPost, path, map[string]any{
		"seat_ids": []int{1}, "customer": map[string]any{"name": "Ada", "email": "not-an-email"},
	}, holder("h"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "customer.email")

	code, _ = a.do(http.MethodPost, path, map[string]any{"seat_ids": []int{1}, "customer": customer(), "total_amount": -5}, holder("h"))
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(http.MethodPost, path, map[string]any{"seat_ids": []int{}, "customer": customer()}, holder("h"))
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(http.MethodPost, path, `{"seat_ids":`, holder("h"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/v1/shows/999/finalize", map[string]any{"seat_ids": []int{1}, "customer": customer()}, holder("h"))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodPost, path, map[string]any{"seat_ids": []int{1, 99}, "customer": customer()}, holder("h"))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodPost, "/v1/shows/abc/finalize", map[string]any{"seat_ids": []int{1}, "customer": customer()}, holder("h"))
	assert.Equal(t, http.StatusBadRequest, code)

	// nothing was sold along the way
	_, inv := a.do(http.MethodGet, fmt.Sprintf("/v1/shows/%d/inventory", show), nil, nil)
	for _, it := range inv["items"].([]any) {
		assert.Equal(t, "available", it.(map[string]any)["status"])
	}
	assert.Zero(t, a.notifier.calls)
}

func TestAdminBlockAndPreview(t *testing.T) {
	a := newAPI(t)
	show := a.createShow()
	base := fmt.Sprintf("/v1/admin/shows/%d", show)

	code, _ := a.do(http.MethodPost, base+"/block", map[string]any{"seat_ids": []int{3}}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	shopper, err := utils.NewAccessToken(jwtSecret, "g", utils.RoleShopper, time.Hour)
	require.NoError(t, err)
	code, _ = a.do(http.MethodPost, base+"/block", map[string]any{"seat_ids": []int{3}},
		map[string]string{echo.HeaderAuthorization: "Bearer " + shopper.Token})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := a.do(http.MethodPost, base+"/block", map[string]any{"seat_ids": []int{3}}, a.asAdmin())
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "blocked", body["status"])

	code, res := a.do(http.MethodPost, fmt.Sprintf("/v1/shows/%d/reserve", show), map[string]any{"seat_ids": []int{3, 4}}, holder("h"))
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []any{3.0}, res["blocked"])
	assert.Equal(t, []any{3.0}, res["seat_ids"])

	code, _ = a.do(http.MethodPost, base+"/unblock", map[string]any{"seat_ids": []int{3}}, a.asAdmin())
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPost, base+"/unblock", map[string]any{"seat_ids": []int{3}}, a.asAdmin())
	assert.Equal(t, http.StatusConflict, code)

	code, prev := a.do(http.MethodPost, "/v1/admin/charts/preview", map[string]any{
		"chart": map[string]any{
			"stage": "top",
			"seats": []map[string]any{
				{"x": 10, "y": 80, "row": "back"},
				{"x": 20, "y": 10, "row": "front"},
				{"x": 10, "y": 12, "row": "front"},
			},
		},
	}, a.asAdmin())
	require.Equal(t, http.StatusOK, code, prev)
	assert.EqualValues(t, 3, prev["count"])
	seats := prev["seats"].([]any)
	assert.Equal(t, "A", seats[0].(map[string]any)["row"])
	assert.EqualValues(t, 10, seats[0].(map[string]any)["x"])
	assert.Equal(t, "B", seats[2].(map[string]any)["row"])

	code, _ = a.do(http.MethodPost, "/v1/admin/charts/preview", map[string]any{
		"chart": map[string]any{"gridRows": 1, "gridCols": 1, "cells": [][]string{{"seat"}}, "seats": []any{}},
	}, a.asAdmin())
	assert.Equal(t, http.StatusBadRequest, code)

	// a grid smaller than its cells would drop seats, so it is refused
	code, body = a.do(http.MethodPost, "/v1/admin/shows", map[string]any{
		"title": "Ivanov", "venue": "Main Stage", "starts_at": "2026-07-01T19:30:00Z",
		"chart": map[string]any{
			"gridRows": 1, "gridCols": 1,
			"cells": [][]string{{"seat", "seat"}, {"seat", "seat"}},
		},
		"pricing": map[string]any{"default": 2500},
	}, a.asAdmin())
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, prev = a.do(http.MethodPost, "/v1/admin/charts/preview", map[string]any{
		"chart": map[string]any{"cells": [][]string{{"seat", "seat"}, {"seat", "seat"}}},
	}, a.asAdmin())
	require.Equal(t, http.StatusOK, code, prev)
	assert.EqualValues(t, 4, prev["count"])
}

func TestProbes(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	e := echo.New()
	e.GET("/readyz", handler.Ready(func(context.Context) error { return fmt.Errorf("db down") }))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
