package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

func TestStatusPredicate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		tr    SeatTransition
		want  string
		nargs int
	}{
		{
			name:  "available includes lapsed holds",
			tr:    SeatTransition{From: []model.SeatStatus{model.SeatAvailable}, Now: now},
			want:  "(status = 'available' OR (status = 'reserved' AND (reserved_until IS NULL OR reserved_until <= ?)))",
			nargs: 1,
		},
		{
			name: "reserved is scoped to the holder",
			tr: SeatTransition{
				From:   []model.SeatStatus{model.SeatAvailable, model.SeatReserved, model.SeatAvailable},
				Holder: "h1",
				Now:    now,
			},
			want:  "(status = 'available' OR (status = 'reserved' AND (reserved_until IS NULL OR reserved_until <= ?)) OR (status = 'reserved' AND reserved_until > ? AND held_by = ?))",
			nargs: 3,
		},
		{
			name: "reserved without holder matches nothing",
			tr:   SeatTransition{From: []model.SeatStatus{model.SeatReserved}, Now: now},
			want: "FALSE",
		},
		{
			name:  "blocked",
			tr:    SeatTransition{From: []model.SeatStatus{model.SeatBlocked}, Now: now},
			want:  "(status = ?)",
			nargs: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := statusPredicate(tt.tr)
			assert.Equal(t, tt.want, got)
			assert.Len(t, args, tt.nargs)
		})
	}
}

func seedMemory(t *testing.T, m *MemoryStore, n int) (model.Show, []model.Seat) {
	t.Helper()
	show := model.Show{Title: "Hamlet", Venue: "Globe", StartsAt: time.Now().Add(24 * time.Hour)}
	seats := make([]model.Seat, n)
	err := m.WithinTx(context.Background(), func(tx Tx) error {
		if err := tx.InsertShow(context.Background(), &show); err != nil {
			return err
		}
		for i := range seats {
			seats[i] = model.Seat{
				ShowID: show.ID, Section: "Main", RowLabel: "A", SeatNumber: uint32(i + 1),
				Category: model.CategoryStandard, PriceMinor: 1000, Status: model.SeatAvailable,
			}
		}
		if err := tx.InsertSeats(context.Background(), seats); err != nil {
			return err
		}
		return tx.AdjustAvailable(context.Background(), show.ID, n)
	})
	require.NoError(t, err)
	show.AvailableSeats = n
	return show, seats
}

func TestMemoryStore_RollbackRestoresState(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	show, seats := seedMemory(t, m, 3)
	now := time.Now()

	boom := errors.New("boom")
	err := m.WithinTx(ctx, func(tx Tx) error {
		n, err := tx.UpdateSeats(ctx, SeatTransition{
			ShowID: show.ID, SeatIDs: []uint64{seats[0].ID, seats[1].ID},
			From: []model.SeatStatus{model.SeatAvailable}, To: model.SeatSold, Now: now,
		})
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
		require.NoError(t, tx.AdjustAvailable(ctx, show.ID, -2))
		require.NoError(t, tx.InsertBooking(ctx, &model.Booking{ID: "b1", Reference: "REF-1", ShowID: show.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := m.SeatsByShow(ctx, show.ID)
	require.NoError(t, err)
	for _, s := range got {
		assert.Equal(t, model.SeatAvailable, s.Status)
		assert.EqualValues(t, 1, s.Version)
	}
	sh, err := m.ShowByID(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sh.AvailableSeats)
	_, err = m.BookingByReference(ctx, "REF-1")
	assert.ErrorIs(t, err, apperr.ErrBookingNotFound)
}

func TestMemoryStore_UpdateSeatsHonoursHolds(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	show, seats := seedMemory(t, m, 2)
	now := time.Now()
	until := now.Add(time.Minute)

	err := m.WithinTx(ctx, func(tx Tx) error {
		n, err := tx.UpdateSeats(ctx, SeatTransition{
			ShowID: show.ID, SeatIDs: []uint64{seats[0].ID},
			From: []model.SeatStatus{model.SeatAvailable}, To: model.SeatReserved,
			Holder: "alice", ReservedUntil: &until, Now: now,
		})
		require.EqualValues(t, 1, n)
		return err
	})
	require.NoError(t, err)

	sold := SeatTransition{
		ShowID: show.ID, SeatIDs: []uint64{seats[0].ID},
		From: []model.SeatStatus{model.SeatAvailable, model.SeatReserved}, To: model.SeatSold,
		Holder: "bob", Now: now,
	}
	_ = m.WithinTx(ctx, func(tx Tx) error {
		n, err := tx.UpdateSeats(ctx, sold)
		assert.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})

	// at the expiry instant the hold no longer counts
	sold.Now = until
	_ = m.WithinTx(ctx, func(tx Tx) error {
		n, err := tx.UpdateSeats(ctx, sold)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return nil
	})
}

func TestMemoryStore_Bookings(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	show, seats := seedMemory(t, m, 1)

	b := &model.Booking{ID: "b1", Reference: "TKT-20260301-00AA", ShowID: show.ID, SeatIDs: []uint64{seats[0].ID}}
	require.NoError(t, m.WithinTx(ctx, func(tx Tx) error { return tx.InsertBooking(ctx, b) }))

	err := m.WithinTx(ctx, func(tx Tx) error {
		return tx.InsertBooking(ctx, &model.Booking{ID: "b2", Reference: "tkt-20260301-00aa", ShowID: show.ID})
	})
	assert.ErrorIs(t, err, ErrDuplicateReference)

	got, err := m.BookingByReference(ctx, "tkt-20260301-00aa")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
	assert.False(t, got.TicketSent)

	require.NoError(t, m.WithinTx(ctx, func(tx Tx) error { return tx.MarkTicketSent(ctx, "b1", true) }))
	got, err = m.BookingByReference(ctx, b.Reference)
	require.NoError(t, err)
	assert.True(t, got.TicketSent)

	err = m.WithinTx(ctx, func(tx Tx) error { return tx.MarkTicketSent(ctx, "missing", true) })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryStore_AvailableNeverNegative(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	show, _ := seedMemory(t, m, 1)

	err := m.WithinTx(ctx, func(tx Tx) error { return tx.AdjustAvailable(ctx, show.ID, -2) })
	assert.ErrorIs(t, err, ErrConflict)
	err = m.WithinTx(ctx, func(tx Tx) error { return tx.AdjustAvailable(ctx, show.ID+1, 1) })
	assert.ErrorIs(t, err, apperr.ErrShowNotFound)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := m.WithinTx(ctx, func(Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
