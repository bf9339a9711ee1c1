package repository // show_seats persistence: per-show seat inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

var _ Tx = (*sqlTx)(nil)

const seatColumns = `id, show_id, section, row_label, seat_number, category, price_minor,
		status, reserved_until, held_by, version`

// SeatsByShow returns every seat of a show in insertion order.  Statuses
// are returned as stored; lazy expiry is applied by the caller.
func (q queries) SeatsByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	seats := []model.Seat{}
	err := sqlx.SelectContext(ctx, q.ext, &seats,
		`SELECT `+seatColumns+` FROM show_seats WHERE show_id = ? ORDER BY id`, showID)
	if err != nil {
		return nil, fmt.Errorf("could not list seats: %w", err)
	}
	return seats, nil
}

// LockSeats is a locking read (SELECT ... FOR UPDATE) over the requested
// seats.  Rows are locked in primary key order.
func (q queries) LockSeats(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
	seats := []model.Seat{}
	if len(seatIDs) == 0 {
		return seats, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+seatColumns+` FROM show_seats WHERE show_id = ? AND id IN (?) ORDER BY id FOR UPDATE`,
		showID, seatIDs)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, q.ext, &seats, q.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("could not lock seats: %w", err)
	}
	return seats, nil
}

// UpdateSeats is the conditional write behind every seat transition: one
// UPDATE whose WHERE clause carries the status predicate, so the whole set
// moves or the matched count comes back short and the caller rolls back.
func (q queries) UpdateSeats(ctx context.Context, t SeatTransition) (int64, error) {
	if len(t.SeatIDs) == 0 {
		return 0, nil
	}
	var until any
	var holder any
	if t.To == model.SeatReserved {
		if t.ReservedUntil == nil || t.Holder == "" {
			return 0, fmt.Errorf("reserved transition needs holder and expiry")
		}
		until, holder = t.ReservedUntil.UTC(), t.Holder
	}
	pred, predArgs := statusPredicate(t)
	args := append([]any{t.To, until, holder, t.ShowID, t.SeatIDs}, predArgs...)
	query, args, err := sqlx.In(
		`UPDATE show_seats
			SET status = ?, reserved_until = ?, held_by = ?, version = version + 1
		  WHERE show_id = ? AND id IN (?) AND `+pred, args...)
	if err != nil {
		return 0, err
	}
	res, err := q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("could not update seats: %w", err)
	}
	return res.RowsAffected()
}

// statusPredicate renders SeatTransition.From as SQL.  It must agree with
// model.Seat.Eligible: a lapsed hold counts as available, and an active
// hold only matches "reserved" for its own holder.
func statusPredicate(t SeatTransition) (string, []any) {
	var parts []string
	var args []any
	for _, st := range lo.Uniq(t.From) {
		switch st {
		case model.SeatAvailable:
			parts = append(parts, `status = 'available' OR (status = 'reserved' AND (reserved_until IS NULL OR reserved_until <= ?))`)
			args = append(args, t.Now.UTC())
		case model.SeatReserved:
			if t.Holder == "" {
				continue
			}
			parts = append(parts, `(status = 'reserved' AND reserved_until > ? AND held_by = ?)`)
			args = append(args, t.Now.UTC(), t.Holder)
		case model.SeatSold, model.SeatBlocked:
			parts = append(parts, `status = ?`)
			args = append(args, st)
		}
	}
	if len(parts) == 0 {
		return "FALSE", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// InsertSeats bulk-inserts seats and fills in their ids.  MySQL hands out
// consecutive auto-increment ids for a single multi-row INSERT under the
// default lock mode, so ids are derived from LAST_INSERT_ID.
func (q queries) InsertSeats(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO show_seats (show_id, section, row_label, seat_number, category, price_minor, status, version) VALUES `
	args := make([]any, 0, len(seats)*8)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, 1)"
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, s.ShowID, s.Section, s.RowLabel, s.SeatNumber, s.Category, s.PriceMinor, status)
	}
	res, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("could not insert seats: %w", err)
	}
	first, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i := range seats {
		seats[i].ID = uint64(first) + uint64(i)
		seats[i].Version = 1
		if seats[i].Status == "" {
			seats[i].Status = model.SeatAvailable
		}
	}
	return nil
}
