package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// unique index names from schema.sql
const (
	idxBookingReference = "uq_bookings_reference"
	idxBookingSeat      = "uq_booking_seats_seat"
)

type bookingRow struct {
	ID            string         `db:"id"`
	Reference     string         `db:"reference"`
	ShowID        uint64         `db:"show_id"`
	HolderID      string         `db:"holder_id"`
	CustomerName  string         `db:"customer_name"`
	CustomerEmail string         `db:"customer_email"`
	CustomerPhone sql.NullString `db:"customer_phone"`
	TotalAmount   int64          `db:"total_amount"`
	Status        string         `db:"status"`
	TicketPayload []byte         `db:"ticket_payload"`
	TicketSent    bool           `db:"ticket_sent"`
	CreatedAt     time.Time      `db:"created_at"`
	ConfirmedAt   time.Time      `db:"confirmed_at"`
}

func (r bookingRow) toModel(seatIDs []uint64) model.Booking {
	return model.Booking{
		ID:            r.ID,
		Reference:     r.Reference,
		ShowID:        r.ShowID,
		HolderID:      r.HolderID,
		SeatIDs:       seatIDs,
		TicketPayload: r.TicketPayload,
		Customer: model.Customer{
			Name:  r.CustomerName,
			Email: r.CustomerEmail,
			Phone: r.CustomerPhone.String,
		},
		TotalAmount: r.TotalAmount,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		ConfirmedAt: r.ConfirmedAt,
		TicketSent:  r.TicketSent,
	}
}

// InsertBooking stores the booking and its seat links.  A reference
// collision yields ErrDuplicateReference; a seat already linked to another
// booking yields ErrConflict.
func (q queries) InsertBooking(ctx context.Context, b *model.Booking) error {
	row := bookingRow{
		ID:            b.ID,
		Reference:     b.Reference,
		ShowID:        b.ShowID,
		HolderID:      b.HolderID,
		CustomerName:  b.Customer.Name,
		CustomerEmail: b.Customer.Email,
		CustomerPhone: sql.NullString{String: b.Customer.Phone, Valid: b.Customer.Phone != ""},
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		TicketPayload: b.TicketPayload,
		TicketSent:    b.TicketSent,
		CreatedAt:     b.CreatedAt.UTC(),
		ConfirmedAt:   b.ConfirmedAt.UTC(),
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO bookings (id, reference, show_id, holder_id, customer_name, customer_email, customer_phone,
		                      total_amount, status, ticket_payload, ticket_sent, created_at, confirmed_at)
		VALUES (:id, :reference, :show_id, :holder_id, :customer_name, :customer_email, :customer_phone,
		        :total_amount, :status, :ticket_payload, :ticket_sent, :created_at, :confirmed_at)`, row)
	if isDuplicate(err, idxBookingReference) {
		return ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("could not insert booking: %w", err)
	}

	query := `INSERT INTO booking_seats (booking_id, seat_id) VALUES `
	args := make([]any, 0, len(b.SeatIDs)*2)
	for i, id := range b.SeatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, b.ID, id)
	}
	if len(args) == 0 {
		return nil
	}
	if _, err := q.ext.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err, idxBookingSeat) {
			return fmt.Errorf("%w: seat already booked: %w", apperr.ErrSeatUnavailable, ErrConflict)
		}
		return fmt.Errorf("could not insert booking seats: %w", err)
	}
	return nil
}

// BookingByReference looks a booking up case-insensitively.
func (q queries) BookingByReference(ctx context.Context, reference string) (model.Booking, error) {
	var row bookingRow
	err := sqlx.GetContext(ctx, q.ext, &row, `
		SELECT id, reference, show_id, holder_id, customer_name, customer_email, customer_phone,
		       total_amount, status, ticket_payload, ticket_sent, created_at, confirmed_at
		  FROM bookings WHERE reference = ?`, strings.ToUpper(reference))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, apperr.ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}
	seatIDs := []uint64{}
	if err := sqlx.SelectContext(ctx, q.ext, &seatIDs,
		`SELECT seat_id FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`, row.ID); err != nil {
		return model.Booking{}, fmt.Errorf("could not get booking seats: %w", err)
	}
	return row.toModel(seatIDs), nil
}

// MarkTicketSent records the outcome of the post-commit notification.
func (q queries) MarkTicketSent(ctx context.Context, bookingID string, sent bool) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE bookings SET ticket_sent = ? WHERE id = ?`, sent, bookingID)
	if err != nil {
		return fmt.Errorf("could not mark ticket sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrBookingNotFound
	}
	return nil
}
