package repository

import (
	"context"

	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// Queries are the reads available both inside and outside a transaction.
type Queries interface {
	ShowByID(ctx context.Context, showID uint64) (model.Show, error)
	SeatsByShow(ctx context.Context, showID uint64) ([]model.Seat, error)
	BookingByReference(ctx context.Context, reference string) (model.Booking, error)
}

// Tx is the unit of work handed to WithinTx callbacks.
type Tx interface {
	Queries

	// LockSeats reads the requested seats of a show and holds write locks
	// on them until the transaction ends.  Unknown ids are simply absent.
	LockSeats(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error)
	// UpdateSeats applies t as a single conditional write and returns the
	// number of rows that matched the predicate.
	UpdateSeats(ctx context.Context, t SeatTransition) (int64, error)

	InsertShow(ctx context.Context, s *model.Show) error
	InsertSeats(ctx context.Context, seats []model.Seat) error
	AdjustAvailable(ctx context.Context, showID uint64, delta int) error

	InsertBooking(ctx context.Context, b *model.Booking) error
	MarkTicketSent(ctx context.Context, bookingID string, sent bool) error
}

// Store runs fn inside a transaction: committed when fn returns nil,
// rolled back otherwise.
type Store interface {
	Queries
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
