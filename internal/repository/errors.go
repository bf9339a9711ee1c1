package repository

import (
	"errors"
	"time"

	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// ErrDuplicateReference is returned by InsertBooking when the booking
// reference is already taken.  Callers generate a new reference and retry.
var ErrDuplicateReference = errors.New("booking reference already exists")

// ErrConflict indicates the conditional seat write matched fewer rows than
// requested even though the locked snapshot looked eligible.
var ErrConflict = errors.New("conflict")

// SeatTransition is one set-level conditional write.  Every seat in
// SeatIDs must currently satisfy the From predicate (see model.Seat.Eligible)
// or nothing changes.
type SeatTransition struct {
	ShowID        uint64
	SeatIDs       []uint64
	From          []model.SeatStatus
	To            model.SeatStatus
	Holder        string     // identity allowed to move its own active hold
	ReservedUntil *time.Time // set only when To is reserved
	Now           time.Time  // lazy-expiry reference instant
}
