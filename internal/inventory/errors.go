package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
)

// UnavailableError lists the seats that blocked a transition, partitioned
// by reason.  It matches apperr.ErrSeatUnavailable under errors.Is.
type UnavailableError struct {
	Sold            []uint64
	Blocked         []uint64
	ReservedByOther []uint64
	// Other holds seats in a state the transition does not start from,
	// such as unblocking a seat that is already available.
	Other []uint64
}

func (e *UnavailableError) Error() string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(e.Sold), "already sold")
	add(len(e.Blocked), "blocked")
	add(len(e.ReservedByOther), "held by another shopper")
	add(len(e.Other), "not in the expected state")
	if len(parts) == 0 {
		return apperr.ErrSeatUnavailable.Error()
	}
	return apperr.ErrSeatUnavailable.Error() + ": " + strings.Join(parts, ", ")
}

func (e *UnavailableError) Unwrap() error { return apperr.ErrSeatUnavailable }

// SeatIDs returns every blocking seat id in ascending order.
func (e *UnavailableError) SeatIDs() []uint64 {
	ids := slices.Concat(e.Sold, e.Blocked, e.ReservedByOther, e.Other)
	slices.Sort(ids)
	return ids
}

func (e *UnavailableError) empty() bool {
	return len(e.Sold)+len(e.Blocked)+len(e.ReservedByOther)+len(e.Other) == 0
}

// seatsNotInShow reports ids that do not belong to the show.
func seatsNotInShow(showID uint64, ids []uint64) error {
	return fmt.Errorf("%w: %v not in show %d", apperr.ErrSeatNotFound, ids, showID)
}
