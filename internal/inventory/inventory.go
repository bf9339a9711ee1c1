// Package inventory is the authoritative seat state for shows.  All seat
// mutations go through one conditional, set-level transition: either every
// requested seat moves or none does, and the caller learns which seats were
// in the way and why.
package inventory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/metrics"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
	"github.com/iliyamo/theater-seat-ticketing/internal/repository"
)

// Extra carries the fields that accompany a transition.
type Extra struct {
	Holder        string
	ReservedUntil *time.Time
}

type Inventory struct {
	store repository.Store
	now   func() time.Time
}

type Option func(*Inventory)

// WithClock overrides the wall clock used for lazy expiry.
func WithClock(now func() time.Time) Option {
	return func(i *Inventory) { i.now = now }
}

func New(store repository.Store, opts ...Option) *Inventory {
	i := &Inventory{store: store, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Now is the inventory clock in UTC.
func (i *Inventory) Now() time.Time { return i.now().UTC() }

// Store returns the backing store so collaborators can share transactions.
func (i *Inventory) Store() repository.Store { return i.store }

// GetStatuses returns the seats of a show as a reader should see them:
// holds whose reserved_until has passed read as available, with holder
// and expiry cleared.  Nothing is written back.
func (i *Inventory) GetStatuses(ctx context.Context, showID uint64) ([]model.Seat, error) {
	if _, err := i.store.ShowByID(ctx, showID); err != nil {
		return nil, err
	}
	seats, err := i.store.SeatsByShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	now := i.Now()
	return lo.Map(seats, func(s model.Seat, _ int) model.Seat { return s.Effective(now) }), nil
}

// NewTransition validates and normalizes a transition request.  Seat ids
// are de-duplicated; the evaluation instant is taken from the clock.
func (i *Inventory) NewTransition(showID uint64, seatIDs []uint64, from []model.SeatStatus, to model.SeatStatus, extra Extra) (repository.SeatTransition, error) {
	ids := lo.Uniq(seatIDs)
	if len(ids) == 0 {
		return repository.SeatTransition{}, apperr.ErrNoSeats
	}
	if !to.Valid() {
		return repository.SeatTransition{}, apperr.Invalid("unknown seat status %q", to)
	}
	if len(from) == 0 {
		return repository.SeatTransition{}, apperr.Invalid("transition needs at least one source status")
	}
	t := repository.SeatTransition{
		ShowID:  showID,
		SeatIDs: ids,
		From:    slices.Clone(from),
		To:      to,
		Holder:  extra.Holder,
		Now:     i.Now(),
	}
	if to == model.SeatReserved {
		if extra.Holder == "" {
			return repository.SeatTransition{}, apperr.ErrMissingHolder
		}
		if extra.ReservedUntil == nil || !extra.ReservedUntil.After(t.Now) {
			return repository.SeatTransition{}, apperr.Invalid("reserved_until must be in the future")
		}
		until := extra.ReservedUntil.UTC()
		t.ReservedUntil = &until
	}
	return t, nil
}

// TryTransition is the sole mutation primitive.  It succeeds only if every
// seat currently satisfies from (after lazy expiry, with active holds
// reserved to their holder); otherwise nothing changes and the error is an
// *UnavailableError naming the blockers.  Seats outside the show give
// apperr.ErrSeatNotFound.
func (i *Inventory) TryTransition(ctx context.Context, showID uint64, seatIDs []uint64, from []model.SeatStatus, to model.SeatStatus, extra Extra) error {
	t, err := i.NewTransition(showID, seatIDs, from, to, extra)
	if err != nil {
		return err
	}
	return i.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := i.Prepare(ctx, tx, t); err != nil {
			return err
		}
		return i.Apply(ctx, tx, t)
	})
}

// Prepare locks the seats of t inside tx and checks them against the
// transition predicate.  It returns the locked seats in id order.
func (i *Inventory) Prepare(ctx context.Context, tx repository.Tx, t repository.SeatTransition) ([]model.Seat, error) {
	if _, err := tx.ShowByID(ctx, t.ShowID); err != nil {
		return nil, err
	}
	seats, err := tx.LockSeats(ctx, t.ShowID, t.SeatIDs)
	if err != nil {
		return nil, err
	}
	found := lo.Map(seats, func(s model.Seat, _ int) uint64 { return s.ID })
	if missing := lo.Without(t.SeatIDs, found...); len(missing) > 0 {
		return nil, seatsNotInShow(t.ShowID, missing)
	}
	if blockers := Classify(seats, t); blockers != nil {
		return nil, blockers
	}
	slices.SortFunc(seats, func(a, b model.Seat) int { return cmp.Compare(a.ID, b.ID) })
	return seats, nil
}

// Apply performs the conditional write for t.  A short matched count means
// the set changed underneath us; the caller's transaction must roll back.
func (i *Inventory) Apply(ctx context.Context, tx repository.Tx, t repository.SeatTransition) error {
	n, err := tx.UpdateSeats(ctx, t)
	if err != nil {
		return err
	}
	if n != int64(len(t.SeatIDs)) {
		return fmt.Errorf("%w: transition matched %d of %d seats: %w", apperr.ErrSeatUnavailable, n, len(t.SeatIDs), repository.ErrConflict)
	}
	return nil
}

// Classify partitions the seats that do not satisfy t.  It returns nil
// when every seat is eligible.
func Classify(seats []model.Seat, t repository.SeatTransition) *UnavailableError {
	e := &UnavailableError{}
	for _, s := range seats {
		if s.Eligible(t.From, t.Holder, t.Now) {
			continue
		}
		switch model.EffectiveStatus(s.Status, s.ReservedUntil, t.Now) {
		case model.SeatSold:
			e.Sold = append(e.Sold, s.ID)
		case model.SeatBlocked:
			e.Blocked = append(e.Blocked, s.ID)
		case model.SeatReserved:
			e.ReservedByOther = append(e.ReservedByOther, s.ID)
		default:
			e.Other = append(e.Other, s.ID)
		}
	}
	if e.empty() {
		return nil
	}
	metrics.TransitionConflicts.WithLabelValues("sold").Add(float64(len(e.Sold)))
	metrics.TransitionConflicts.WithLabelValues("blocked").Add(float64(len(e.Blocked)))
	metrics.TransitionConflicts.WithLabelValues("reserved_by_other").Add(float64(len(e.ReservedByOther)))
	metrics.TransitionConflicts.WithLabelValues("other").Add(float64(len(e.Other)))
	return e
}

// Block takes available seats out of sale.  Active holds and sold seats
// cannot be blocked.
func (i *Inventory) Block(ctx context.Context, showID uint64, seatIDs []uint64) error {
	return i.TryTransition(ctx, showID, seatIDs, []model.SeatStatus{model.SeatAvailable}, model.SeatBlocked, Extra{})
}

// Unblock returns blocked seats to sale.
func (i *Inventory) Unblock(ctx context.Context, showID uint64, seatIDs []uint64) error {
	return i.TryTransition(ctx, showID, seatIDs, []model.SeatStatus{model.SeatBlocked}, model.SeatAvailable, Extra{})
}
