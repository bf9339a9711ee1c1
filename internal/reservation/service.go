// Package reservation places time-limited holds on seats for one shopper.
//
// Holds are never swept.  A hold lapses when its reserved_until passes;
// readers and later transitions treat it as available from then on.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
	"github.com/iliyamo/theater-seat-ticketing/internal/metrics"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// a shopper may hold available seats or refresh their own hold
var reservable = []model.SeatStatus{model.SeatAvailable, model.SeatReserved}

type Service struct {
	inv        *inventory.Inventory
	defaultTTL time.Duration
	maxTTL     time.Duration
}

func NewService(inv *inventory.Inventory, defaultTTL, maxTTL time.Duration) *Service {
	if maxTTL < defaultTTL {
		maxTTL = defaultTTL
	}
	return &Service{inv: inv, defaultTTL: defaultTTL, maxTTL: maxTTL}
}

// Result is a successful hold.
type Result struct {
	SeatIDs       []uint64
	ReservedUntil time.Time
}

// Reserve holds seatIDs for holder until now+ttl.  A zero ttl uses the
// configured default; longer requests are capped at the maximum.  Seats the
// holder already holds are refreshed.
func (s *Service) Reserve(ctx context.Context, showID uint64, seatIDs []uint64, holder string, ttl time.Duration) (Result, error) {
	res, err := s.reserve(ctx, showID, seatIDs, holder, ttl)
	metrics.Reservations.WithLabelValues(outcome(err)).Inc()

	log := logging.FromContext(ctx).WithFields(logrus.Fields{"show_id": showID, "seats": len(seatIDs)})
	var ue *inventory.UnavailableError
	switch {
	case err == nil:
		log.WithField("reserved_until", res.ReservedUntil).Info("seats reserved")
	case errors.As(err, &ue):
		log.WithFields(logrus.Fields{
			"sold":              len(ue.Sold),
			"blocked":           len(ue.Blocked),
			"reserved_by_other": len(ue.ReservedByOther),
		}).Info("reservation rejected")
	case apperr.IsInvalid(err), apperr.IsNotFound(err):
		log.WithError(err).Debug("reservation refused")
	default:
		log.WithError(err).Error("reservation failed")
	}
	return res, err
}

func (s *Service) reserve(ctx context.Context, showID uint64, seatIDs []uint64, holder string, ttl time.Duration) (Result, error) {
	if holder == "" {
		return Result{}, apperr.ErrMissingHolder
	}
	ids := lo.Uniq(seatIDs)
	if len(ids) == 0 {
		return Result{}, apperr.ErrNoSeats
	}
	switch {
	case ttl < 0:
		return Result{}, apperr.Invalid("ttl cannot be negative")
	case ttl == 0:
		ttl = s.defaultTTL
	case ttl > s.maxTTL:
		ttl = s.maxTTL
	}
	until := s.inv.Now().Add(ttl)
	err := s.inv.TryTransition(ctx, showID, ids, reservable, model.SeatReserved, inventory.Extra{
		Holder:        holder,
		ReservedUntil: &until,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{SeatIDs: ids, ReservedUntil: until}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrSeatUnavailable):
		return "unavailable"
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsInvalid(err):
		return "invalid"
	}
	return "error"
}
