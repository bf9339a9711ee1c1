// Package booking turns a shopper's hold into a sale.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
	"github.com/iliyamo/theater-seat-ticketing/internal/metrics"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
	"github.com/iliyamo/theater-seat-ticketing/internal/repository"
	"github.com/iliyamo/theater-seat-ticketing/internal/ticket"
)

// maxReferenceAttempts bounds reference regeneration on collision.
const maxReferenceAttempts = 5

// purchasable seats: free ones, or the caller's own live hold
var purchasable = []model.SeatStatus{model.SeatAvailable, model.SeatReserved}

// Notification is what the notifier receives after a booking commits.
type Notification struct {
	BookingID string
	Reference string
	Customer  model.Customer
	Ticket    ticket.Payload
}

// Notifier hands a ticket to the delivery channel.  accepted reports
// whether the channel took responsibility for it.
type Notifier interface {
	Send(ctx context.Context, n Notification) (accepted bool, err error)
}

// Request is one checkout.
type Request struct {
	ShowID      uint64
	SeatIDs     []uint64
	Holder      string
	Customer    model.Customer
	TotalAmount int64
}

// Result is a committed booking plus the notification outcome.
type Result struct {
	Booking          model.Booking
	Ticket           ticket.Payload
	NotificationSent bool
}

type Finalizer struct {
	inv           *inventory.Inventory
	codec         *ticket.Codec
	refs          *ReferenceGenerator
	notifier      Notifier
	notifyTimeout time.Duration
	newID         func() string
}

type Option func(*Finalizer)

// WithNotifyTimeout bounds the post-commit notification call.
func WithNotifyTimeout(d time.Duration) Option {
	return func(f *Finalizer) { f.notifyTimeout = d }
}

// WithIDGenerator replaces uuid.NewString for booking ids.
func WithIDGenerator(fn func() string) Option {
	return func(f *Finalizer) { f.newID = fn }
}

func NewFinalizer(inv *inventory.Inventory, codec *ticket.Codec, refs *ReferenceGenerator, notifier Notifier, opts ...Option) *Finalizer {
	f := &Finalizer{
		inv:           inv,
		codec:         codec,
		refs:          refs,
		notifier:      notifier,
		notifyTimeout: 3 * time.Second,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (r *Request) validate() error {
	r.Customer.Name = strings.TrimSpace(r.Customer.Name)
	r.Customer.Email = strings.TrimSpace(r.Customer.Email)
	r.Customer.Phone = strings.TrimSpace(r.Customer.Phone)
	switch {
	case r.Customer.Name == "" || r.Customer.Email == "":
		return apperr.ErrMissingCustomer
	case r.TotalAmount < 0:
		return apperr.ErrNegativeAmount
	case r.Holder == "":
		return apperr.ErrMissingHolder
	}
	r.SeatIDs = lo.Uniq(r.SeatIDs)
	if len(r.SeatIDs) == 0 {
		return apperr.ErrNoSeats
	}
	return nil
}

// Finalize sells the requested seats to the holder.  Inside one store
// transaction it re-validates the seats, inserts the confirmed booking with
// its signed ticket, moves the seats to sold with the conditional write and
// decrements the show's available_seats.  Any failure rolls all of it back.
// The ticket is handed to the notifier only after commit, and a failed
// notification never undoes the booking.
func (f *Finalizer) Finalize(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := f.finalize(ctx, req)
	metrics.FinalizeDuration.Observe(time.Since(start).Seconds())
	metrics.Finalizations.WithLabelValues(outcome(err)).Inc()

	log := logging.FromContext(ctx).WithField("show_id", req.ShowID)
	var ue *inventory.UnavailableError
	switch {
	case err == nil:
	case errors.As(err, &ue):
		log.WithFields(logrus.Fields{
			"sold":              len(ue.Sold),
			"blocked":           len(ue.Blocked),
			"reserved_by_other": len(ue.ReservedByOther),
		}).Info("finalize rejected")
		return Result{}, err
	case apperr.IsInvalid(err), apperr.IsNotFound(err), errors.Is(err, apperr.ErrSeatUnavailable):
		log.WithError(err).Info("finalize refused")
		return Result{}, err
	default:
		log.WithError(err).Error("finalize failed")
		return Result{}, err
	}

	metrics.SeatsSold.Add(float64(len(res.Booking.SeatIDs)))
	log = log.WithFields(logrus.Fields{"booking_id": res.Booking.ID, "reference": res.Booking.Reference})
	log.Info("booking confirmed")

	res.NotificationSent = f.notify(ctx, res)
	if res.NotificationSent {
		res.Booking.TicketSent = true
		err := f.inv.Store().WithinTx(ctx, func(tx repository.Tx) error {
			return tx.MarkTicketSent(ctx, res.Booking.ID, true)
		})
		if err != nil {
			log.WithError(err).Warn("could not record ticket_sent")
		}
	}
	return res, nil
}

func (f *Finalizer) finalize(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	t, err := f.inv.NewTransition(req.ShowID, req.SeatIDs, purchasable, model.SeatSold, inventory.Extra{Holder: req.Holder})
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = f.inv.Store().WithinTx(ctx, func(tx repository.Tx) error {
		seats, err := f.inv.Prepare(ctx, tx, t)
		if err != nil {
			return err
		}
		show, err := tx.ShowByID(ctx, req.ShowID)
		if err != nil {
			return err
		}

		b := model.Booking{
			ID:          f.newID(),
			ShowID:      req.ShowID,
			HolderID:    req.Holder,
			SeatIDs:     t.SeatIDs,
			Customer:    req.Customer,
			TotalAmount: req.TotalAmount,
			Status:      model.BookingConfirmed,
			CreatedAt:   t.Now,
			ConfirmedAt: t.Now,
		}
		payload, err := f.insertWithReference(ctx, tx, &b, show, seats)
		if err != nil {
			return err
		}
		if err := f.inv.Apply(ctx, tx, t); err != nil {
			return err
		}
		if err := tx.AdjustAvailable(ctx, req.ShowID, -len(t.SeatIDs)); err != nil {
			return err
		}
		res = Result{Booking: b, Ticket: payload}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// insertWithReference signs the ticket and inserts the booking, drawing a
// fresh reference whenever the previous one is taken.
func (f *Finalizer) insertWithReference(ctx context.Context, tx repository.Tx, b *model.Booking, show model.Show, seats []model.Seat) (ticket.Payload, error) {
	base := ticket.Payload{
		BookingID:    b.ID,
		ShowID:       show.ID,
		ShowTitle:    show.Title,
		ShowDatetime: show.StartsAt.UTC().Format(time.RFC3339),
		CustomerName: b.Customer.Name,
		Seats: lo.Map(seats, func(s model.Seat, _ int) ticket.Seat {
			return ticket.Seat{Section: s.Section, Row: s.RowLabel, Number: s.SeatNumber}
		}),
	}
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		ref, err := f.refs.New(b.CreatedAt)
		if err != nil {
			return ticket.Payload{}, err
		}
		p := base
		p.Reference = ref
		signed, err := f.codec.Sign(p)
		if err != nil {
			return ticket.Payload{}, err
		}
		raw, err := ticket.Encode(signed)
		if err != nil {
			return ticket.Payload{}, err
		}
		b.Reference = ref
		b.TicketPayload = raw
		err = tx.InsertBooking(ctx, b)
		if errors.Is(err, repository.ErrDuplicateReference) {
			logging.FromContext(ctx).WithField("reference", ref).Warn("booking reference collision, retrying")
			continue
		}
		if err != nil {
			return ticket.Payload{}, err
		}
		return signed, nil
	}
	return ticket.Payload{}, fmt.Errorf("could not allocate a unique booking reference after %d attempts", maxReferenceAttempts)
}

// notify runs after commit with its own deadline.  It reports whether the
// notifier accepted the ticket.
func (f *Finalizer) notify(ctx context.Context, res Result) bool {
	if f.notifier == nil {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return false
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.notifyTimeout)
	defer cancel()

	accepted, err := f.notifier.Send(nctx, Notification{
		BookingID: res.Booking.ID,
		Reference: res.Booking.Reference,
		Customer:  res.Booking.Customer,
		Ticket:    res.Ticket,
	})
	if err != nil || !accepted {
		metrics.Notifications.WithLabelValues("rejected").Inc()
		logging.FromContext(ctx).WithError(err).WithField("reference", res.Booking.Reference).Warn("ticket notification not accepted")
		return false
	}
	metrics.Notifications.WithLabelValues("accepted").Inc()
	return true
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
