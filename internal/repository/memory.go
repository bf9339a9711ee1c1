package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// MemoryStore is a Store kept in process memory.  Transactions are
// serialized by one mutex and rolled back by restoring a snapshot, which
// gives the same all-or-nothing behaviour as the MySQL store for a single
// process.  It backs unit tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu sync.Mutex
	st memState
}

type memState struct {
	shows      map[uint64]model.Show
	seats      map[uint64]model.Seat
	showSeats  map[uint64][]uint64
	bookings   map[string]model.Booking
	references map[string]string
	nextShow   uint64
	nextSeat   uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: memState{
		shows:      map[uint64]model.Show{},
		seats:      map[uint64]model.Seat{},
		showSeats:  map[uint64][]uint64{},
		bookings:   map[string]model.Booking{},
		references: map[string]string{},
	}}
}

func (s memState) clone() memState {
	c := s
	c.shows = maps.Clone(s.shows)
	c.seats = maps.Clone(s.seats)
	c.showSeats = make(map[uint64][]uint64, len(s.showSeats))
	for k, v := range s.showSeats {
		c.showSeats[k] = slices.Clone(v)
	}
	c.bookings = maps.Clone(s.bookings)
	c.references = maps.Clone(s.references)
	return c
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := m.st.clone()
	if err := fn(&memTx{st: &m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (m *MemoryStore) ShowByID(ctx context.Context, showID uint64) (model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: &m.st}).ShowByID(ctx, showID)
}

func (m *MemoryStore) SeatsByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: &m.st}).SeatsByShow(ctx, showID)
}

func (m *MemoryStore) BookingByReference(ctx context.Context, reference string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: &m.st}).BookingByReference(ctx, reference)
}

// memTx operates on state owned by a MemoryStore whose mutex is held.
type memTx struct {
	st *memState
}

func (t *memTx) ShowByID(_ context.Context, showID uint64) (model.Show, error) {
	s, ok := t.st.shows[showID]
	if !ok {
		return model.Show{}, apperr.ErrShowNotFound
	}
	return s, nil
}

func (t *memTx) SeatsByShow(_ context.Context, showID uint64) ([]model.Seat, error) {
	ids := t.st.showSeats[showID]
	out := make([]model.Seat, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.st.seats[id])
	}
	return out, nil
}

func (t *memTx) BookingByReference(_ context.Context, reference string) (model.Booking, error) {
	id, ok := t.st.references[strings.ToUpper(reference)]
	if !ok {
		return model.Booking{}, apperr.ErrBookingNotFound
	}
	b := t.st.bookings[id]
	b.SeatIDs = slices.Clone(b.SeatIDs)
	b.TicketPayload = slices.Clone(b.TicketPayload)
	return b, nil
}

func (t *memTx) LockSeats(_ context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
	out := make([]model.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		if s, ok := t.st.seats[id]; ok && s.ShowID == showID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) UpdateSeats(_ context.Context, tr SeatTransition) (int64, error) {
	var matched []uint64
	for _, id := range tr.SeatIDs {
		s, ok := t.st.seats[id]
		if ok && s.ShowID == tr.ShowID && s.Eligible(tr.From, tr.Holder, tr.Now) {
			matched = append(matched, id)
		}
	}
	for _, id := range matched {
		s := t.st.seats[id]
		s.Status = tr.To
		s.ReservedUntil, s.HeldBy = nil, nil
		if tr.To == model.SeatReserved {
			until, holder := *tr.ReservedUntil, tr.Holder
			s.ReservedUntil, s.HeldBy = &until, &holder
		}
		s.Version++
		t.st.seats[id] = s
	}
	return int64(len(matched)), nil
}

func (t *memTx) InsertShow(_ context.Context, s *model.Show) error {
	t.st.nextShow++
	s.ID = t.st.nextShow
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	t.st.shows[s.ID] = *s
	return nil
}

func (t *memTx) InsertSeats(_ context.Context, seats []model.Seat) error {
	for i := range seats {
		if _, ok := t.st.shows[seats[i].ShowID]; !ok {
			return apperr.ErrShowNotFound
		}
		t.st.nextSeat++
		seats[i].ID = t.st.nextSeat
		if seats[i].Version == 0 {
			seats[i].Version = 1
		}
		t.st.seats[seats[i].ID] = seats[i]
		t.st.showSeats[seats[i].ShowID] = append(t.st.showSeats[seats[i].ShowID], seats[i].ID)
	}
	return nil
}

func (t *memTx) AdjustAvailable(_ context.Context, showID uint64, delta int) error {
	s, ok := t.st.shows[showID]
	if !ok {
		return apperr.ErrShowNotFound
	}
	if s.AvailableSeats+delta < 0 {
		return fmt.Errorf("available_seats would go negative for show %d: %w", showID, ErrConflict)
	}
	s.AvailableSeats += delta
	t.st.shows[showID] = s
	return nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	ref := strings.ToUpper(b.Reference)
	if _, taken := t.st.references[ref]; taken {
		return ErrDuplicateReference
	}
	stored := *b
	stored.SeatIDs = slices.Clone(b.SeatIDs)
	stored.TicketPayload = slices.Clone(b.TicketPayload)
	t.st.bookings[b.ID] = stored
	t.st.references[ref] = b.ID
	return nil
}

func (t *memTx) MarkTicketSent(_ context.Context, bookingID string, sent bool) error {
	b, ok := t.st.bookings[bookingID]
	if !ok {
		return apperr.ErrBookingNotFound
	}
	b.TicketSent = sent
	t.st.bookings[bookingID] = b
	return nil
}

// PutSeat writes a seat directly, bypassing transactions.  Tests use it to
// put seats into states the public operations cannot reach in one step.
func (m *MemoryStore) PutSeat(seat model.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.seats[seat.ID]; !ok {
		m.st.showSeats[seat.ShowID] = append(m.st.showSeats[seat.ShowID], seat.ID)
	}
	if seat.ID > m.st.nextSeat {
		m.st.nextSeat = seat.ID
	}
	m.st.seats[seat.ID] = seat
}
