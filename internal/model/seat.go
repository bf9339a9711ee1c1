package model

import (
	"slices"
	"time"
)

// SeatStatus is the availability state of a seat for one show.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatReserved  SeatStatus = "reserved"
	SeatSold      SeatStatus = "sold"
	SeatBlocked   SeatStatus = "blocked"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatReserved, SeatSold, SeatBlocked:
		return true
	}
	return false
}

// SeatCategory distinguishes standard seats from accessible ones.
type SeatCategory string

const (
	CategoryStandard SeatCategory = "standard"
	CategoryHandicap SeatCategory = "handicap"
)

// Seat is one addressable seat of a show.  ReservedUntil and HeldBy are
// only meaningful while Status is SeatReserved.
//
// Fields:
//  ID            – show_seats.id
//  ShowID        – show the seat belongs to.
//  Section       – section name (e.g. "Orchestra").
//  RowLabel      – display row label, "A"/"1" nearest the stage.
//  SeatNumber    – 1-based number within the row.
//  Category      – standard or handicap.
//  PriceMinor    – unit price in minor currency units.
//  Status        – availability state as stored.
//  ReservedUntil – hold expiry (nil unless reserved).
//  HeldBy        – holder identity of the active hold.
//  Version       – bumped on every write.
type Seat struct {
	ID            uint64       `db:"id"`
	ShowID        uint64       `db:"show_id"`
	Section       string       `db:"section"`
	RowLabel      string       `db:"row_label"`
	SeatNumber    uint32       `db:"seat_number"`
	Category      SeatCategory `db:"category"`
	PriceMinor    int64        `db:"price_minor"`
	Status        SeatStatus   `db:"status"`
	ReservedUntil *time.Time   `db:"reserved_until"`
	HeldBy        *string      `db:"held_by"`
	Version       uint32       `db:"version"`
}

// HoldActive reports whether a reserved seat's hold is still in force at now.
// A hold expires exactly at its reserved_until instant.
func HoldActive(status SeatStatus, reservedUntil *time.Time, now time.Time) bool {
	return status == SeatReserved && reservedUntil != nil && now.Before(*reservedUntil)
}

// EffectiveStatus applies lazy expiry: a reserved seat whose hold has
// lapsed is available regardless of what the store says.
func EffectiveStatus(status SeatStatus, reservedUntil *time.Time, now time.Time) SeatStatus {
	if status == SeatReserved && !HoldActive(status, reservedUntil, now) {
		return SeatAvailable
	}
	return status
}

// Effective returns a copy of the seat as a reader should see it at now.
func (s Seat) Effective(now time.Time) Seat {
	if EffectiveStatus(s.Status, s.ReservedUntil, now) != s.Status {
		s.Status = SeatAvailable
		s.ReservedUntil = nil
		s.HeldBy = nil
	}
	return s
}

// HeldByHolder reports whether the seat carries an active hold by holder.
func (s Seat) HeldByHolder(holder string, now time.Time) bool {
	return HoldActive(s.Status, s.ReservedUntil, now) && s.HeldBy != nil && holder != "" && *s.HeldBy == holder
}

// Eligible reports whether the seat may take part in a transition whose
// source statuses are from, on behalf of holder.  Lazy expiry applies
// first, and an active hold only counts as reserved for its own holder.
func (s Seat) Eligible(from []SeatStatus, holder string, now time.Time) bool {
	eff := EffectiveStatus(s.Status, s.ReservedUntil, now)
	if !slices.Contains(from, eff) {
		return false
	}
	if eff == SeatReserved {
		return s.HeldByHolder(holder, now)
	}
	return true
}
