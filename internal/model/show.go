package model

import "time"

// Show represents a scheduled performance.  AvailableSeats is a
// denormalized counter equal to the number of seats that are not sold;
// only booking finalization decrements it.
//
// Fields:
//  ID             – shows.id
//  Title          – production title.
//  Venue          – venue name.
//  StartsAt       – performance start (UTC).
//  AvailableSeats – count of seats not yet sold.
//  CreatedAt      – creation timestamp.
type Show struct {
	ID             uint64    `db:"id"`
	Title          string    `db:"title"`
	Venue          string    `db:"venue"`
	StartsAt       time.Time `db:"starts_at"`
	AvailableSeats int       `db:"available_seats"`
	CreatedAt      time.Time `db:"created_at"`
}
