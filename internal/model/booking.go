package model

import "time"

// BookingConfirmed is the only status a booking takes in this service.
const BookingConfirmed = "confirmed"

// Customer holds the contact fields captured at checkout.
type Customer struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// Booking is created once per successful checkout and never changes
// afterwards except for TicketSent.
//
// Fields:
//  ID            – bookings.id (UUID).
//  Reference     – human-readable PREFIX-YYYYMMDD-XXXX reference.
//  ShowID        – show the seats belong to.
//  HolderID      – shopper identity that held and bought the seats.
//  SeatIDs       – finalized seat set (stored in booking_seats).
//  TicketPayload – signed ticket as JSON.
//  Customer      – contact fields.
//  TotalAmount   – amount paid in minor units.
//  Status        – always BookingConfirmed.
//  CreatedAt     – insertion time.
//  ConfirmedAt   – confirmation time.
//  TicketSent    – whether the notifier accepted the ticket.
type Booking struct {
	ID            string
	Reference     string
	ShowID        uint64
	HolderID      string
	SeatIDs       []uint64
	TicketPayload []byte
	Customer      Customer
	TotalAmount   int64
	Status        string
	CreatedAt     time.Time
	ConfirmedAt   time.Time
	TicketSent    bool
}
