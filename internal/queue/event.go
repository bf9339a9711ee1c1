// Package queue moves issued tickets over RabbitMQ: the publisher hands
// them to the broker after a booking commits, and the consumer delivers
// them to the customer.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/theater-seat-ticketing/internal/booking"
	"github.com/iliyamo/theater-seat-ticketing/internal/ticket"
)

// TicketIssuedEvent is published once per confirmed booking.  It carries
// the signed ticket as issued plus the contact details needed to deliver
// it, so the consumer never has to query the primary database.
type TicketIssuedEvent struct {
	BookingID     string         `json:"booking_id"`
	Reference     string         `json:"reference"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone,omitempty"`
	Ticket        ticket.Payload `json:"ticket"`
	IssuedAt      string         `json:"issued_at"`
}

// NewTicketIssuedEvent builds the event for a committed booking.
func NewTicketIssuedEvent(n booking.Notification, at time.Time) TicketIssuedEvent {
	return TicketIssuedEvent{
		BookingID:     n.BookingID,
		Reference:     n.Reference,
		CustomerName:  n.Customer.Name,
		CustomerEmail: n.Customer.Email,
		CustomerPhone: n.Customer.Phone,
		Ticket:        n.Ticket,
		IssuedAt:      at.UTC().Format(time.RFC3339),
	}
}

func decodeEvent(body []byte) (TicketIssuedEvent, error) {
	var ev TicketIssuedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return TicketIssuedEvent{}, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Reference == "" || ev.CustomerEmail == "" {
		return TicketIssuedEvent{}, fmt.Errorf("event missing reference or recipient")
	}
	return ev, nil
}
