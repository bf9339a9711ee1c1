package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogMailer "delivers" tickets by appending one line per ticket to a file.
// It stands in for a real mail or SMS gateway.
type LogMailer struct {
	path string
	mu   sync.Mutex
}

func NewLogMailer(path string) *LogMailer {
	return &LogMailer{path: path}
}

func (m *LogMailer) Deliver(_ context.Context, ev TicketIssuedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	seats := make([]string, len(ev.Ticket.Seats))
	for i, s := range ev.Ticket.Seats {
		seats[i] = fmt.Sprintf("%s%d", s.Row, s.Number)
		if s.Section != "" {
			seats[i] = s.Section + ":" + seats[i]
		}
	}

	line := fmt.Sprintf("[%s] Ticket issued | reference=%s | booking_id=%s | to=\"%s\" <%s> | show=\"%s\" | starts=%s | seats=[%s]\n",
		ev.IssuedAt, ev.Reference, ev.BookingID, ev.CustomerName, ev.CustomerEmail,
		ev.Ticket.ShowTitle, ev.Ticket.ShowDatetime, strings.Join(seats, ","))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
