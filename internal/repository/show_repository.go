// Package repository contains data access for shows, their seat inventory
// and bookings.  Statements are written once against sqlx.ExtContext and
// shared between the pooled handle and open transactions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// ShowByID loads a show; a missing row yields apperr.ErrShowNotFound.
func (q queries) ShowByID(ctx context.Context, showID uint64) (model.Show, error) {
	var s model.Show
	err := sqlx.GetContext(ctx, q.ext, &s,
		`SELECT id, title, venue, starts_at, available_seats, created_at FROM shows WHERE id = ?`, showID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Show{}, apperr.ErrShowNotFound
	}
	if err != nil {
		return model.Show{}, fmt.Errorf("could not get show: %w", err)
	}
	return s, nil
}

// InsertShow inserts s and fills in its generated id and created_at.
func (q queries) InsertShow(ctx context.Context, s *model.Show) error {
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO shows (title, venue, starts_at, available_seats)
		VALUES (:title, :venue, :starts_at, :available_seats)`, s)
	if err != nil {
		return fmt.Errorf("could not insert show: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return sqlx.GetContext(ctx, q.ext, &s.CreatedAt, `SELECT created_at FROM shows WHERE id = ?`, s.ID)
}

// AdjustAvailable moves the denormalized available_seats counter.  The
// guard keeps it from going negative.
func (q queries) AdjustAvailable(ctx context.Context, showID uint64, delta int) error {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE shows SET available_seats = available_seats + ? WHERE id = ? AND available_seats + ? >= 0`,
		delta, showID, delta)
	if err != nil {
		return fmt.Errorf("could not adjust available seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := q.ShowByID(ctx, showID); err != nil {
			return err
		}
		return fmt.Errorf("available_seats would go negative for show %d: %w", showID, ErrConflict)
	}
	return nil
}
