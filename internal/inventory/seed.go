package inventory

import (
	"context"

	"github.com/samber/lo"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
	"github.com/iliyamo/theater-seat-ticketing/internal/repository"
	"github.com/iliyamo/theater-seat-ticketing/internal/seatmap"
)

// Pricing assigns a unit price (minor units) to each seat descriptor.  The
// most specific rule wins: row label, then category, then section, then
// Default.
type Pricing struct {
	Default    int64                        `json:"default" validate:"gte=0"`
	Sections   map[string]int64             `json:"sections,omitempty"`
	Categories map[model.SeatCategory]int64 `json:"categories,omitempty"`
	Rows       map[string]int64             `json:"rows,omitempty"`
}

// Price returns the unit price for d.
func (p Pricing) Price(d seatmap.Descriptor) int64 {
	if v, ok := p.Rows[d.Row]; ok {
		return v
	}
	if v, ok := p.Categories[d.Category]; ok {
		return v
	}
	if v, ok := p.Sections[d.Section]; ok {
		return v
	}
	return p.Default
}

func (p Pricing) validate() error {
	if p.Default < 0 {
		return apperr.Invalid("pricing: default cannot be negative")
	}
	for _, m := range []map[string]int64{p.Sections, p.Rows} {
		for k, v := range m {
			if v < 0 {
				return apperr.Invalid("pricing: %q cannot be negative", k)
			}
		}
	}
	for k, v := range p.Categories {
		if v < 0 {
			return apperr.Invalid("pricing: %q cannot be negative", k)
		}
	}
	return nil
}

// CreateShow inserts show and seeds its inventory from descs in one
// transaction.  available_seats ends up equal to len(descs).
func (i *Inventory) CreateShow(ctx context.Context, show *model.Show, descs []seatmap.Descriptor, pricing Pricing) ([]model.Seat, error) {
	if err := pricing.validate(); err != nil {
		return nil, err
	}
	var seats []model.Seat
	err := i.store.WithinTx(ctx, func(tx repository.Tx) error {
		show.AvailableSeats = 0
		if err := tx.InsertShow(ctx, show); err != nil {
			return err
		}
		var err error
		seats, err = i.seedTx(ctx, tx, show.ID, descs, pricing)
		return err
	})
	if err != nil {
		return nil, err
	}
	show.AvailableSeats = len(seats)
	return seats, nil
}

// Seed adds seats for descs to an existing show and raises its
// available_seats counter by the number of seats created.
func (i *Inventory) Seed(ctx context.Context, showID uint64, descs []seatmap.Descriptor, pricing Pricing) ([]model.Seat, error) {
	if err := pricing.validate(); err != nil {
		return nil, err
	}
	var seats []model.Seat
	err := i.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.ShowByID(ctx, showID); err != nil {
			return err
		}
		var err error
		seats, err = i.seedTx(ctx, tx, showID, descs, pricing)
		return err
	})
	return seats, err
}

func (i *Inventory) seedTx(ctx context.Context, tx repository.Tx, showID uint64, descs []seatmap.Descriptor, pricing Pricing) ([]model.Seat, error) {
	if len(descs) == 0 {
		return []model.Seat{}, nil
	}
	dup := lo.FindDuplicatesBy(descs, func(d seatmap.Descriptor) string { return d.Section + "/" + d.Key() })
	if len(dup) > 0 {
		return nil, apperr.Invalid("duplicate seat %s", dup[0].Key())
	}
	seats := lo.Map(descs, func(d seatmap.Descriptor, _ int) model.Seat {
		return model.Seat{
			ShowID:     showID,
			Section:    d.Section,
			RowLabel:   d.Row,
			SeatNumber: d.Number,
			Category:   d.Category,
			PriceMinor: pricing.Price(d),
			Status:     model.SeatAvailable,
		}
	})
	if err := tx.InsertSeats(ctx, seats); err != nil {
		return nil, err
	}
	if err := tx.AdjustAvailable(ctx, showID, len(seats)); err != nil {
		return nil, err
	}
	return seats, nil
}
