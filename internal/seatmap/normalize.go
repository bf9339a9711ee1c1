package seatmap

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// freeform stage edge along y when the stage is at the bottom.
const freeformStageY = 100.0

// Normalize returns the canonical seat list for c: rows nearest the stage
// first, seats within a row by ascending number.  Degenerate charts give
// an empty list.
func Normalize(c Chart) ([]Descriptor, error) {
	switch ch := c.(type) {
	case GridChart:
		return normalizeGrid(ch)
	case *GridChart:
		return normalizeGrid(*ch)
	case FreeformChart:
		return normalizeFreeform(ch)
	case *FreeformChart:
		return normalizeFreeform(*ch)
	case nil:
		return []Descriptor{}, nil
	}
	return nil, apperr.Invalid("unsupported chart type %T", c)
}

// row is an intermediate group of seats sharing one storage row.
type row struct {
	key      string
	order    int     // storage position, tie breaker
	distance float64 // distance to the stage edge
	seats    []Descriptor
}

func normalizeGrid(g GridChart) ([]Descriptor, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if g.Rows == 0 || g.Cols == 0 {
		return []Descriptor{}, nil
	}
	// check bounds Cells by Rows x Cols, so ranging over Cells visits every
	// authored cell and rows or columns it leaves out are empty.
	var stageRows []int
	for r, cells := range g.Cells {
		if slices.Contains(cells, CellStage) {
			stageRows = append(stageRows, r)
		}
	}
	distance := func(r int) float64 {
		switch {
		case g.Stage == StageTop:
			return float64(r)
		case g.Stage == StageBottom:
			return float64(g.Rows - 1 - r)
		case len(stageRows) > 0:
			best := math.MaxFloat64
			for _, s := range stageRows {
				best = min(best, math.Abs(float64(r-s)))
			}
			return best
		default:
			return float64(g.Rows - 1 - r)
		}
	}

	var rows []row
	for r, cells := range g.Cells {
		rw := row{key: strconv.Itoa(r), order: r, distance: distance(r)}
		var n uint32
		for c, k := range cells {
			if !k.IsSeat() {
				continue
			}
			n++
			cat := model.CategoryStandard
			if k == CellHandicap {
				cat = model.CategoryHandicap
			}
			rw.seats = append(rw.seats, Descriptor{
				Section:  g.Section,
				Number:   n,
				Category: cat,
				RowKey:   rw.key,
				X:        float64(c),
				Y:        float64(r),
			})
		}
		if len(rw.seats) > 0 {
			rows = append(rows, rw)
		}
	}
	return label(rows, g.Labels), nil
}

func normalizeFreeform(f FreeformChart) ([]Descriptor, error) {
	if len(f.Seats) == 0 {
		return []Descriptor{}, nil
	}
	byKey := map[string]*row{}
	var rows []*row
	for i, s := range f.Seats {
		if s.Row == "" {
			return nil, apperr.Invalid("seat %d: row is required", i)
		}
		if s.X < 0 || s.X > 100 || s.Y < 0 || s.Y > 100 || math.IsNaN(s.X) || math.IsNaN(s.Y) {
			return nil, apperr.Invalid("seat %d: coordinates must be within 0-100", i)
		}
		cat := s.Category
		switch cat {
		case "":
			cat = model.CategoryStandard
		case model.CategoryStandard, model.CategoryHandicap:
		default:
			return nil, apperr.Invalid("seat %d: unknown category %q", i, cat)
		}
		rw, ok := byKey[s.Row]
		if !ok {
			rw = &row{key: s.Row, order: len(rows)}
			byKey[s.Row] = rw
			rows = append(rows, rw)
		}
		rw.seats = append(rw.seats, Descriptor{
			Section:  f.Section,
			Number:   s.Number,
			Category: cat,
			RowKey:   s.Row,
			X:        s.X,
			Y:        s.Y,
		})
	}

	out := make([]row, 0, len(rows))
	for _, rw := range rows {
		var sumY float64
		for _, d := range rw.seats {
			sumY += d.Y
		}
		meanY := sumY / float64(len(rw.seats))
		if f.Stage == StageTop {
			rw.distance = meanY
		} else {
			rw.distance = freeformStageY - meanY
		}
		if err := numberFreeformRow(rw); err != nil {
			return nil, err
		}
		out = append(out, *rw)
	}
	return label(out, f.Labels), nil
}

// numberFreeformRow keeps explicit numbers and fills the rest by ascending
// x with the lowest numbers not already taken.
func numberFreeformRow(rw *row) error {
	taken := map[uint32]bool{}
	var unnumbered []int
	for i, d := range rw.seats {
		if d.Number == 0 {
			unnumbered = append(unnumbered, i)
			continue
		}
		if taken[d.Number] {
			return apperr.Invalid("duplicate seat %s-%d", rw.key, d.Number)
		}
		taken[d.Number] = true
	}
	slices.SortStableFunc(unnumbered, func(a, b int) int {
		return cmp.Compare(rw.seats[a].X, rw.seats[b].X)
	})
	next := uint32(1)
	for _, i := range unnumbered {
		for taken[next] {
			next++
		}
		rw.seats[i].Number = next
		taken[next] = true
	}
	slices.SortFunc(rw.seats, func(a, b Descriptor) int { return cmp.Compare(a.Number, b.Number) })
	return nil
}

// label orders rows by stage distance (storage order breaks ties) and
// assigns display labels in that order.
func label(rows []row, style LabelStyle) []Descriptor {
	slices.SortStableFunc(rows, func(a, b row) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})
	total := 0
	for _, rw := range rows {
		total += len(rw.seats)
	}
	out := make([]Descriptor, 0, total)
	for i, rw := range rows {
		lbl := RowLabel(style, i)
		for _, d := range rw.seats {
			d.Row = lbl
			out = append(out, d)
		}
	}
	return out
}

// Key returns the "row-number" form used in error messages and logs.
func (d Descriptor) Key() string { return fmt.Sprintf("%s-%d", d.Row, d.Number) }
