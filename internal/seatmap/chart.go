// Package seatmap turns an authored seating chart into the canonical,
// ordered list of seats that inventory is seeded from.
//
// Two chart shapes are accepted: a grid of typed cells and a freeform list
// of positioned seats.  In both cases display row labels are assigned
// nearest-stage-first and never depend on the order the authoring tool
// stored its rows in.
package seatmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

// CellKind is the type of one grid cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellSeat
	CellHandicap
	CellAisle
	CellWall
	CellStage
)

var cellNames = [...]string{"empty", "seat", "handicap", "aisle", "wall", "stage"}

func (k CellKind) String() string {
	if int(k) < len(cellNames) {
		return cellNames[k]
	}
	return fmt.Sprintf("CellKind(%d)", k)
}

// IsSeat reports whether the cell produces a seat.
func (k CellKind) IsSeat() bool { return k == CellSeat || k == CellHandicap }

// ParseCellKind accepts the lower-case names used by the chart editor.
// An empty string reads as CellEmpty.
func ParseCellKind(s string) (CellKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CellEmpty, nil
	}
	for i, n := range cellNames {
		if n == s {
			return CellKind(i), nil
		}
	}
	return CellEmpty, apperr.Invalid("unknown cell kind %q", s)
}

func (k CellKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CellKind) UnmarshalText(b []byte) error {
	v, err := ParseCellKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// StageSide pins where the stage is when the chart does not say so itself.
type StageSide string

const (
	StageAuto   StageSide = ""
	StageTop    StageSide = "top"
	StageBottom StageSide = "bottom"
)

// Chart is either a GridChart or a FreeformChart.
type Chart interface {
	chart()
}

// GridChart is a row/column matrix of cells.  Row 0 is the first row as
// stored by the editor.
type GridChart struct {
	Rows    int
	Cols    int
	Cells   [][]CellKind
	Stage   StageSide
	Labels  LabelStyle
	Section string
}

// FreeformSeat is a seat placed at normalized coordinates (0-100 on both
// axes).  Number is optional; zero means "assign by x".
type FreeformSeat struct {
	X        float64            `json:"x"`
	Y        float64            `json:"y"`
	Row      string             `json:"row"`
	Number   uint32             `json:"number,omitempty"`
	Category model.SeatCategory `json:"category,omitempty"`
}

// FreeformChart is a list of positioned seats grouped by declared row key.
// The stage edge is y=100 unless Stage is StageTop.
type FreeformChart struct {
	Seats   []FreeformSeat
	Stage   StageSide
	Labels  LabelStyle
	Section string
}

// maxGridDim bounds both grid dimensions.
const maxGridDim = 1000

// check rejects dimensions outside 0..maxGridDim and cells that lie beyond
// Rows x Cols.  Missing trailing cells read as empty.
func (g GridChart) check() error {
	if g.Rows < 0 || g.Cols < 0 || g.Rows > maxGridDim || g.Cols > maxGridDim {
		return apperr.Invalid("chart: grid dimensions must be between 0 and %d", maxGridDim)
	}
	if len(g.Cells) > g.Rows {
		return apperr.Invalid("chart: %d cell rows exceed gridRows %d", len(g.Cells), g.Rows)
	}
	for r, row := range g.Cells {
		if len(row) > g.Cols {
			return apperr.Invalid("chart: cells row %d has %d cells, gridCols is %d", r, len(row), g.Cols)
		}
	}
	return nil
}

func (GridChart) chart()     {}
func (FreeformChart) chart() {}

// Descriptor is one canonical seat.  Row is the display label; RowKey is
// the row as the chart stored it.
type Descriptor struct {
	Section  string             `json:"section"`
	Row      string             `json:"row"`
	Number   uint32             `json:"number"`
	Category model.SeatCategory `json:"category"`
	RowKey   string             `json:"row_key"`
	X        float64            `json:"x"`
	Y        float64            `json:"y"`
}

// chartDoc is the wire shape sent by the editor.
type chartDoc struct {
	GridRows *int           `json:"gridRows"`
	GridCols *int           `json:"gridCols"`
	Cells    [][]CellKind   `json:"cells"`
	Seats    []FreeformSeat `json:"seats"`
	Stage    StageSide      `json:"stage"`
	Labels   LabelStyle     `json:"labels"`
	Section  string         `json:"section"`
}

// Decode parses an editor chart document into a GridChart or FreeformChart.
// A document carrying both cells and seats is rejected.  A grid must be
// exactly gridRows x gridCols cells; absent dimensions are taken from cells.
func Decode(data []byte) (Chart, error) {
	var doc chartDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.Invalid("chart: %v", err)
	}
	switch doc.Stage {
	case StageAuto, StageTop, StageBottom:
	default:
		return nil, apperr.Invalid("chart: stage must be top or bottom")
	}
	switch doc.Labels {
	case "", LabelLetters, LabelNumbers:
	default:
		return nil, apperr.Invalid("chart: labels must be letters or numbers")
	}
	isGrid := doc.GridRows != nil || doc.GridCols != nil || doc.Cells != nil
	if isGrid && doc.Seats != nil {
		return nil, apperr.Invalid("chart: cells and seats are mutually exclusive")
	}
	if isGrid {
		g := GridChart{Cells: doc.Cells, Stage: doc.Stage, Labels: doc.Labels, Section: doc.Section}
		g.Rows = len(doc.Cells)
		if doc.GridRows != nil {
			g.Rows = *doc.GridRows
		}
		for _, r := range doc.Cells {
			g.Cols = max(g.Cols, len(r))
		}
		if doc.GridCols != nil {
			g.Cols = *doc.GridCols
		}
		if err := g.check(); err != nil {
			return nil, err
		}
		if len(g.Cells) != g.Rows {
			return nil, apperr.Invalid("chart: cells has %d rows, gridRows is %d", len(g.Cells), g.Rows)
		}
		for r, row := range g.Cells {
			if len(row) != g.Cols {
				return nil, apperr.Invalid("chart: cells row %d has %d cells, gridCols is %d", r, len(row), g.Cols)
			}
		}
		return g, nil
	}
	return FreeformChart{Seats: doc.Seats, Stage: doc.Stage, Labels: doc.Labels, Section: doc.Section}, nil
}
