package seatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
	"github.com/iliyamo/theater-seat-ticketing/internal/model"
)

const (
	E = CellEmpty
	S = CellSeat
	H = CellHandicap
	A = CellAisle
	W = CellWall
	T = CellStage
)

func rowsOf(ds []Descriptor) map[string][]uint32 {
	out := map[string][]uint32{}
	for _, d := range ds {
		out[d.Row] = append(out[d.Row], d.Number)
	}
	return out
}

func TestRowLabel(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for i, want := range cases {
		assert.Equal(t, want, RowLabel(LabelLetters, i), "index %d", i)
		idx, ok := RowIndex(want)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, "1", RowLabel(LabelNumbers, 0))
	assert.Equal(t, "12", RowLabel(LabelNumbers, 11))
	assert.Equal(t, "", RowLabel(LabelLetters, -1))

	_, ok := RowIndex("A1")
	assert.False(t, ok)
}

func TestNormalizeGrid_DefaultStageAtBottom(t *testing.T) {
	g := GridChart{
		Rows: 3, Cols: 4,
		Cells: [][]CellKind{
			{S, S, A, S},
			{W, A, A, W},
			{S, E, H, S},
		},
	}
	ds, err := Normalize(g)
	require.NoError(t, err)
	require.Len(t, ds, 6)

	// storage row 2 is nearest the stage; row 1 has no seats and is skipped
	assert.Equal(t, "A", ds[0].Row)
	assert.Equal(t, "2", ds[0].RowKey)
	assert.Equal(t, map[string][]uint32{"A": {1, 2, 3}, "B": {1, 2, 3}}, rowsOf(ds))
	assert.Equal(t, model.CategoryHandicap, ds[1].Category)
	assert.Equal(t, float64(2), ds[1].X, "numbering skips the gap")
	assert.Equal(t, "0", ds[3].RowKey)
}

func TestNormalizeGrid_StageCellsDecideOrientation(t *testing.T) {
	g := GridChart{
		Rows: 4, Cols: 2,
		Labels: LabelNumbers,
		Cells: [][]CellKind{
			{T, T},
			{S, S},
			{E, E},
			{S, E},
		},
	}
	ds, err := Normalize(g)
	require.NoError(t, err)
	require.Len(t, ds, 3)
	assert.Equal(t, "1", ds[0].Row)
	assert.Equal(t, "1", ds[0].RowKey)
	assert.Equal(t, "2", ds[2].Row)
	assert.Equal(t, "3", ds[2].RowKey)
}

func TestNormalizeGrid_LabelIndependentOfStorageOrder(t *testing.T) {
	topDown := GridChart{Rows: 3, Cols: 2, Stage: StageTop, Cells: [][]CellKind{{S, S}, {S, E}, {H, S}}}
	bottomUp := GridChart{Rows: 3, Cols: 2, Stage: StageBottom, Cells: [][]CellKind{{H, S}, {S, E}, {S, S}}}

	a, err := Normalize(topDown)
	require.NoError(t, err)
	b, err := Normalize(bottomUp)
	require.NoError(t, err)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Row, b[i].Row)
		assert.Equal(t, a[i].Number, b[i].Number)
		assert.Equal(t, a[i].Category, b[i].Category)
	}

	again, err := Normalize(topDown)
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestNormalizeGrid_RowLabelsAreABijection(t *testing.T) {
	const n = 30
	cells := make([][]CellKind, n)
	for i := range cells {
		cells[i] = []CellKind{S}
		if i%3 == 1 {
			cells[i] = []CellKind{A}
		}
	}
	ds, err := Normalize(GridChart{Rows: n, Cols: 1, Stage: StageTop, Cells: cells})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i, d := range ds {
		assert.Equal(t, RowLabel(LabelLetters, i), d.Row)
		assert.False(t, seen[d.Row])
		seen[d.Row] = true
	}
	assert.Len(t, seen, 20)
	assert.Equal(t, "A", ds[0].Row)
	assert.Equal(t, "0", ds[0].RowKey)
}

func TestNormalize_Degenerate(t *testing.T) {
	for name, c := range map[string]Chart{
		"zero rows":    GridChart{Rows: 0, Cols: 5},
		"zero cols":    GridChart{Rows: 5, Cols: 0},
		"no seats":     GridChart{Rows: 2, Cols: 2, Cells: [][]CellKind{{A, W}, {E, T}}},
		"empty free":   FreeformChart{},
		"nil chart":    nil,
		"short matrix": GridChart{Rows: 3, Cols: 3},
	} {
		t.Run(name, func(t *testing.T) {
			ds, err := Normalize(c)
			require.NoError(t, err)
			assert.NotNil(t, ds)
			assert.Empty(t, ds)
		})
	}
}

func TestNormalizeGrid_RejectsCellsOutsideDimensions(t *testing.T) {
	for name, g := range map[string]GridChart{
		"extra row":    {Rows: 1, Cols: 2, Cells: [][]CellKind{{S, S}, {S, S}}},
		"extra column": {Rows: 2, Cols: 1, Cells: [][]CellKind{{S}, {S, S}}},
		"too many":     {Rows: maxGridDim + 1, Cols: 1},
		"negative":     {Rows: 2, Cols: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(g)
			assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
		})
	}
}

func TestNormalizeFreeform(t *testing.T) {
	f := FreeformChart{
		Section: "Balcony",
		Seats: []FreeformSeat{
			{X: 30, Y: 20, Row: "back"},
			{X: 10, Y: 22, Row: "back"},
			{X: 50, Y: 90, Row: "front", Number: 7},
			{X: 20, Y: 88, Row: "front"},
			{X: 40, Y: 89, Row: "front", Category: model.CategoryHandicap},
		},
	}
	ds, err := Normalize(f)
	require.NoError(t, err)
	require.Len(t, ds, 5)

	assert.Equal(t, map[string][]uint32{"A": {1, 2, 7}, "B": {1, 2}}, rowsOf(ds))
	assert.Equal(t, "front", ds[0].RowKey)
	assert.Equal(t, float64(20), ds[0].X)
	assert.Equal(t, model.CategoryHandicap, ds[1].Category)
	assert.Equal(t, float64(10), ds[3].X)
	assert.Equal(t, "Balcony", ds[4].Section)

	f.Stage = StageTop
	ds, err = Normalize(f)
	require.NoError(t, err)
	assert.Equal(t, "back", ds[0].RowKey)
	assert.Equal(t, "A", ds[0].Row)
}

func TestNormalizeFreeform_Invalid(t *testing.T) {
	cases := map[string][]FreeformSeat{
		"duplicate number": {{X: 1, Y: 1, Row: "r", Number: 2}, {X: 2, Y: 1, Row: "r", Number: 2}},
		"missing row":      {{X: 1, Y: 1}},
		"out of range":     {{X: 101, Y: 1, Row: "r"}},
		"bad category":     {{X: 1, Y: 1, Row: "r", Category: "vip"}},
	}
	for name, seats := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(FreeformChart{Seats: seats})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
		})
	}
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(`{"gridRows":2,"gridCols":3,"cells":[["seat","aisle","handicap"],["","seat","stage"]]}`))
	require.NoError(t, err)
	g, ok := c.(GridChart)
	require.True(t, ok)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, []CellKind{E, S, T}, g.Cells[1])

	c, err = Decode([]byte(`{"seats":[{"x":1,"y":2,"row":"a","number":3,"category":"handicap"}],"stage":"top"}`))
	require.NoError(t, err)
	f, ok := c.(FreeformChart)
	require.True(t, ok)
	assert.Equal(t, StageTop, f.Stage)
	assert.Equal(t, uint32(3), f.Seats[0].Number)

	// dimensions default to the shape of cells
	c, err = Decode([]byte(`{"cells":[["seat","seat"],["seat","handicap"]]}`))
	require.NoError(t, err)
	g = c.(GridChart)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, 2, g.Cols)
	ds, err := Normalize(c)
	require.NoError(t, err)
	assert.Len(t, ds, 4)

	for _, bad := range []string{
		`{"gridRows":1,"gridCols":1,"cells":[["seat"]],"seats":[]}`,
		`{"gridRows":1,"gridCols":1,"cells":[["balcony"]]}`,
		`{"gridRows":1,"gridCols":1,"cells":[["seat","seat"],["seat","seat"]]}`,
		`{"gridRows":2,"gridCols":2,"cells":[["seat"],["seat","seat"]]}`,
		`{"gridRows":3,"gridCols":2,"cells":[["seat","seat"]]}`,
		`{"gridRows":2,"gridCols":2}`,
		`{"gridRows":20000,"gridCols":20000,"cells":[]}`,
		`{"gridRows":-1,"gridCols":2,"cells":[]}`,
		`{"stage":"left"}`,
		`not json`,
	} {
		_, err := Decode([]byte(bad))
		assert.ErrorIs(t, err, apperr.ErrInvalidRequest, bad)
	}
}
