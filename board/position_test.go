package board

import (
	"bytes"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"
)

func seededRNG(seed byte) *frand.RNG {
	return frand.NewCustom(bytes.Repeat([]byte{seed}, 32), 1024, 12)
}

func mustEncode(t *testing.T, rows ...string) Packed {
	t.Helper()
	b, err := Encode(rows)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEmptyPosition(t *testing.T) {
	is := is.New(t)
	p := NewPosition()
	is.Equal(p.MoveCount(), 0)
	is.Equal(p.LegalMoves(), []int{0, 1, 2, 3, 4, 5, 6})
	is.Equal(p.Packed(), EmptyPacked)
	is.Equal(uint64(EmptyPacked), uint64(0x40810204081))
	is.True(!p.IsWinning())
	is.True(!p.IsFull())

	b := mustEncode(t, ".......", ".......", ".......", ".......", ".......", ".......")
	is.Equal(b, EmptyPacked)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	is := is.New(t)
	grids := [][]string{
		{".......", ".......", ".......", ".......", ".......", "OOO...."},
		{".......", ".......", ".......", ".......", "OOO....", "OOO...."},
		{"O......", "O......", "O......", "X......", "X......", "XO....."},
		{"OXOXOXO", "XOXOXOX", "OXOXOXO", "OXOXOXO", "XOXOXOX", "OXOXOXO"},
		{".......", "...X...", "..OO...", "..XX..X", ".OOX.XO", "XXOOXOO"},
	}
	for _, g := range grids {
		b := mustEncode(t, g...)
		is.Equal(Decode(b), g)
	}
}

func TestEncodeKnownValues(t *testing.T) {
	is := is.New(t)
	b := mustEncode(t, ".......", ".......", ".......", ".......", ".......", "OOO....")
	is.Equal(uint64(b), uint64(0x4081020c183))
	b = mustEncode(t, ".......", ".......", ".......", ".......", "OOO....", "OOO....")
	is.Equal(uint64(b), uint64(0x4081021c387))
}

func TestEncodeErrors(t *testing.T) {
	is := is.New(t)
	_, err := Encode([]string{".......", "......."})
	is.True(errors.Is(err, ErrBadGrid))

	_, err = Encode([]string{".......", ".......", ".......", ".......", ".......", "OOO..."})
	is.True(errors.Is(err, ErrBadGrid))

	// floating disk
	_, err = Encode([]string{".......", ".......", ".......", "O......", ".......", "X......"})
	is.True(errors.Is(err, ErrBadGrid))

	_, err = Encode([]string{".......", ".......", ".......", ".......", ".......", "OOZ...."})
	is.True(errors.Is(err, ErrBadGrid))
}

func TestIsWinning(t *testing.T) {
	is := is.New(t)

	vertical := mustEncode(t,
		".......",
		".......",
		"......O",
		"......O",
		"......O",
		"XXX...O")
	horizontal := mustEncode(t,
		".......",
		".......",
		".......",
		".......",
		"XXX....",
		"OOOO...")
	diagonal := mustEncode(t,
		".......",
		".......",
		"...O...",
		"..OX...",
		".OXX...",
		"OXXX...")
	antiDiagonal := mustEncode(t,
		".......",
		".......",
		"...O...",
		"...XO..",
		"...XXO.",
		"...XXXO")
	for _, b := range []Packed{vertical, horizontal, diagonal, antiDiagonal} {
		is.True(b.IsWinning())
		is.True(b.Position().IsWinning())
		is.True(!b.Position().Swap().IsWinning())
	}

	// Three on top of column 1 plus the bottom of column 2 are adjacent bits
	// but not a line.
	wrapped := mustEncode(t,
		"O......",
		"O......",
		"O......",
		"X......",
		"X......",
		"XO.....")
	is.True(!wrapped.IsWinning())
	is.True(!wrapped.Position().IsWinning())
	is.Equal(wrapped.Position().WinningSpots(), uint64(0))
}

func TestWinningSpotsAndEvaluate(t *testing.T) {
	is := is.New(t)
	p := mustEncode(t, ".......", ".......", ".......", ".......", ".......", "OOO....").Position()
	is.Equal(p.WinningSpots(), uint64(1)<<21)
	is.Equal(p.Evaluate(), 1)

	// Two threats stacked in column 4.
	p = mustEncode(t, ".......", ".......", ".......", ".......", "OOO....", "OOO....").Position()
	is.Equal(p.WinningSpots(), uint64(1)<<21|uint64(1)<<22)
	is.Equal(p.Evaluate(), 6)

	// The opponent's threats are not ours.
	is.Equal(p.Swap().WinningSpots(), uint64(0))
}

func TestApplyAndSwap(t *testing.T) {
	is := is.New(t)
	p := NewPosition().Apply(3)
	is.True(p.IsWinning() == false)
	is.Equal(p.MoveCount(), 1)
	is.Equal(Decode(p.Packed())[Height-1], "...O...")
	is.Equal(Decode(p.Swap().Packed())[Height-1], "...X...")

	p = p.Swap().Apply(3)
	is.Equal(Decode(p.Packed())[Height-2], "...O...")
	is.Equal(Decode(p.Packed())[Height-1], "...X...")
	is.Equal(p.Swap().Swap(), p)
}

func TestApplyFullColumnPanics(t *testing.T) {
	p, err := FromMoves("111111")
	assert.NoError(t, err)
	assert.False(t, p.CanPlay(0))
	assert.Panics(t, func() { p.Apply(0) })
	assert.Panics(t, func() { p.Packed().Apply(0) })
	assert.NotContains(t, p.LegalMoves(), 0)
}

func TestPairMatchesPacked(t *testing.T) {
	is := is.New(t)
	rng := seededRNG(42)
	for game := 0; game < 200; game++ {
		p := NewPosition()
		pk := EmptyPacked
		for !p.IsFull() {
			legal := p.LegalMoves()
			col := legal[rng.Intn(len(legal))]
			is.Equal(p.CanPlay(col), pk.CanPlay(col))

			p = p.Apply(col)
			pk = pk.Apply(col)
			is.Equal(p.IsWinning(), pk.IsWinning())
			won := p.IsWinning()

			p = p.Swap()
			pk = pk.Swap()
			is.Equal(p.Key(), pk.Key())
			is.Equal(p.MoveCount(), pk.MoveCount())
			is.Equal(pk.Position(), p)
			if won {
				break
			}
		}
	}
}

func TestFromMoves(t *testing.T) {
	is := is.New(t)
	p, err := FromMoves("4453")
	is.NoErr(err)
	is.Equal(p.MoveCount(), 4)
	is.Equal(Decode(p.Packed()), []string{
		".......",
		".......",
		".......",
		".......",
		"...X...",
		"..XOO..",
	})

	pk, err := PackedFromMoves("4453")
	is.NoErr(err)
	is.Equal(pk, p.Packed())

	// The winning move itself is accepted.
	p, err = FromMoves("1212121")
	is.NoErr(err)
	is.True(p.Swap().IsWinning())

	_, err = FromMoves("12121212")
	is.True(errors.Is(err, ErrGameOver))
	_, err = FromMoves("1111111")
	is.True(errors.Is(err, ErrColumnFull))
	_, err = FromMoves("408")
	is.True(errors.Is(err, ErrInvalidColumn))
	_, err = FromMoves("12a")
	is.True(errors.Is(err, ErrInvalidColumn))
}

func TestPackedFromMovesMatchesPair(t *testing.T) {
	is := is.New(t)
	for _, moves := range []string{
		"4", "44", "4453", "22334", "121212", "1212121",
		"632753722557141527237667124661365",
	} {
		p, err := FromMoves(moves)
		is.NoErr(err)
		pk, err := PackedFromMoves(moves)
		is.NoErr(err)
		is.Equal(pk.Position(), p)
		is.Equal(pk.MoveCount(), len(moves))
	}

	_, err := PackedFromMoves("12121212")
	is.True(errors.Is(err, ErrGameOver))
}

func TestMirror(t *testing.T) {
	is := is.New(t)
	a, err := FromMoves("1123")
	is.NoErr(err)
	b, err := FromMoves("7765")
	is.NoErr(err)
	is.Equal(a.Mirror(), b)
	is.Equal(a.Mirror().Mirror(), a)
	is.Equal(a.Evaluate(), b.Evaluate())
}

func TestString(t *testing.T) {
	is := is.New(t)
	p, err := FromMoves("44")
	is.NoErr(err)
	is.Equal(p.String(), "|.......|\n|.......|\n|.......|\n|.......|\n|...X...|\n|...O...|\n 1234567\n")
	is.Equal(ColumnString(3), "4")
	is.Equal(ColumnString(NoMove), "-")
}
