package board

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/samber/lo"
)

/*
The board is packed into the low 49 bits of a uint64, one 7-bit field per
column:

	   6 13 20 27 34 41 48
	  ---------------------
	 | 5 12 19 26 33 40 47 |
	 | 4 11 18 25 32 39 46 |
	 | 3 10 17 24 31 38 45 |
	 | 2  9 16 23 30 37 44 |
	 | 1  8 15 22 29 36 43 |
	 | 0  7 14 21 28 35 42 |
	  ---------------------

A column holding h disks uses bits 0..h-1 for the disks (1 for the side to
move, 0 for the other side) and bit h as a sentinel. So an empty column is
0000001, and a column with our disk under theirs is 0000101.
*/

const (
	Height = 6
	Width  = 7
	// ColSize is the width of a column field: one bit per row plus the
	// sentinel row.
	ColSize = Height + 1
	// Size is the number of cells on the board.
	Size = Height * Width
	// TotalBits is the number of bits a packed board occupies.
	TotalBits = ColSize * Width
	// NoMove is returned wherever a column is expected but none applies.
	NoMove = -1
)

const colMask = uint64(1)<<ColSize - 1

var (
	// topBit[c] is set in a board iff column c is full.
	topBit = perColumn(func(c int) uint64 { return uint64(1) << (ColSize*c + Height) })
	colPos = perColumn(func(c int) uint64 { return colMask << (ColSize * c) })
	// emptyBoard has a single sentinel at the bottom of every column.
	emptyBoard = unionOf(perColumn(func(c int) uint64 { return uint64(1) << (ColSize * c) }))
	// playableMask covers the Height real rows of every column.
	playableMask = unionOf(perColumn(func(c int) uint64 { return (uint64(1)<<Height - 1) << (ColSize * c) }))

	columns = lo.Range(Width)
)

// Masks are built in initializers, not init: EmptyPacked reads emptyBoard.
func perColumn(f func(c int) uint64) [Width]uint64 {
	var out [Width]uint64
	for c := range out {
		out[c] = f(c)
	}
	return out
}

func unionOf(masks [Width]uint64) uint64 {
	var b uint64
	for _, m := range masks {
		b |= m
	}
	return b
}

// Position is the canonical board form. mover holds the disks of the side
// to move and other holds the opponent's disks; both carry the same
// sentinel bits, so mover&other is exactly the set of sentinels and
// mover^other is exactly the set of disks.
type Position struct {
	mover uint64
	other uint64
}

// NewPosition returns the empty board.
func NewPosition() Position {
	return Position{mover: emptyBoard, other: emptyBoard}
}

// CanPlay returns true if column col is not full.
func (p Position) CanPlay(col int) bool {
	return p.mover&topBit[col] == 0
}

// Apply drops a disk for the side to move into col. The perspective does not
// change; call Swap (or use Play) to hand the move to the opponent. Apply
// panics if the column is full.
func (p Position) Apply(col int) Position {
	if !p.CanPlay(col) {
		panic(fmt.Sprintf("board: cannot play into full column %d", col))
	}
	// The sentinel moves up one row; the old sentinel cell becomes our disk.
	top := p.mover & p.other & colPos[col]
	return Position{
		mover: p.mover ^ top<<1,
		other: p.other ^ top<<1 ^ top,
	}
}

// Swap returns the same board seen from the opponent's side.
func (p Position) Swap() Position {
	return Position{mover: p.other, other: p.mover}
}

// Play applies the move and passes the turn.
func (p Position) Play(col int) Position {
	return p.Apply(col).Swap()
}

// IsWinning returns true if the side to move has four in a row.
func (p Position) IsWinning() bool {
	return hasFour(p.mover ^ (p.mover & p.other))
}

// MoveCount is the number of disks on the board.
func (p Position) MoveCount() int {
	return bits.OnesCount64(p.mover ^ p.other)
}

// Key uniquely identifies the position for the side to move.
func (p Position) Key() uint64 {
	return p.mover
}

// Packed returns the single-word form of the position.
func (p Position) Packed() Packed {
	return Packed(p.mover)
}

// LegalMoves returns the columns that are not full, left to right.
func (p Position) LegalMoves() []int {
	return lo.Filter(columns, func(c int, _ int) bool {
		return p.CanPlay(c)
	})
}

// IsFull returns true if no more disks can be dropped.
func (p Position) IsFull() bool {
	return p.MoveCount() == Size
}

// Mirror reflects the board left to right.
func (p Position) Mirror() Position {
	return Position{mover: mirror(p.mover), other: mirror(p.other)}
}

func mirror(b uint64) uint64 {
	var r uint64
	for c := 0; c < Width; c++ {
		field := (b >> (ColSize * c)) & colMask
		r |= field << (ColSize * (Width - 1 - c))
	}
	return r
}

// WinningSpots returns a mask of the empty cells that would complete a four
// for the side to move if it had a disk there. Cells need not be playable
// right now.
func (p Position) WinningSpots() uint64 {
	empty := ^(p.mover ^ p.other)
	b := p.mover ^ (p.mover & p.other)

	// vertical: only ever three below
	r := (b << 1) & (b << 2) & (b << 3)

	for _, s := range [...]uint{ColSize, ColSize + 1, ColSize - 1} {
		t := (b >> s) & (b >> (2 * s))
		r |= t & (b >> (3 * s))
		r |= t & (b << s)
		t = (b << s) & (b << (2 * s))
		r |= t & (b << (3 * s))
		r |= t & (b >> s)
	}
	return r & playableMask & empty
}

// Evaluate is a move-ordering heuristic: the number of winning spots, with a
// heavy bonus for two spots stacked in the same column.
func (p Position) Evaluate() int {
	ws := p.WinningSpots()
	return bits.OnesCount64(ws) + 4*bits.OnesCount64(ws&(ws>>1))
}

// String displays the board with the side to move as O.
func (p Position) String() string {
	var sb strings.Builder
	for _, row := range Decode(p.Packed()) {
		sb.WriteString("|")
		sb.WriteString(row)
		sb.WriteString("|\n")
	}
	sb.WriteString(" ")
	for c := 1; c <= Width; c++ {
		fmt.Fprintf(&sb, "%d", c)
	}
	sb.WriteString("\n")
	return sb.String()
}

// hasFour checks a sentinel-free board for four in a row. The unused top
// row of each column field is always zero here, so lines that wrap from one
// column into the next are broken by it.
func hasFour(b uint64) bool {
	for _, s := range [...]uint{1, ColSize, ColSize - 1, ColSize + 1} {
		t := b & (b >> s)
		if t&(t>>(2*s)) != 0 {
			return true
		}
	}
	return false
}
