package board

import (
	"fmt"
	"math/bits"
)

// Algebra is the set of operations the board forms share. Position and
// Packed both satisfy it and produce identical keys for identical move
// sequences.
type Algebra[B any] interface {
	CanPlay(col int) bool
	Apply(col int) B
	Swap() B
	IsWinning() bool
	MoveCount() int
	Key() uint64
}

var (
	_ Algebra[Position] = Position{}
	_ Algebra[Packed]   = Packed(0)
)

// Packed is the single-word board form: only the side to move's disks plus
// sentinels. The opponent's disks are implied, so every perspective change
// recomputes the whole word. Position is faster; Packed is what the codec
// reads and writes.
type Packed uint64

// EmptyPacked is the empty board.
var EmptyPacked = Packed(emptyBoard)

func (b Packed) column(col int) uint64 {
	return (uint64(b) >> (ColSize * col)) & colMask
}

// ColumnHeight returns the number of disks in col.
func (b Packed) ColumnHeight(col int) int {
	return bits.Len64(b.column(col)) - 1
}

func (b Packed) CanPlay(col int) bool {
	return b.ColumnHeight(col) != Height
}

// Apply drops a disk for the side to move into col, without passing the
// turn. It panics if the column is full.
func (b Packed) Apply(col int) Packed {
	h := b.ColumnHeight(col)
	if h == Height {
		panic(fmt.Sprintf("board: cannot play into full column %d", col))
	}
	return b ^ Packed(uint64(1)<<(ColSize*col+h+1))
}

// Swap flips the perspective: every disk below a sentinel changes owner.
func (b Packed) Swap() Packed {
	var r uint64
	for c := 0; c < Width; c++ {
		col := b.column(c)
		h := bits.Len64(col) - 1
		low := uint64(1)<<h - 1
		r |= ((^col & low) | uint64(1)<<h) << (ColSize * c)
	}
	return Packed(r)
}

func (b Packed) stripSentinels() uint64 {
	r := uint64(b)
	for c := 0; c < Width; c++ {
		r ^= uint64(1) << (ColSize*c + b.ColumnHeight(c))
	}
	return r
}

func (b Packed) IsWinning() bool {
	return hasFour(b.stripSentinels())
}

func (b Packed) MoveCount() int {
	n := 0
	for c := 0; c < Width; c++ {
		n += b.ColumnHeight(c)
	}
	return n
}

func (b Packed) Key() uint64 {
	return uint64(b)
}

// Position converts to the pair form.
func (b Packed) Position() Position {
	return Position{mover: uint64(b), other: uint64(b.Swap())}
}
