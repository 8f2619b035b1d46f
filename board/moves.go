package board

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidColumn = errors.New("invalid column")
	ErrColumnFull    = errors.New("column is full")
	ErrGameOver      = errors.New("game is already over")
)

// FromMoves replays a move string such as "4453" from the empty board. Each
// character is a 1-indexed column. The last move may connect four; moves
// after that are rejected.
func FromMoves(moves string) (Position, error) {
	return replay(NewPosition(), moves)
}

// PackedFromMoves is FromMoves for the single-word form.
func PackedFromMoves(moves string) (Packed, error) {
	return replay(EmptyPacked, moves)
}

func replay[B Algebra[B]](b B, moves string) (B, error) {
	for i, ch := range moves {
		col := int(ch - '1')
		if col < 0 || col >= Width {
			return b, fmt.Errorf("%w: %q at move %d", ErrInvalidColumn, ch, i+1)
		}
		if b.Swap().IsWinning() {
			return b, fmt.Errorf("%w: move %d", ErrGameOver, i+1)
		}
		if !b.CanPlay(col) {
			return b, fmt.Errorf("%w: column %d at move %d", ErrColumnFull, col+1, i+1)
		}
		b = b.Apply(col).Swap()
	}
	return b, nil
}

// ColumnString renders a 0-indexed column the way move strings do.
func ColumnString(col int) string {
	if col == NoMove {
		return "-"
	}
	return fmt.Sprintf("%d", col+1)
}
