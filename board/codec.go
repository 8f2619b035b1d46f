package board

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MoverDisk = 'O'
	OtherDisk = 'X'
	EmptyCell = '.'
)

var ErrBadGrid = errors.New("malformed board grid")

// Encode packs a grid of Height rows, top row first, each Width characters
// from ".OX". O is the side to move. Disks must be stacked from the bottom
// with no gaps.
func Encode(rows []string) (Packed, error) {
	if len(rows) != Height {
		return 0, fmt.Errorf("%w: need %d rows, got %d", ErrBadGrid, Height, len(rows))
	}
	for i, row := range rows {
		if len(row) != Width {
			return 0, fmt.Errorf("%w: row %d has %d cells", ErrBadGrid, i+1, len(row))
		}
	}
	var ret uint64
	for c := 0; c < Width; c++ {
		var col uint64
		h := 0
		for ; h < Height; h++ {
			ch := rows[Height-1-h][c]
			if ch == EmptyCell {
				break
			}
			switch ch {
			case MoverDisk:
				col ^= 1 << h
			case OtherDisk:
			default:
				return 0, fmt.Errorf("%w: unexpected character %q", ErrBadGrid, ch)
			}
		}
		for r := h + 1; r < Height; r++ {
			if rows[Height-1-r][c] != EmptyCell {
				return 0, fmt.Errorf("%w: floating disk in column %d", ErrBadGrid, c+1)
			}
		}
		col ^= 1 << h
		ret ^= col << (ColSize * c)
	}
	return Packed(ret), nil
}

// Decode is the inverse of Encode.
func Decode(b Packed) []string {
	grid := make([][]byte, Height)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(string(EmptyCell), Width))
	}
	for c := 0; c < Width; c++ {
		col := b.column(c)
		h := b.ColumnHeight(c)
		for r := 0; r < h; r++ {
			if col&(1<<r) != 0 {
				grid[Height-1-r][c] = MoverDisk
			} else {
				grid[Height-1-r][c] = OtherDisk
			}
		}
	}
	ret := make([]string, Height)
	for r := range grid {
		ret[r] = string(grid[r])
	}
	return ret
}
