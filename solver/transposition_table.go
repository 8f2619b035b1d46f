package solver

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
)

// A board b lives in bucket b % size, packed as
//
//	<low keyBits bits of b><score + scoreBias>
//
// The bucket index gives b modulo an odd size, and the stored key gives b
// modulo 2^keyBits. These moduli are coprime, so by the CRT the pair pins
// down b uniquely as long as size * 2^keyBits > 2^49. keyBits is picked to
// guarantee that for whatever size is requested.
//
// The key always covers column 1's field, which contains a sentinel, so a
// real entry is never 0. 0 means empty.

const (
	// DefaultTableSize is prime and implies 26 key bits.
	DefaultTableSize = 8388617
	// MinTableSize is the smallest size TableSizeForMemory will return.
	MinTableSize = 65537

	resultBits = 6
	resultMask = 1<<resultBits - 1
	scoreBias  = board.Size / 2

	// Every key must include the full first column.
	maxSizeLog2 = board.TotalBits - board.ColSize
	entrySize   = 8
)

var ErrBadTableSize = errors.New("bad transposition table size")

type TranspositionTable struct {
	table   []uint64
	size    uint64
	keyBits int
	keyMask uint64

	lookups      uint64
	hits         uint64
	created      uint64
	t2collisions uint64
}

// TableStats are the counters accumulated since the last Reset.
type TableStats struct {
	Lookups uint64
	Hits    uint64
	Created uint64
	// T2Collisions counts lookups that found another position's entry in
	// the bucket.
	T2Collisions uint64
}

// NewTranspositionTable allocates a table with size buckets. size must be odd.
func NewTranspositionTable(size uint64) (*TranspositionTable, error) {
	if size%2 == 0 {
		return nil, fmt.Errorf("%w: %d is even", ErrBadTableSize, size)
	}
	sizeLog2 := bits.Len64(size) - 1
	if sizeLog2 > maxSizeLog2 {
		return nil, fmt.Errorf("%w: %d is too large", ErrBadTableSize, size)
	}
	keyBits := board.TotalBits - sizeLog2
	t := &TranspositionTable{
		table:   make([]uint64, size),
		size:    size,
		keyBits: keyBits,
		keyMask: uint64(1)<<keyBits - 1,
	}
	log.Debug().Uint64("num-elems", size).
		Int("key-bits", keyBits).
		Uint64("estimated-total-memory-bytes", size*entrySize).
		Msg("transposition-table-size")
	return t, nil
}

// TableSizeForMemory returns the largest prime table size that uses no more
// than the given fraction of system memory, but at least MinTableSize.
func TableSizeForMemory(fractionOfMemory float64) uint64 {
	totalMem := memory.TotalMemory()
	desired := uint64(fractionOfMemory * float64(totalMem) / entrySize)
	if limit := uint64(1)<<(maxSizeLog2+1) - 1; desired > limit {
		desired = limit
	}
	if desired <= MinTableSize {
		return MinTableSize
	}
	n := desired | 1
	for ; n > MinTableSize; n -= 2 {
		if new(big.Int).SetUint64(n).ProbablyPrime(20) {
			break
		}
	}
	log.Debug().Uint64("total-system-memory-bytes", totalMem).
		Float64("fraction", fractionOfMemory).
		Uint64("num-elems", n).
		Msg("sized-transposition-table")
	return n
}

// lookup returns the stored upper bound for key, if there is one.
func (t *TranspositionTable) lookup(key uint64) (int, bool) {
	t.lookups++
	entry := t.table[key%t.size]
	if entry>>resultBits != key&t.keyMask {
		if entry != 0 {
			// There is another unrelated position in this bucket.
			t.t2collisions++
		}
		return 0, false
	}
	t.hits++
	return int(entry&resultMask) - scoreBias, true
}

// store always overwrites whatever is in the bucket.
func (t *TranspositionTable) store(key uint64, upperBound int) {
	t.table[key%t.size] = (key&t.keyMask)<<resultBits | uint64(upperBound+scoreBias)
	t.created++
}

// Reset empties the table. Nothing resets it implicitly.
func (t *TranspositionTable) Reset() {
	clear(t.table)
	t.lookups = 0
	t.hits = 0
	t.created = 0
	t.t2collisions = 0
}

func (t *TranspositionTable) Size() uint64 {
	return t.size
}

func (t *TranspositionTable) KeyBits() int {
	return t.keyBits
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Lookups:      t.lookups,
		Hits:         t.hits,
		Created:      t.created,
		T2Collisions: t.t2collisions,
	}
}
