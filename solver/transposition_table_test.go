package solver

import (
	"errors"
	"math/big"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/connect4/board"
)

func TestTableKeyBits(t *testing.T) {
	is := is.New(t)
	tt, err := NewTranspositionTable(DefaultTableSize)
	is.NoErr(err)
	is.Equal(tt.KeyBits(), 26)
	is.Equal(tt.Size(), uint64(DefaultTableSize))

	tt, err = NewTranspositionTable(MinTableSize)
	is.NoErr(err)
	is.Equal(tt.KeyBits(), 33)
}

func TestBadTableSizes(t *testing.T) {
	_, err := NewTranspositionTable(1 << 20)
	assert.True(t, errors.Is(err, ErrBadTableSize))
	_, err = NewTranspositionTable(1<<43 + 1)
	assert.True(t, errors.Is(err, ErrBadTableSize))
}

func TestStoreAndLookup(t *testing.T) {
	is := is.New(t)
	tt, err := NewTranspositionTable(MinTableSize)
	is.NoErr(err)

	p, err := board.FromMoves("4453")
	is.NoErr(err)
	key := p.Key()

	_, ok := tt.lookup(key)
	is.True(!ok)

	for _, score := range []int{MinScore, -3, 0, 7, MaxScore} {
		tt.store(key, score)
		got, ok := tt.lookup(key)
		is.True(ok)
		is.Equal(got, score)
	}
	st := tt.Stats()
	is.Equal(st.Created, uint64(5))
	is.Equal(st.Lookups, uint64(6))
	is.Equal(st.Hits, uint64(5))
	is.Equal(st.T2Collisions, uint64(0))

	tt.Reset()
	_, ok = tt.lookup(key)
	is.True(!ok)
	is.Equal(tt.Stats(), TableStats{Lookups: 1})
}

func TestBucketCollision(t *testing.T) {
	is := is.New(t)
	tt, err := NewTranspositionTable(MinTableSize)
	is.NoErr(err)

	k1 := board.NewPosition().Key()
	// Same bucket, different stored key.
	k2 := k1 + MinTableSize
	// Same stored key, different bucket.
	k3 := k1 + uint64(1)<<tt.KeyBits()

	tt.store(k1, 4)
	_, ok := tt.lookup(k2)
	is.True(!ok)
	is.Equal(tt.Stats().T2Collisions, uint64(1))
	_, ok = tt.lookup(k3)
	is.True(!ok)

	// Overwrites are unconditional.
	tt.store(k2, -2)
	_, ok = tt.lookup(k1)
	is.True(!ok)
	got, ok := tt.lookup(k2)
	is.True(ok)
	is.Equal(got, -2)
}

func TestTableSizeForMemory(t *testing.T) {
	is := is.New(t)
	is.Equal(TableSizeForMemory(0), uint64(MinTableSize))

	n := TableSizeForMemory(0.001)
	is.True(n >= MinTableSize)
	is.True(n%2 == 1)
	if n > MinTableSize {
		is.True(new(big.Int).SetUint64(n).ProbablyPrime(20))
	}
	_, err := NewTranspositionTable(n)
	is.NoErr(err)
}
