package solver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
)

/*
Scores are from the point of view of the side to move. A win completed by
the disk that brings the board to n disks is worth (Size-n)/2 + 1 to the
winner, so faster wins score higher and slower losses score higher. A draw
is 0. Scores therefore lie in [MinScore, MaxScore].
*/

const (
	MaxScore = board.Size / 2
	MinScore = -board.Size / 2

	// The context is checked once every ctxPollMask+1 nodes.
	ctxPollMask = 1<<14 - 1
)

// ErrNoTranspositionTable is returned when the table optimization is on
// but the solver has no table. Init sets both.
var ErrNoTranspositionTable = errors.New("transposition table optimization enabled without a table")

// Columns are tried center-first, before heuristic ordering.
var searchOrder = [board.Width]int{3, 4, 2, 5, 1, 6, 0}

// Solution is the result of one solve.
type Solution struct {
	Score int
	// Move is the 0-indexed column, or board.NoMove. A transposition table
	// cutoff at the root or an already-decided position yields no move.
	Move    int
	Nodes   uint64
	Elapsed time.Duration
}

// Solver is an exact alpha-beta solver. A Solver and its table must only be
// used by one goroutine at a time; give each goroutine its own. The zero
// Solver searches without a table; call Init to give it one.
type Solver struct {
	ttable                  *TranspositionTable
	transpositionTableOptim bool
	nodes                   uint64
}

// Init initializes the solver with a transposition table of the given size.
func (s *Solver) Init(tableSize uint64) error {
	tt, err := NewTranspositionTable(tableSize)
	if err != nil {
		return err
	}
	s.ttable = tt
	s.transpositionTableOptim = true
	return nil
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

// ResetCache clears the transposition table. Call it between solves of
// unrelated positions. It is a no-op without a table.
func (s *Solver) ResetCache() {
	if s.ttable == nil {
		return
	}
	s.ttable.Reset()
}

// Solve finds the exact score of pos and a move achieving it.
func (s *Solver) Solve(ctx context.Context, pos board.Position) (Solution, error) {
	return s.run(ctx, pos, MinScore, MaxScore, false)
}

// WeakSolve only determines whether pos is won (1), drawn (0) or lost (-1).
// It searches a null window around 0 and is much cheaper than Solve.
func (s *Solver) WeakSolve(ctx context.Context, pos board.Position) (Solution, error) {
	return s.run(ctx, pos, -1, 1, true)
}

func (s *Solver) run(ctx context.Context, pos board.Position, α, β int, weak bool) (Solution, error) {
	if s.transpositionTableOptim && s.ttable == nil {
		return Solution{}, ErrNoTranspositionTable
	}
	tstart := time.Now()
	s.nodes = 0
	moves := pos.MoveCount()
	sol := Solution{Move: board.NoMove}

	switch {
	case pos.IsWinning():
		sol.Score = winScore(moves)
	case pos.Swap().IsWinning():
		// The opponent's last move connected four.
		sol.Score = -winScore(moves)
	default:
		score, move, err := s.negamax(ctx, pos, α, β, moves)
		if err != nil {
			return Solution{}, err
		}
		sol.Score, sol.Move = score, move
	}
	if weak {
		sol.Score = sign(sol.Score)
	}
	sol.Nodes = s.nodes
	sol.Elapsed = time.Since(tstart)

	evt := log.Debug().
		Bool("weak", weak).
		Int("moves", moves).
		Int("score", sol.Score).
		Str("best-move", board.ColumnString(sol.Move)).
		Uint64("nodes", sol.Nodes).
		Float64("time-elapsed-sec", sol.Elapsed.Seconds())
	if s.transpositionTableOptim {
		st := s.ttable.Stats()
		evt = evt.Uint64("ttable-created", st.Created).
			Uint64("ttable-lookups", st.Lookups).
			Uint64("ttable-hits", st.Hits).
			Uint64("ttable-t2collisions", st.T2Collisions)
	}
	evt.Msg("solve-returning")
	return sol, nil
}

// winScore is the winner's score for a four completed with the board at
// the given disk count.
func winScore(moves int) int {
	return (board.Size-moves)/2 + 1
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// negamax returns a fail-soft score for pos within [α, β] and the move that
// produced it, or board.NoMove when the score came from a bound.
func (s *Solver) negamax(ctx context.Context, pos board.Position, α, β, moves int) (int, int, error) {
	if moves == board.Size {
		return 0, board.NoMove, nil
	}

	key := pos.Key()
	if s.transpositionTableOptim {
		if upper, ok := s.ttable.lookup(key); ok {
			if β > upper {
				β = upper
			}
			if α >= β {
				return β, board.NoMove, nil
			}
		}
	}

	s.nodes++
	if s.nodes&ctxPollMask == 0 {
		if err := ctx.Err(); err != nil {
			return 0, board.NoMove, err
		}
	}

	var next [board.Width]board.Position
	var playable [board.Width]bool
	for col := 0; col < board.Width; col++ {
		if !pos.CanPlay(col) {
			continue
		}
		playable[col] = true
		next[col] = pos.Apply(col)
		if next[col].IsWinning() {
			return winScore(moves + 1), col, nil
		}
	}

	// We can't win on this move, so the best we can hope for is winning
	// with our next one.
	if best := winScore(moves + 3); best <= α {
		return best, board.NoMove, nil
	}

	// Look for columns where the opponent would win if we let them.
	threat := board.NoMove
	opp := pos.Swap()
	for col := 0; col < board.Width; col++ {
		if !playable[col] || !opp.Apply(col).IsWinning() {
			continue
		}
		if threat != board.NoMove {
			// Two threats; we can only block one.
			return -winScore(moves + 2), threat, nil
		}
		threat = col
	}
	if threat != board.NoMove {
		score, _, err := s.negamax(ctx, next[threat].Swap(), -β, -α, moves+1)
		if err != nil {
			return 0, board.NoMove, err
		}
		return -score, threat, nil
	}

	// Insertion sort by heuristic, keeping searchOrder among equals.
	var order, estimates [board.Width]int
	n := 0
	for _, col := range searchOrder {
		if !playable[col] {
			continue
		}
		est := next[col].Evaluate()
		i := n
		for i > 0 && est > estimates[i-1] {
			order[i], estimates[i] = order[i-1], estimates[i-1]
			i--
		}
		order[i], estimates[i] = col, est
		n++
	}

	bestMove := board.NoMove
	for _, col := range order[:n] {
		value, _, err := s.negamax(ctx, next[col].Swap(), -β, -α, moves+1)
		if err != nil {
			return 0, board.NoMove, err
		}
		score := -value
		if score >= β {
			// beta cut-off
			return score, col, nil
		}
		if score > α {
			α = score
			bestMove = col
		}
	}

	if s.transpositionTableOptim {
		s.ttable.store(key, α)
	}
	return α, bestMove, nil
}
