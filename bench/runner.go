package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/solver"
)

var ErrMismatch = errors.New("score mismatch")

// Runner solves a suite of cases in parallel. Each worker owns a Solver and
// its transposition table, and clears the table after every case so that
// per-case timings don't depend on scheduling.
type Runner struct {
	Threads        int
	Weak           bool
	StopOnMismatch bool
	// TableSize is the number of buckets per worker. 0 means
	// solver.DefaultTableSize.
	TableSize uint64
}

type Result struct {
	Case    Case
	Score   int
	Move    int
	Nodes   uint64
	Elapsed time.Duration
}

func (r Result) expected(weak bool) int {
	if weak {
		return sign(r.Case.Score)
	}
	return r.Case.Score
}

type job struct {
	idx int
	c   Case
}

// Run solves every case. When StopOnMismatch is set, the first wrong score
// cancels the run and the returned error wraps ErrMismatch; the report still
// covers what finished.
func (r Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	threads := max(r.Threads, 1)
	tableSize := r.TableSize
	if tableSize == 0 {
		tableSize = solver.DefaultTableSize
	}

	solvers := make([]*solver.Solver, threads)
	for t := range solvers {
		solvers[t] = new(solver.Solver)
		if err := solvers[t].Init(tableSize); err != nil {
			return nil, err
		}
	}

	log.Info().Int("cases", len(cases)).Int("threads", threads).
		Bool("weak", r.Weak).Uint64("tt-size", tableSize).Msg("bench-starting")

	tstart := time.Now()
	results := make([]*Result, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	jobChan := make(chan job, threads)

	g.Go(func() error {
		defer close(jobChan)
		for i, c := range cases {
			select {
			case jobChan <- job{idx: i, c: c}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for t := 0; t < threads; t++ {
		s := solvers[t]
		g.Go(func() error {
			for j := range jobChan {
				res, err := r.solveOne(gctx, s, j.c)
				if err != nil {
					return err
				}
				results[j.idx] = res
				if r.StopOnMismatch && res.Score != res.expected(r.Weak) {
					return fmt.Errorf("%w: line %d (%s): expected %d, got %d",
						ErrMismatch, j.c.Line, j.c.Moves, res.expected(r.Weak), res.Score)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	report := newReport(lo.Compact(results), r.Weak, threads, time.Since(tstart))
	log.Info().Int("solved", report.Solved).Int("mismatches", len(report.Mismatches)).
		Float64("wall-sec", report.WallSec).Msg("bench-finished")
	return report, err
}

func (r Runner) solveOne(ctx context.Context, s *solver.Solver, c Case) (*Result, error) {
	defer s.ResetCache()
	pos, err := board.FromMoves(c.Moves)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrBadCase, c.Line, err)
	}
	var sol solver.Solution
	if r.Weak {
		sol, err = s.WeakSolve(ctx, pos)
	} else {
		sol, err = s.Solve(ctx, pos)
	}
	if err != nil {
		return nil, err
	}
	res := &Result{Case: c, Score: sol.Score, Move: sol.Move, Nodes: sol.Nodes, Elapsed: sol.Elapsed}
	if res.Score != res.expected(r.Weak) {
		log.Warn().Str("moves", c.Moves).Int("line", c.Line).
			Int("expected", res.expected(r.Weak)).Int("got", res.Score).
			Str("best-move", board.ColumnString(res.Move)).Msg("score-mismatch")
	}
	return res, nil
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
