package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/connect4/bench"
	"github.com/domino14/connect4/board"
	"github.com/domino14/connect4/cache"
	"github.com/domino14/connect4/config"
	"github.com/domino14/connect4/solver"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) setMoves(moves string) error {
	pos, err := board.FromMoves(moves)
	if err != nil {
		return err
	}
	sc.moves = moves
	sc.pos = pos
	return nil
}

func (sc *ShellController) display() string {
	var ss strings.Builder
	ss.WriteString(sc.pos.String())
	fmt.Fprintf(&ss, "moves: %q (%d)\n", sc.moves, sc.pos.MoveCount())
	switch {
	case sc.pos.Swap().IsWinning():
		ss.WriteString("X connected four; game over\n")
	case sc.pos.IsFull():
		ss.WriteString("board is full; draw\n")
	default:
		ss.WriteString("O to move\n")
	}
	return ss.String()
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if err := sc.setMoves(""); err != nil {
		return nil, err
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <moves>, e.g. play 4453")
	}
	if err := sc.setMoves(sc.moves + strings.Join(cmd.args, "")); err != nil {
		return nil, err
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	if n < 0 || n > len(sc.moves) {
		return nil, fmt.Errorf("can't undo %d moves; only %d played", n, len(sc.moves))
	}
	if err := sc.setMoves(sc.moves[:len(sc.moves)-n]); err != nil {
		return nil, err
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.display()), nil
}

func (sc *ShellController) reset(cmd *shellcmd) (*Response, error) {
	sc.solver.ResetCache()
	return msg("transposition table cleared"), nil
}

// describeScore explains a score for the side to move in plain terms.
func describeScore(score, moves int, weak bool) string {
	if weak {
		switch score {
		case 1:
			return "win"
		case -1:
			return "loss"
		}
		return "draw"
	}
	switch {
	case score > 0:
		// The four is completed by the disk that brings the board to n disks.
		n := board.Size - 2*(score-1)
		if (n-moves)%2 == 0 {
			n--
		}
		return fmt.Sprintf("win with disk %d", n)
	case score < 0:
		n := board.Size - 2*(-score-1)
		if (n-moves)%2 == 1 {
			n--
		}
		return fmt.Sprintf("loss to disk %d", n)
	}
	return "draw"
}

func (sc *ShellController) solve(ctx context.Context, cmd *shellcmd, weak bool) (*Response, error) {
	var sol solver.Solution
	var err error
	if weak {
		sol, err = sc.solver.WeakSolve(ctx, sc.pos)
	} else {
		sol, err = sc.solver.Solve(ctx, sc.pos)
	}
	if err != nil {
		return nil, err
	}
	st := sc.solver.TranspositionTable().Stats()
	return msg(fmt.Sprintf("score: %d (%s)\nbest move: %s\nnodes: %d\ntime: %s\nttable hits: %d/%d",
		sol.Score, describeScore(sol.Score, sc.pos.MoveCount(), weak),
		board.ColumnString(sol.Move), sol.Nodes, sol.Elapsed, st.Hits, st.Lookups)), nil
}

// random plays n random moves, never one that connects four.
func (sc *ShellController) random(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: random <n>")
	}
	n, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if sc.pos.Swap().IsWinning() {
		return nil, board.ErrGameOver
	}
	pos := sc.pos
	var played strings.Builder
	for i := 0; i < n; i++ {
		var quiet []int
		for _, col := range pos.LegalMoves() {
			if !pos.Apply(col).IsWinning() {
				quiet = append(quiet, col)
			}
		}
		if len(quiet) == 0 {
			break
		}
		col := quiet[frand.Intn(len(quiet))]
		played.WriteString(board.ColumnString(col))
		pos = pos.Play(col)
	}
	if err := sc.setMoves(sc.moves + played.String()); err != nil {
		return nil, err
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) bench(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: bench <file> [-weak] [-threads n] [-shard i/n] [-report path] [-stop] [-hist]")
	}
	path := cmd.args[0]
	cases, err := cache.Load(path, bench.LoadCases)
	if err != nil {
		return nil, err
	}
	if shard := cmd.options.String("shard"); shard != "" {
		i, n, err := bench.ParseShard(shard)
		if err != nil {
			return nil, err
		}
		cases, err = bench.Shard(cases, i, n)
		if err != nil {
			return nil, err
		}
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigThreads))
	if err != nil {
		return nil, err
	}
	r := bench.Runner{
		Threads:        threads,
		Weak:           cmd.options.Bool("weak"),
		StopOnMismatch: cmd.options.Bool("stop"),
		TableSize:      tableSize(sc.config, threads),
	}
	report, runErr := r.Run(ctx, cases)
	if report == nil {
		return nil, runErr
	}

	var ss strings.Builder
	ss.WriteString(report.String())
	if cmd.options.Bool("hist") {
		if err := report.Histogram(&ss); err != nil {
			return nil, err
		}
	}
	if out := cmd.options.String("report"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := report.WriteYAML(f); err != nil {
			return nil, err
		}
		log.Info().Str("path", out).Msg("wrote-bench-report")
	}
	if runErr != nil {
		fmt.Fprintf(&ss, "stopped: %v", runErr)
	}
	return msg(ss.String()), nil
}
