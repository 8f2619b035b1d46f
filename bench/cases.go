package bench

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/samber/lo"

	"github.com/domino14/connect4/board"
)

var (
	ErrBadCase  = errors.New("bad test case")
	ErrBadShard = errors.New("bad shard")
)

// A Case is one line of a test suite: a move string and the expected score
// of the resulting position for the side to move.
type Case struct {
	Moves string `yaml:"moves"`
	Score int    `yaml:"score"`
	Line  int    `yaml:"line"`
}

// ParseCases reads lines of the form "moves score". Blank lines and lines
// starting with # are skipped.
func ParseCases(r io.Reader) ([]Case, error) {
	var cases []Case
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 fields, got %d", ErrBadCase, lineNo, len(fields))
		}
		if _, err := board.FromMoves(fields[0]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadCase, lineNo, err)
		}
		score, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadCase, lineNo, err)
		}
		cases = append(cases, Case{Moves: fields[0], Score: score, Line: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// LoadCases parses the suite at path.
func LoadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cases, err := ParseCases(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Shard returns the cases whose move string hashes to index out of count,
// so that count machines can split a suite without coordinating.
func Shard(cases []Case, index, count int) ([]Case, error) {
	if count < 1 || index < 0 || index >= count {
		return nil, fmt.Errorf("%w: %d/%d", ErrBadShard, index, count)
	}
	return lo.Filter(cases, func(c Case, _ int) bool {
		return xxhash.Sum64String(c.Moves)%uint64(count) == uint64(index)
	}), nil
}

// ParseShard parses "i/n".
func ParseShard(s string) (int, int, error) {
	idx, cnt, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadShard, s)
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadShard, s)
	}
	n, err := strconv.Atoi(cnt)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadShard, s)
	}
	if n < 1 || i < 0 || i >= n {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadShard, s)
	}
	return i, n, nil
}
