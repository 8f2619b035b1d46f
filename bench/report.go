package bench

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/domino14/connect4/board"
)

const histogramBins = 15

type Mismatch struct {
	Moves    string `yaml:"moves"`
	Line     int    `yaml:"line"`
	Expected int    `yaml:"expected"`
	Got      int    `yaml:"got"`
	Move     string `yaml:"best-move"`
}

// Report summarizes a bench run. Times are per case, in seconds.
type Report struct {
	Solved      int     `yaml:"solved"`
	Weak        bool    `yaml:"weak"`
	Threads     int     `yaml:"threads"`
	WallSec     float64 `yaml:"wall-sec"`
	MeanTimeSec float64 `yaml:"mean-time-sec"`
	StdTimeSec  float64 `yaml:"stddev-time-sec"`
	// TimeCI95Sec is the half-width of the 95% confidence interval of the
	// mean time.
	TimeCI95Sec float64    `yaml:"time-ci95-sec"`
	MaxTimeSec  float64    `yaml:"max-time-sec"`
	MeanNodes   float64    `yaml:"mean-nodes"`
	StdNodes    float64    `yaml:"stddev-nodes"`
	MaxNodes    uint64     `yaml:"max-nodes"`
	NodesPerMs  float64    `yaml:"nodes-per-ms"`
	Mismatches  []Mismatch `yaml:"mismatches,omitempty"`

	times []float64
}

func newReport(results []*Result, weak bool, threads int, wall time.Duration) *Report {
	r := &Report{
		Solved:  len(results),
		Weak:    weak,
		Threads: threads,
		WallSec: wall.Seconds(),
	}
	if len(results) == 0 {
		return r
	}
	r.times = lo.Map(results, func(res *Result, _ int) float64 { return res.Elapsed.Seconds() })
	nodes := lo.Map(results, func(res *Result, _ int) float64 { return float64(res.Nodes) })

	r.MeanTimeSec, r.StdTimeSec = stat.MeanStdDev(r.times, nil)
	r.MeanNodes, r.StdNodes = stat.MeanStdDev(nodes, nil)
	if len(results) < 2 {
		r.StdTimeSec, r.StdNodes = 0, 0
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)
	r.TimeCI95Sec = z * r.StdTimeSec / math.Sqrt(float64(len(results)))
	r.MaxTimeSec = lo.Max(r.times)
	r.MaxNodes = lo.Max(lo.Map(results, func(res *Result, _ int) uint64 { return res.Nodes }))

	if total := lo.Sum(r.times); total > 0 {
		r.NodesPerMs = lo.Sum(nodes) / (total * 1000)
	}

	for _, res := range results {
		if res.Score != res.expected(weak) {
			r.Mismatches = append(r.Mismatches, Mismatch{
				Moves:    res.Case.Moves,
				Line:     res.Case.Line,
				Expected: res.expected(weak),
				Got:      res.Score,
				Move:     board.ColumnString(res.Move),
			})
		}
	}
	return r
}

func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// Histogram plots the distribution of per-case solve times in milliseconds.
func (r *Report) Histogram(w io.Writer) error {
	if len(r.times) == 0 {
		_, err := fmt.Fprintln(w, "no solved cases")
		return err
	}
	ms := lo.Map(r.times, func(t float64, _ int) float64 { return t * 1000 })
	hist := histogram.Hist(histogramBins, ms)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}

func (r *Report) String() string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "# boards: %d (threads: %d, weak: %v)\n", r.Solved, r.Threads, r.Weak)
	fmt.Fprintf(&ss, "Average time spent: %.6f s (+/- %.6f)\n", r.MeanTimeSec, r.TimeCI95Sec)
	fmt.Fprintf(&ss, "Average # positions searched per board: %.1f\n", r.MeanNodes)
	fmt.Fprintf(&ss, "# positions per ms: %.1f\n", r.NodesPerMs)
	fmt.Fprintf(&ss, "Wall time: %.3f s\n", r.WallSec)
	for _, m := range r.Mismatches {
		fmt.Fprintf(&ss, "Wrong score for %s (line %d): expected %d, got %d, best move %s\n",
			m.Moves, m.Line, m.Expected, m.Got, m.Move)
	}
	return ss.String()
}
