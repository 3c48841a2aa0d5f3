// Package optim searches controller parameters by simulating the loop.
package optim

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/san-kum/loopkit/internal/loop"
)

var ErrNoCandidates = errors.New("no candidate could be evaluated")

// Builder returns a fresh runner and run config for one parameter set.
// Runners are not shared between goroutines, so each call must build new
// controller and plant instances.
type Builder func(params map[string]float64) (*loop.Runner, loop.Config, error)

type Candidate struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// GridSearch scores every combination of parameter values and keeps the
// lowest score. With Seeds > 1 each combination is run that many times
// with consecutive seeds and the scores averaged.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	Seeds   int
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, Seeds: 1}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func (g *GridSearch) grid() []map[string]float64 {
	out := []map[string]float64{{}}
	for d, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[d]))
		for _, base := range out {
			for _, v := range g.ranges[d] {
				params := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					params[k] = bv
				}
				params[name] = v
				next = append(next, params)
			}
		}
		out = next
	}
	return out
}

// Search evaluates the grid and returns all candidates sorted best first.
// Candidates whose runs fail or score NaN sort last with Score = +Inf.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) ([]Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, errors.Errorf("%d parameter names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	seeds := g.Seeds
	if seeds < 1 {
		seeds = 1
	}
	workers := g.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	grid := g.grid()
	results := make([]Candidate, len(grid))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = evaluate(ctx, build, grid[idx], metricName, seeds)
			}
		}()
	}

feed:
	for i := range grid {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	if len(results) == 0 || math.IsInf(results[0].Score, 1) {
		if len(results) > 0 && results[0].Err != nil {
			return results, errors.Wrap(ErrNoCandidates, results[0].Err.Error())
		}
		return results, ErrNoCandidates
	}
	return results, nil
}

func evaluate(ctx context.Context, build Builder, params map[string]float64, metricName string, seeds int) Candidate {
	c := Candidate{Params: params, Score: math.Inf(1)}
	total := 0.0
	for s := 0; s < seeds; s++ {
		runner, cfg, err := build(params)
		if err != nil {
			c.Err = err
			return c
		}
		cfg.Seed += int64(s)
		tr, err := runner.Run(ctx, cfg)
		if err != nil {
			c.Err = err
			return c
		}
		v, ok := tr.Metrics[metricName]
		if !ok {
			c.Err = errors.Errorf("metric %q not recorded", metricName)
			return c
		}
		if math.IsNaN(v) {
			return c
		}
		total += v
	}
	c.Score = total / float64(seeds)
	return c
}
