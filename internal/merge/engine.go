package merge

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/geometry"
)

// State is a phase of the merge loop.
type State string

const (
	// StateScanning looks for the next under-threshold region.
	StateScanning State = "scanning"
	// StateMerging applies one merge.
	StateMerging State = "merging"
	// StateConverged is terminal success: every region meets the threshold.
	StateConverged State = "converged"
	// StateExhausted is terminal too: one region remains and it is still
	// under threshold. Reported, not treated as a crash.
	StateExhausted State = "exhausted"
)

// logEvery throttles per-merge progress logging.
const logEvery = 100

// Result summarizes a finished run.
type Result struct {
	State           State `json:"state"`
	Merges          int   `json:"merges"`
	Regions         int   `json:"regions"`
	TotalPopulation int   `json:"total_population"`
}

// Converged reports terminal success.
func (r *Result) Converged() bool {
	return r.State == StateConverged
}

// Engine owns the mutable partition and adjacency graph for the duration of
// one run and drives merges until the threshold postcondition holds.
type Engine struct {
	threshold int
	partition *Partition
	graph     *Graph
	ops       geometry.Ops
	log       *zap.Logger
}

// NewEngine wires a merge engine over a validated partition and its
// contiguity graph.
func NewEngine(p *Partition, g *Graph, ops geometry.Ops, threshold int) (*Engine, error) {
	if threshold <= 0 {
		return nil, eris.Errorf("merge: threshold must be positive, got %d", threshold)
	}
	if p == nil || g == nil {
		return nil, eris.New("merge: nil partition or graph")
	}
	return &Engine{
		threshold: threshold,
		partition: p,
		graph:     g,
		ops:       ops,
		log:       zap.L().With(zap.String("component", "merge.engine")),
	}, nil
}

// Partition exposes the engine's current partition (final after Run).
func (e *Engine) Partition() *Partition {
	return e.partition
}

// Run executes the merge loop to completion. Each iteration picks the
// under-threshold region with the smallest population (fresh scan, ties by
// smallest id), asks the selector for a candidate, aggregates the pair, and
// replaces both in the partition and graph. Every iteration removes exactly
// one region, so the loop is bounded by the initial region count.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	merges := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "merge: run cancelled")
		}

		r := e.partition.smallestUnder(e.threshold)
		if r == nil {
			e.log.Info("converged",
				zap.Int("merges", merges),
				zap.Int("regions", e.partition.Len()),
			)
			return e.result(StateConverged, merges), nil
		}
		if e.partition.Len() == 1 {
			e.log.Warn("exhausted: final region remains under threshold",
				zap.String("region", r.ID),
				zap.Int("population", r.Population),
				zap.Int("threshold", e.threshold),
			)
			return e.result(StateExhausted, merges), nil
		}

		candidate, err := SelectNeighbor(r, e.partition, e.graph, e.ops)
		if err != nil {
			return nil, eris.Wrapf(err, "merge: step %d", merges+1)
		}

		merged, neighbors, err := MergeRegions(r, candidate, e.partition, e.graph, e.ops)
		if err != nil {
			return nil, eris.Wrapf(err, "merge: step %d", merges+1)
		}

		e.partition.replace(r.ID, candidate.ID, merged)
		if err := e.graph.Supersede(r.ID, candidate.ID, merged.ID, neighbors); err != nil {
			return nil, eris.Wrapf(err, "merge: step %d", merges+1)
		}

		merges++
		if merges%logEvery == 0 {
			e.log.Info("merge progress",
				zap.Int("merges", merges),
				zap.Int("regions", e.partition.Len()),
				zap.String("merged", merged.Name),
				zap.Int("population", merged.Population),
			)
		}
	}
}

func (e *Engine) result(state State, merges int) *Result {
	return &Result{
		State:           state,
		Merges:          merges,
		Regions:         e.partition.Len(),
		TotalPopulation: e.partition.TotalPopulation(),
	}
}
