package merge

import (
	"context"
	"runtime"
	"sort"

	"github.com/lvlath/go/core"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brgeotools/munimerge/internal/geometry"
)

// Graph is the adjacency relation between regions, keyed by region id rather
// than object references so superseded regions never leave dangling links.
type Graph struct {
	g *core.Graph
}

// NewGraph returns an empty undirected adjacency graph.
func NewGraph() *Graph {
	// core.NewGraph only errors on invalid options; with none it cannot fail.
	g, _ := core.NewGraph()
	return &Graph{g: g}
}

// Add registers a region id with no neighbors.
func (gr *Graph) Add(id string) error {
	if err := gr.g.AddVertex(id); err != nil {
		return eris.Wrapf(err, "adjacency: add %s", id)
	}
	return nil
}

// Connect records that a and b share a boundary. Idempotent.
func (gr *Graph) Connect(a, b string) error {
	if a == b || gr.g.HasEdge(a, b) {
		return nil
	}
	if _, err := gr.g.AddEdge(a, b, 0); err != nil {
		return eris.Wrapf(err, "adjacency: connect %s-%s", a, b)
	}
	return nil
}

// Neighbors returns the sorted neighbor ids of a region. Unknown ids have no
// neighbors; true islands legitimately return an empty set.
func (gr *Graph) Neighbors(id string) []string {
	ids, err := gr.g.NeighborIDs(id)
	if err != nil {
		return nil
	}
	return ids
}

// Contains reports whether the region id is present.
func (gr *Graph) Contains(id string) bool {
	return gr.g.HasVertex(id)
}

// Len returns the number of regions in the graph.
func (gr *Graph) Len() int {
	return gr.g.VertexCount()
}

// Supersede replaces regions a and b with merged, connected to the given
// neighbor set. Removing the old vertices drops their edges, so every other
// region's neighbor set loses a and b and gains merged in one step.
func (gr *Graph) Supersede(a, b string, merged string, neighbors []string) error {
	if err := gr.g.AddVertex(merged); err != nil {
		return eris.Wrapf(err, "adjacency: add merged %s", merged)
	}
	for _, n := range neighbors {
		if n == a || n == b || n == merged {
			continue
		}
		if !gr.g.HasVertex(n) {
			continue
		}
		if err := gr.Connect(merged, n); err != nil {
			return err
		}
	}
	if err := gr.g.RemoveVertex(a); err != nil {
		return eris.Wrapf(err, "adjacency: remove %s", a)
	}
	if err := gr.g.RemoveVertex(b); err != nil {
		return eris.Wrapf(err, "adjacency: remove %s", b)
	}
	return nil
}

// BuildGraph derives the contiguity graph for the initial units: two units
// are adjacent iff their boundaries meet within the engine's tolerance.
// Candidate pairs are pre-filtered with a bounding-box sweep before the exact
// predicate runs; the pairwise tests are read-only over immutable input
// geometries and fan out across workers (0 = GOMAXPROCS).
func BuildGraph(ctx context.Context, units []*Unit, ops geometry.Ops, workers int) (*Graph, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := zap.L().With(zap.String("component", "merge.adjacency"))

	ordered := make([]*Unit, len(units))
	copy(ordered, units)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	boxes := make([]geometry.Bounds, len(ordered))
	for i, u := range ordered {
		b, err := ops.Bounds(u.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "adjacency: bounds of unit %s", u.ID)
		}
		boxes[i] = b.Expand(ops.Tolerance())
	}

	// Sweep over x-sorted boxes so each unit is only tested against units
	// whose boxes can overlap its own.
	byMinX := make([]int, len(ordered))
	for i := range byMinX {
		byMinX[i] = i
	}
	sort.Slice(byMinX, func(a, b int) bool { return boxes[byMinX[a]].MinX < boxes[byMinX[b]].MinX })

	type pair struct{ a, b int }
	var candidates []pair
	for s, i := range byMinX {
		for _, j := range byMinX[s+1:] {
			if boxes[j].MinX > boxes[i].MaxX {
				break
			}
			if boxes[i].Intersects(boxes[j]) {
				candidates = append(candidates, pair{a: i, b: j})
			}
		}
	}

	adjacent := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			touches, err := ops.BoundaryTouches(ordered[c.a].Geometry, ordered[c.b].Geometry)
			if err != nil {
				return eris.Wrapf(err, "adjacency: test %s-%s", ordered[c.a].ID, ordered[c.b].ID)
			}
			adjacent[k] = touches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := NewGraph()
	for _, u := range ordered {
		if err := graph.Add(u.ID); err != nil {
			return nil, err
		}
	}
	edges := 0
	for k, c := range candidates {
		if !adjacent[k] {
			continue
		}
		if err := graph.Connect(ordered[c.a].ID, ordered[c.b].ID); err != nil {
			return nil, err
		}
		edges++
	}

	log.Info("adjacency graph built",
		zap.Int("units", len(ordered)),
		zap.Int("candidate_pairs", len(candidates)),
		zap.Int("edges", edges),
	)
	return graph, nil
}
