package merge

import (
	"github.com/rotisserie/eris"

	"github.com/brgeotools/munimerge/internal/geometry"
)

// SelectNeighbor returns the single merge candidate for an under-threshold
// region. Policy, in order:
//
//  1. Among adjacent regions, the one with the smallest population, ties
//     broken by smallest id. Merging small with small converges faster and
//     lands regions near the threshold instead of far above it.
//  2. When the region has no neighbors (an island, or source topology gaps),
//     the globally nearest region by centroid distance, ties broken by
//     smallest id.
//
// Returns ErrNoCandidate only when r is the sole remaining region.
func SelectNeighbor(r *Region, p *Partition, g *Graph, ops geometry.Ops) (*Region, error) {
	if r == nil {
		return nil, eris.New("merge: select neighbor of nil region")
	}

	var best *Region
	for _, id := range g.Neighbors(r.ID) {
		n := p.Region(id)
		if n == nil || n.ID == r.ID {
			continue
		}
		if best == nil ||
			n.Population < best.Population ||
			(n.Population == best.Population && n.ID < best.ID) {
			best = n
		}
	}
	if best != nil {
		return best, nil
	}

	// Island fallback: nearest centroid over the whole partition.
	bestDist := 0.0
	for _, n := range p.Regions() {
		if n.ID == r.ID {
			continue
		}
		d := ops.PointDistance(r.Centroid, n.Centroid)
		if best == nil || d < bestDist || (d == bestDist && n.ID < best.ID) {
			best = n
			bestDist = d
		}
	}
	if best == nil {
		return nil, eris.Wrapf(ErrNoCandidate, "region %s", r.ID)
	}
	return best, nil
}
