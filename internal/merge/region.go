// Package merge implements the partition-coarsening core: an adjacency graph
// over municipality geometries, a deterministic neighbor-selection policy,
// a region aggregator, and the engine that merges under-threshold regions
// until every region meets the population threshold.
package merge

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brgeotools/munimerge/internal/geometry"
)

// Unit is an atomic input municipality. Units are immutable once created.
type Unit struct {
	ID         string
	Name       string
	State      string
	Population int
	Geometry   geometry.Geometry
}

// Region is the evolving aggregation of one or more units. Regions are
// replaced, never mutated: each merge produces a brand-new Region that
// supersedes its two inputs.
type Region struct {
	// ID is the sorted member ids joined with "+".
	ID string

	// Members lists unit ids in merge-provenance order: the under-threshold
	// region's members come first.
	Members []string

	Population int
	Geometry   geometry.Geometry

	// States holds the sorted set of state codes spanned.
	States []string

	// Name is the representative display name: the most populous member
	// unit, ties broken by smallest id.
	Name string

	Centroid geometry.Point
}

// RegionID derives the canonical region id for a member set.
func RegionID(members []string) string {
	ids := make([]string, len(members))
	copy(ids, members)
	sort.Strings(ids)
	return strings.Join(ids, "+")
}

// Partition maps region id to Region and covers every unit exactly once.
type Partition struct {
	units   map[string]*Unit
	regions map[string]*Region
}

// NewPartition validates every unit geometry and seeds one region per unit.
// A malformed geometry fails the whole construction with ErrInvalidGeometry.
func NewPartition(units []*Unit, ops geometry.Ops) (*Partition, error) {
	p := &Partition{
		units:   make(map[string]*Unit, len(units)),
		regions: make(map[string]*Region, len(units)),
	}

	for _, u := range units {
		if u.ID == "" {
			return nil, eris.New("merge: unit with empty id")
		}
		if _, dup := p.units[u.ID]; dup {
			return nil, eris.Errorf("merge: duplicate unit id %s", u.ID)
		}
		if u.Population < 0 {
			return nil, eris.Errorf("merge: unit %s has negative population", u.ID)
		}

		valid, err := ops.IsValid(u.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "merge: unit %s", u.ID)
		}
		if !valid {
			return nil, eris.Wrapf(ErrInvalidGeometry, "unit %s", u.ID)
		}
		empty, err := ops.IsEmpty(u.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "merge: unit %s", u.ID)
		}
		if empty {
			return nil, eris.Wrapf(ErrInvalidGeometry, "unit %s: empty geometry", u.ID)
		}

		centroid, err := ops.Centroid(u.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "merge: centroid of unit %s", u.ID)
		}

		p.units[u.ID] = u
		p.regions[u.ID] = &Region{
			ID:         u.ID,
			Members:    []string{u.ID},
			Population: u.Population,
			Geometry:   u.Geometry,
			States:     []string{u.State},
			Name:       u.Name,
			Centroid:   centroid,
		}
	}

	if len(p.regions) == 0 {
		return nil, eris.New("merge: empty partition")
	}
	return p, nil
}

// Unit returns the immutable unit for an id, or nil.
func (p *Partition) Unit(id string) *Unit {
	return p.units[id]
}

// Units returns all units sorted by id.
func (p *Partition) Units() []*Unit {
	out := make([]*Unit, 0, len(p.units))
	for _, u := range p.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Region returns the region for an id, or nil when superseded or unknown.
func (p *Partition) Region(id string) *Region {
	return p.regions[id]
}

// Regions returns all current regions sorted by id.
func (p *Partition) Regions() []*Region {
	out := make([]*Region, 0, len(p.regions))
	for _, r := range p.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the current region count.
func (p *Partition) Len() int {
	return len(p.regions)
}

// TotalPopulation sums the population over all current regions.
func (p *Partition) TotalPopulation() int {
	total := 0
	for _, r := range p.regions {
		total += r.Population
	}
	return total
}

// smallestUnder returns the under-threshold region with the smallest
// population, ties broken by smallest id, or nil when every region meets the
// threshold. Scanned fresh on every call: a merge can change which region is
// now the smallest.
func (p *Partition) smallestUnder(threshold int) *Region {
	var best *Region
	for _, r := range p.regions {
		if r.Population >= threshold {
			continue
		}
		if best == nil ||
			r.Population < best.Population ||
			(r.Population == best.Population && r.ID < best.ID) {
			best = r
		}
	}
	return best
}

// replace removes regions a and b and installs merged in their place.
func (p *Partition) replace(a, b string, merged *Region) {
	delete(p.regions, a)
	delete(p.regions, b)
	p.regions[merged.ID] = merged
}

// unionStates returns the sorted union of two state-code sets.
func unionStates(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
