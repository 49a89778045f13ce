package merge

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/brgeotools/munimerge/internal/geometry"
)

// MergeRegions aggregates regions a and b into a brand-new region: member
// lists concatenated (a first, preserving merge provenance), populations
// summed, geometries unioned and repaired, state sets unioned, and the
// representative name recomputed from the combined membership. It also
// returns the merged region's neighbor set: the union of both inputs'
// neighbors minus the inputs themselves.
//
// The partition and graph are not modified; the caller installs the result.
// Fails with ErrGeometryUnion when the unioned geometry is empty or invalid
// after repair; that signals a data-integrity problem in the input and is
// never swallowed.
func MergeRegions(a, b *Region, p *Partition, g *Graph, ops geometry.Ops) (*Region, []string, error) {
	if a == nil || b == nil {
		return nil, nil, eris.New("merge: nil region")
	}
	if a.ID == b.ID {
		return nil, nil, eris.Errorf("merge: region %s cannot merge with itself", a.ID)
	}

	members := make([]string, 0, len(a.Members)+len(b.Members))
	members = append(members, a.Members...)
	members = append(members, b.Members...)

	union, err := ops.Union(a.Geometry, b.Geometry)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrGeometryUnion, "%s + %s: %v", a.ID, b.ID, err)
	}
	union, err = ops.Repair(union)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrGeometryUnion, "%s + %s: %v", a.ID, b.ID, err)
	}
	empty, err := ops.IsEmpty(union)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "merge: %s + %s", a.ID, b.ID)
	}
	valid, err := ops.IsValid(union)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "merge: %s + %s", a.ID, b.ID)
	}
	if empty || !valid {
		return nil, nil, eris.Wrapf(ErrGeometryUnion, "%s + %s", a.ID, b.ID)
	}

	centroid, err := ops.Centroid(union)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "merge: centroid of %s + %s", a.ID, b.ID)
	}

	merged := &Region{
		ID:         RegionID(members),
		Members:    members,
		Population: a.Population + b.Population,
		Geometry:   union,
		States:     unionStates(a.States, b.States),
		Name:       representativeName(members, p),
		Centroid:   centroid,
	}

	neighbors := neighborUnion(a.ID, b.ID, g)
	return merged, neighbors, nil
}

// representativeName picks the display name of the most populous member
// unit, ties broken by smallest unit id.
func representativeName(members []string, p *Partition) string {
	var seat *Unit
	for _, id := range members {
		u := p.Unit(id)
		if u == nil {
			continue
		}
		if seat == nil ||
			u.Population > seat.Population ||
			(u.Population == seat.Population && u.ID < seat.ID) {
			seat = u
		}
	}
	if seat == nil {
		return ""
	}
	return seat.Name
}

// neighborUnion returns the sorted union of both regions' neighbor sets,
// excluding the regions themselves.
func neighborUnion(a, b string, g *Graph) []string {
	seen := make(map[string]struct{})
	for _, id := range g.Neighbors(a) {
		seen[id] = struct{}{}
	}
	for _, id := range g.Neighbors(b) {
		seen[id] = struct{}{}
	}
	delete(seen, a)
	delete(seen, b)

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
