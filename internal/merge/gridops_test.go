package merge

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/brgeotools/munimerge/internal/geometry"
)

// gridGeom is a toy geometry for core tests: a set of unit grid cells.
// Two geometries touch when any of their cells are orthogonally adjacent.
type gridGeom struct {
	cells   [][2]int
	invalid bool
}

func cellsAt(cells ...[2]int) gridGeom {
	return gridGeom{cells: cells}
}

// gridOps implements geometry.Ops over gridGeom values, with optional
// failure injection for union error paths.
type gridOps struct {
	failUnion bool
}

func (gridOps) geom(g geometry.Geometry) (gridGeom, error) {
	gg, ok := g.(gridGeom)
	if !ok {
		return gridGeom{}, eris.Errorf("gridops: foreign geometry %T", g)
	}
	return gg, nil
}

func (o gridOps) Union(a, b geometry.Geometry) (geometry.Geometry, error) {
	ga, err := o.geom(a)
	if err != nil {
		return nil, err
	}
	gb, err := o.geom(b)
	if err != nil {
		return nil, err
	}
	if o.failUnion {
		return gridGeom{}, nil // empty result, caught by the aggregator
	}
	seen := make(map[[2]int]struct{})
	var out gridGeom
	for _, c := range append(append([][2]int{}, ga.cells...), gb.cells...) {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out.cells = append(out.cells, c)
	}
	return out, nil
}

func (o gridOps) Repair(g geometry.Geometry) (geometry.Geometry, error) {
	gg, err := o.geom(g)
	if err != nil {
		return nil, err
	}
	gg.invalid = false
	return gg, nil
}

func (o gridOps) IsValid(g geometry.Geometry) (bool, error) {
	gg, err := o.geom(g)
	if err != nil {
		return false, err
	}
	return !gg.invalid, nil
}

func (o gridOps) IsEmpty(g geometry.Geometry) (bool, error) {
	gg, err := o.geom(g)
	if err != nil {
		return false, err
	}
	return len(gg.cells) == 0, nil
}

func (o gridOps) Centroid(g geometry.Geometry) (geometry.Point, error) {
	gg, err := o.geom(g)
	if err != nil {
		return geometry.Point{}, err
	}
	if len(gg.cells) == 0 {
		return geometry.Point{}, eris.New("gridops: empty centroid")
	}
	var sx, sy float64
	for _, c := range gg.cells {
		sx += float64(c[0]) + 0.5
		sy += float64(c[1]) + 0.5
	}
	n := float64(len(gg.cells))
	return geometry.Point{X: sx / n, Y: sy / n}, nil
}

func (o gridOps) Bounds(g geometry.Geometry) (geometry.Bounds, error) {
	gg, err := o.geom(g)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := geometry.Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, c := range gg.cells {
		b.MinX = math.Min(b.MinX, float64(c[0]))
		b.MinY = math.Min(b.MinY, float64(c[1]))
		b.MaxX = math.Max(b.MaxX, float64(c[0])+1)
		b.MaxY = math.Max(b.MaxY, float64(c[1])+1)
	}
	return b, nil
}

func (o gridOps) BoundaryTouches(a, b geometry.Geometry) (bool, error) {
	ga, err := o.geom(a)
	if err != nil {
		return false, err
	}
	gb, err := o.geom(b)
	if err != nil {
		return false, err
	}
	for _, ca := range ga.cells {
		for _, cb := range gb.cells {
			dx := ca[0] - cb[0]
			dy := ca[1] - cb[1]
			if dx*dx+dy*dy <= 1 {
				return true, nil
			}
		}
	}
	return false, nil
}

func (o gridOps) PointDistance(a, b geometry.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (o gridOps) Tolerance() float64 { return 0 }
