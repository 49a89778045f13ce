package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geos"
)

// DefaultTolerance is the boundary-touch tolerance in degrees, sized to
// absorb floating-point and topology noise in real-world boundary data.
const DefaultTolerance = 1e-9

const earthRadiusMeters = 6371008.8

// GEOS implements Ops and Encoder on libgeos via twpayne/go-geos.
type GEOS struct {
	tolerance float64
	geodesic  bool
}

// NewGEOS creates a GEOS-backed engine. A non-positive tolerance falls back
// to DefaultTolerance. When geodesic is true, coordinates are treated as
// lon/lat degrees and point distances are great-circle meters.
func NewGEOS(tolerance float64, geodesic bool) *GEOS {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &GEOS{tolerance: tolerance, geodesic: geodesic}
}

// FromWKB decodes a WKB-encoded geometry into an engine handle.
func (e *GEOS) FromWKB(wkb []byte) (Geometry, error) {
	g, err := geos.NewGeomFromWKB(wkb)
	if err != nil {
		return nil, eris.Wrap(err, "geos: decode wkb")
	}
	return g, nil
}

// FromWKT decodes a WKT geometry into an engine handle.
func (e *GEOS) FromWKT(wkt string) (Geometry, error) {
	g, err := geos.NewGeomFromWKT(wkt)
	if err != nil {
		return nil, eris.Wrap(err, "geos: decode wkt")
	}
	return g, nil
}

// Union returns the union of a and b.
func (e *GEOS) Union(a, b Geometry) (Geometry, error) {
	ga, gb, err := e.pair(a, b)
	if err != nil {
		return nil, err
	}
	var out *geos.Geom
	if err := capture(func() { out = ga.Union(gb) }); err != nil {
		return nil, eris.Wrap(err, "geos: union")
	}
	if out == nil {
		return nil, eris.New("geos: union returned nil geometry")
	}
	return out, nil
}

// Repair makes the geometry valid, preserving the linework where possible.
func (e *GEOS) Repair(g Geometry) (Geometry, error) {
	gg, err := e.geom(g)
	if err != nil {
		return nil, err
	}
	var out *geos.Geom
	if err := capture(func() {
		out = gg.MakeValidWithParams(geos.MakeValidLinework, geos.MakeValidDiscardCollapsed)
	}); err != nil {
		return nil, eris.Wrap(err, "geos: make valid")
	}
	if out == nil {
		return nil, eris.New("geos: make valid returned nil geometry")
	}
	// Linework repair can leave slivers; a zero-width buffer settles them.
	if !out.IsValid() {
		if err := capture(func() { out = out.Buffer(0, 8) }); err != nil {
			return nil, eris.Wrap(err, "geos: zero buffer")
		}
	}
	return out, nil
}

// IsValid reports topological validity.
func (e *GEOS) IsValid(g Geometry) (bool, error) {
	gg, err := e.geom(g)
	if err != nil {
		return false, err
	}
	var valid bool
	if err := capture(func() { valid = gg.IsValid() }); err != nil {
		return false, eris.Wrap(err, "geos: validity check")
	}
	return valid, nil
}

// IsEmpty reports whether the geometry is empty.
func (e *GEOS) IsEmpty(g Geometry) (bool, error) {
	gg, err := e.geom(g)
	if err != nil {
		return false, err
	}
	return gg.IsEmpty(), nil
}

// Centroid returns the geometry's centroid.
func (e *GEOS) Centroid(g Geometry) (Point, error) {
	gg, err := e.geom(g)
	if err != nil {
		return Point{}, err
	}
	var c *geos.Geom
	if err := capture(func() { c = gg.Centroid() }); err != nil {
		return Point{}, eris.Wrap(err, "geos: centroid")
	}
	if c == nil || c.IsEmpty() {
		return Point{}, eris.New("geos: empty centroid")
	}
	return Point{X: c.X(), Y: c.Y()}, nil
}

// Bounds returns the geometry's bounding box.
func (e *GEOS) Bounds(g Geometry) (Bounds, error) {
	gg, err := e.geom(g)
	if err != nil {
		return Bounds{}, err
	}
	var box *geos.Box2D
	if err := capture(func() { box = gg.Bounds() }); err != nil {
		return Bounds{}, eris.Wrap(err, "geos: bounds")
	}
	if box == nil {
		return Bounds{}, eris.New("geos: nil bounds")
	}
	return Bounds{MinX: box.MinX, MinY: box.MinY, MaxX: box.MaxX, MaxY: box.MaxY}, nil
}

// BoundaryTouches reports whether a and b share a boundary within the
// engine's tolerance. For a non-overlapping partition a distance at or below
// the tolerance means the boundaries meet in a shared edge or point.
func (e *GEOS) BoundaryTouches(a, b Geometry) (bool, error) {
	ga, gb, err := e.pair(a, b)
	if err != nil {
		return false, err
	}
	var d float64
	if err := capture(func() { d = ga.Distance(gb) }); err != nil {
		return false, eris.Wrap(err, "geos: distance")
	}
	return d <= e.tolerance, nil
}

// PointDistance returns meters (geodesic) or coordinate units (planar).
func (e *GEOS) PointDistance(a, b Point) float64 {
	if !e.geodesic {
		return math.Hypot(a.X-b.X, a.Y-b.Y)
	}
	return haversine(a, b)
}

// Tolerance returns the boundary-touch tolerance.
func (e *GEOS) Tolerance() float64 {
	return e.tolerance
}

// EncodeGeoJSON returns the geometry as a GeoJSON geometry object.
func (e *GEOS) EncodeGeoJSON(g Geometry) ([]byte, error) {
	gg, err := e.geom(g)
	if err != nil {
		return nil, err
	}
	var s string
	if err := capture(func() { s = gg.ToGeoJSON(-1) }); err != nil {
		return nil, eris.Wrap(err, "geos: encode geojson")
	}
	return []byte(s), nil
}

func (e *GEOS) geom(g Geometry) (*geos.Geom, error) {
	gg, ok := g.(*geos.Geom)
	if !ok || gg == nil {
		return nil, eris.Errorf("geos: foreign geometry handle %T", g)
	}
	return gg, nil
}

func (e *GEOS) pair(a, b Geometry) (*geos.Geom, *geos.Geom, error) {
	ga, err := e.geom(a)
	if err != nil {
		return nil, nil, err
	}
	gb, err := e.geom(b)
	if err != nil {
		return nil, nil, err
	}
	return ga, gb, nil
}

// capture runs f and converts a GEOS panic into an error.
func capture(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("geos operation failed: %v", r)
		}
	}()
	f()
	return nil
}

// haversine returns the great-circle distance in meters between two lon/lat
// points.
func haversine(a, b Point) float64 {
	lat1 := a.Y * math.Pi / 180
	lat2 := b.Y * math.Pi / 180
	dLat := (b.Y - a.Y) * math.Pi / 180
	dLon := (b.X - a.X) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
