// Package geometry abstracts the geometric capabilities the merge algorithm
// needs behind a small interface so the core is independent of any particular
// geometry engine.
package geometry

// Point is a coordinate pair in the input's reference frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Expand grows the box by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

// Intersects reports whether two boxes overlap or touch.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Geometry is an opaque polygon or multi-polygon handle. Values are owned by
// the Ops engine that produced them and must only be passed back to it.
type Geometry interface{}

// Ops is the capability interface the merge core consumes.
type Ops interface {
	// Union returns the union of two geometries.
	Union(a, b Geometry) (Geometry, error)

	// Repair removes self-intersections and other invalidities, returning a
	// valid geometry.
	Repair(g Geometry) (Geometry, error)

	// IsValid reports whether the geometry is topologically valid.
	IsValid(g Geometry) (bool, error)

	// IsEmpty reports whether the geometry is empty.
	IsEmpty(g Geometry) (bool, error)

	// Centroid returns the geometry's centroid.
	Centroid(g Geometry) (Point, error)

	// Bounds returns the geometry's bounding box.
	Bounds(g Geometry) (Bounds, error)

	// BoundaryTouches reports whether two geometries share a boundary,
	// within the engine's tolerance.
	BoundaryTouches(a, b Geometry) (bool, error)

	// PointDistance returns the distance between two points, great-circle
	// when the engine is configured for geographic coordinates.
	PointDistance(a, b Point) float64

	// Tolerance returns the boundary-touch tolerance in coordinate units.
	Tolerance() float64
}

// Encoder serializes geometries for the export layer.
type Encoder interface {
	// EncodeGeoJSON returns the geometry as a GeoJSON geometry object.
	EncodeGeoJSON(g Geometry) ([]byte, error)
}
