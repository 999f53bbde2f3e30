// Package geometry decodes binary WKB region boundaries and answers
// boundary-inclusive point containment on them.
//
// Only areal geometry kinds (Polygon, MultiPolygon) are accepted: the domain
// is "which region contains this point", so points, lines and collections are
// rejected at decode time rather than silently never matching.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/planar"
)

// ErrEmptyGeometry is returned when the decoded geometry has no rings.
var ErrEmptyGeometry = errors.New("geometry: empty geometry")

// DecodeError indicates malformed WKB input.
//
// The underlying parser error (if any) can be accessed via errors.Unwrap.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("geometry: malformed WKB: %v", e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// UnsupportedGeometryError indicates a well-formed geometry of a non-areal
// kind (Point, LineString, GeometryCollection, ...).
type UnsupportedGeometryError struct {
	Kind string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("geometry: unsupported geometry kind %q (want Polygon or MultiPolygon)", e.Kind)
}

// Region is an immutable planar areal boundary, possibly multi-part and with
// holes. A Region is owned by the catalog that decoded it and is never
// mutated after Decode returns.
type Region struct {
	geom  orb.Geometry
	bound orb.Bound
}

// Decode converts a binary WKB encoding into a Region.
//
// Malformed input yields a *DecodeError; well-formed non-areal input yields a
// *UnsupportedGeometryError. Decode is a pure function.
func Decode(data []byte) (*Region, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, &DecodeError{cause: err}
	}

	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return nil, &DecodeError{cause: ErrEmptyGeometry}
		}
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, &DecodeError{cause: ErrEmptyGeometry}
		}
	default:
		return nil, &UnsupportedGeometryError{Kind: g.GeoJSONType()}
	}

	return &Region{geom: g, bound: g.Bound()}, nil
}

// Bound returns the bounding box of the region in (lon, lat) planar axes.
func (r *Region) Bound() orb.Bound { return r.bound }

// Kind returns the GeoJSON name of the underlying geometry kind.
func (r *Region) Kind() string { return r.geom.GeoJSONType() }

// Covers reports whether pt lies inside the region, boundary included:
// a point exactly on an edge or vertex counts as contained. This favors
// availability for boundary points over a strict interior test.
//
// The error return is reserved for geometry kinds that cannot be evaluated;
// callers treat it as "skip this candidate", not as a query failure.
func (r *Region) Covers(pt orb.Point) (bool, error) {
	if !r.bound.Contains(pt) {
		return false, nil
	}
	switch geom := r.geom.(type) {
	case orb.Polygon:
		return polygonCovers(geom, pt), nil
	case orb.MultiPolygon:
		for _, poly := range geom {
			if polygonCovers(poly, pt) {
				return true, nil
			}
		}
		return false, nil
	default:
		// Unreachable for regions produced by Decode.
		return false, &UnsupportedGeometryError{Kind: r.geom.GeoJSONType()}
	}
}

// polygonCovers widens planar.PolygonContains to treat every ring edge as part
// of the polygon. PolygonContains counts a point on an interior ring's edge as
// inside the hole; here hole edges are boundary and therefore covered.
func polygonCovers(poly orb.Polygon, pt orb.Point) bool {
	if planar.PolygonContains(poly, pt) {
		return true
	}
	for _, ring := range poly {
		for i := 1; i < len(ring); i++ {
			if pointOnSegment(ring[i-1], ring[i], pt) {
				return true
			}
		}
	}
	return false
}

// pointOnSegment reports whether pt lies exactly on the closed segment ab.
func pointOnSegment(a, b, pt orb.Point) bool {
	cross := (b[0]-a[0])*(pt[1]-a[1]) - (b[1]-a[1])*(pt[0]-a[0])
	if cross != 0 {
		return false
	}
	return math.Min(a[0], b[0]) <= pt[0] && pt[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= pt[1] && pt[1] <= math.Max(a[1], b[1])
}
