// Package geo provides the coordinate math used for zone containment:
// ray-cast polygon tests, haversine distances and bounding boxes. All
// functions are pure and treat coordinates as WGS84 degrees.
package geo

import (
	"errors"
	"math"
)

// ErrInvalidPolygon is returned when a polygon has fewer than 3 vertices.
var ErrInvalidPolygon = errors.New("polygon must have at least 3 points")

// Point is a single WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p is a usable coordinate: finite values with
// latitude in [-90, 90] and longitude in [-180, 180].
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Rect is an axis-aligned bounding box in degree space.
type Rect struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether p falls within the box, borders included.
func (r Rect) Contains(p Point) bool {
	return p.Lat >= r.MinLat && p.Lat <= r.MaxLat &&
		p.Lon >= r.MinLon && p.Lon <= r.MaxLon
}

// BoundingBox returns the minimal Rect enclosing all points. The zero
// Rect is returned for an empty slice.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		r.MinLat = math.Min(r.MinLat, p.Lat)
		r.MaxLat = math.Max(r.MaxLat, p.Lat)
		r.MinLon = math.Min(r.MinLon, p.Lon)
		r.MaxLon = math.Max(r.MaxLon, p.Lon)
	}
	return r
}

// CircleBound returns a Rect that conservatively encloses a circle of
// radiusM meters around center. Longitude span widens with latitude;
// near the poles the box degrades to the full longitude range.
func CircleBound(center Point, radiusM float64) Rect {
	dLat := (radiusM / earthRadiusM) * 180 / math.Pi
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = dLat / cosLat
	}
	return Rect{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLon: math.Max(center.Lon-dLon, -180),
		MaxLon: math.Min(center.Lon+dLon, 180),
	}
}

// PointInPolygon checks containment with the even-odd ray casting rule,
// working directly in degree space, which is accurate at paddock scale.
// Self-intersecting polygons are accepted and evaluated deterministically.
// A point exactly on an edge or vertex classifies to one side or the
// other depending on the strict comparisons; callers must not rely on
// boundary points being inside.
func PointInPolygon(p Point, points []Point) (bool, error) {
	if len(points) < 3 {
		return false, ErrInvalidPolygon
	}

	inside := false
	j := len(points) - 1
	for i := 0; i < len(points); i++ {
		pi := points[i]
		pj := points[j]

		if ((pi.Lon > p.Lon) != (pj.Lon > p.Lon)) &&
			(p.Lat < (pj.Lat-pi.Lat)*(p.Lon-pi.Lon)/(pj.Lon-pi.Lon)+pi.Lat) {
			inside = !inside
		}
		j = i
	}

	return inside, nil
}

// PointInCircle reports whether p lies within radiusM meters of center.
func PointInCircle(p, center Point, radiusM float64) bool {
	return Distance(p, center) <= radiusM
}

const earthRadiusM = 6371000 // meters

// Distance returns the great-circle distance between two points in
// meters, using the Haversine formula.
func Distance(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}
