// Package geometry holds the planar primitives shared by the bedframe and
// link models. Coordinates are room inches: x grows away from the wall and
// y grows up from the floor.
package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// Point is a room or body-local coordinate.
type Point geom.Coord

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) coord() geom.Coord { return geom.Coord(p) }

func (p Point) Add(q Point) Point { return Point(p.coord().Plus(q.coord())) }

func (p Point) Sub(q Point) Point { return Point(p.coord().Minus(q.coord())) }

func (p Point) Scale(f float64) Point { return Point(p.coord().Times(f)) }

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return p.Sub(q).coord().Magnitude() }

// DistanceSq avoids the square root for error terms that are squared anyway.
func (p Point) DistanceSq(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Rotate turns p about the origin by deg degrees, counterclockwise.
func (p Point) Rotate(deg float64) Point {
	s, c := math.Sincos(Rad(deg))
	return Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}

// Polar returns the point at distance r from p in direction deg.
func (p Point) Polar(r, deg float64) Point {
	s, c := math.Sincos(Rad(deg))
	return Point{X: p.X + r*c, Y: p.Y + r*s}
}

func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Near reports whether p and q agree within tol on both axes.
func (p Point) Near(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

// Midpoint of p and q.
func Midpoint(p, q Point) Point { return p.Add(q).Scale(0.5) }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Polygon is a closed outline; the last vertex connects back to the first.
type Polygon []Point

// Closed returns the outline with the first vertex repeated at the end,
// which is what line plotters expect.
func (pg Polygon) Closed() []Point {
	if len(pg) == 0 {
		return nil
	}
	out := make([]Point, len(pg)+1)
	copy(out, pg)
	out[len(pg)] = pg[0]
	return out
}

func (pg Polygon) Bounds() Box { return BoxOf(pg...) }
