package geometry

import "github.com/jbeda/geom"

// Box is an axis aligned bounding box.
type Box geom.Rect

// BoxOf returns the smallest box holding every point. An empty call
// returns the zero box.
func BoxOf(pts ...Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	r := geom.Rect{Min: geom.Coord(pts[0]), Max: geom.Coord(pts[0])}
	for _, p := range pts[1:] {
		r.ExpandToContainCoord(geom.Coord(p))
	}
	return Box(r)
}

func (b Box) Left() float64   { return b.Min.X }
func (b Box) Right() float64  { return b.Max.X }
func (b Box) Bottom() float64 { return b.Min.Y }
func (b Box) Top() float64    { return b.Max.Y }

func (b Box) Width() float64  { return b.Max.X - b.Min.X }
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Expand grows the box by pad on every side.
func (b Box) Expand(pad float64) Box {
	b.Min.X -= pad
	b.Min.Y -= pad
	b.Max.X += pad
	b.Max.Y += pad
	return b
}

func (b Box) Union(o Box) Box {
	r := geom.Rect(b)
	r.ExpandToContainRect(geom.Rect(o))
	return Box(r)
}

// Contains is inclusive of the edges.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Corners returns the outline counterclockwise from the lower left.
func (b Box) Corners() Polygon {
	return Polygon{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}
}
