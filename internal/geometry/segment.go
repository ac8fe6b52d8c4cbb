package geometry

type Segment struct {
	A, B Point
}

func Seg(a, b Point) Segment { return Segment{A: a, B: b} }

func (s Segment) Length() float64 { return s.A.Distance(s.B) }

func (s Segment) Offset(d Point) Segment { return Segment{A: s.A.Add(d), B: s.B.Add(d)} }

// FloorCrossing returns the x where the segment crosses y = 0. Segments
// that touch the floor at an endpoint or lie along it report ok=false.
func (s Segment) FloorCrossing() (x float64, ok bool) {
	if s.A.Y*s.B.Y >= 0 {
		return 0, false
	}
	return s.A.X - s.A.Y*(s.B.X-s.A.X)/(s.B.Y-s.A.Y), true
}

func (s Segment) Bounds() Box { return BoxOf(s.A, s.B) }
