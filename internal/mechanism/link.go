package mechanism

import (
	"fmt"
	"math"

	"github.com/san-kum/murphybed/internal/geometry"
)

// FloorOpeningPolicy names how a rod of non-zero width crossing the floor
// is measured.
type FloorOpeningPolicy int

const (
	// ConservativeBound takes the largest of three partial estimates: the
	// pivot's half-width circle, the distal half-width circle and the rod
	// centreline crossing widened by the rod's slanted half-width. It can
	// over-report the opening but never under-reports it.
	ConservativeBound FloorOpeningPolicy = iota
	// Footprint intersects the rod's rectangle with y = 0 and reports the
	// furthest crossing. Rounded ends are ignored.
	Footprint
)

var floorPolicyNames = map[FloorOpeningPolicy]string{
	ConservativeBound: "conservative",
	Footprint:         "footprint",
}

func (p FloorOpeningPolicy) String() string {
	if name, ok := floorPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParseFloorOpeningPolicy accepts the String form; "" means ConservativeBound.
func ParseFloorOpeningPolicy(name string) (FloorOpeningPolicy, error) {
	if name == "" {
		return ConservativeBound, nil
	}
	for p, n := range floorPolicyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("mechanism: unknown floor opening policy %q", name)
}

// Link is a rigid rod pinned to the room at Pivot. Its tip is meant to
// reach Attachment, a point fixed to the bedframe and given in the
// bedframe's local frame.
type Link struct {
	Name       string         `json:"name"`
	Pivot      geometry.Point `json:"pivot"`
	Length     float64        `json:"length"`
	Width      float64        `json:"width"`
	Angle      float64        `json:"angle"`
	Attached   bool           `json:"attached"`
	Attachment geometry.Point `json:"attachment"`
}

// NewLink returns an unattached link.
func NewLink(name string, x, y, length, width, angle float64) Link {
	return Link{Name: name, Pivot: geometry.Pt(x, y), Length: length, Width: width, Angle: angle}
}

// Attach returns a copy of l whose tip targets the bedframe-local point (x, y).
func (l Link) Attach(x, y float64) Link {
	l.Attached = true
	l.Attachment = geometry.Pt(x, y)
	return l
}

func (l Link) label() string {
	if l.Name == "" {
		return "link"
	}
	return "link " + l.Name
}

// Validate rejects rods and attachments the solver cannot evaluate.
func (l Link) Validate() error {
	if !l.Pivot.IsFinite() || math.IsNaN(l.Angle) || math.IsInf(l.Angle, 0) {
		return geometryErrorf(l.label(), "pose is not finite")
	}
	if math.IsNaN(l.Length) || math.IsInf(l.Length, 0) || l.Length <= 0 {
		return geometryErrorf(l.label(), "length must be positive, got %v", l.Length)
	}
	if math.IsNaN(l.Width) || math.IsInf(l.Width, 0) || l.Width < 0 {
		return geometryErrorf(l.label(), "width must be non-negative, got %v", l.Width)
	}
	if !l.Attached {
		return nil
	}
	if !l.Attachment.IsFinite() {
		return geometryErrorf(l.label(), "attachment %v is not finite", l.Attachment)
	}
	if l.Attachment.X == 0 {
		return geometryErrorf(l.label(), "attachment x must be non-zero: its angle about the bedframe pivot is undefined")
	}
	return nil
}

func (l Link) Distal() geometry.Point { return l.Pivot.Polar(l.Length, l.Angle) }

func (l Link) CoG() geometry.Point { return geometry.Midpoint(l.Pivot, l.Distal()) }

func (l Link) Centerline() geometry.Segment { return geometry.Seg(l.Pivot, l.Distal()) }

// Edges returns the two long sides of the rod, offset by half the width
// either side of the centreline.
func (l Link) Edges() [2]geometry.Segment {
	s, c := math.Sincos(geometry.Rad(l.Angle))
	w := l.Width / 2
	axis := l.Centerline()
	return [2]geometry.Segment{
		axis.Offset(geometry.Pt(-w*s, w*c)),
		axis.Offset(geometry.Pt(w*s, -w*c)),
	}
}

// Bounds pads the rod's centreline extents by half its width.
func (l Link) Bounds() geometry.Box {
	return l.Centerline().Bounds().Expand(l.Width / 2)
}

// Outline is the rod's rectangle, ignoring the rounded ends.
func (l Link) Outline() geometry.Polygon {
	e := l.Edges()
	return geometry.Polygon{e[0].A, e[0].B, e[1].B, e[1].A}
}

// FloorOpening is FloorOpeningBy(ConservativeBound).
func (l Link) FloorOpening() float64 { return l.FloorOpeningBy(ConservativeBound) }

// FloorOpeningBy estimates how far into the room the rod's footprint
// crosses the floor. Unknown policies fall back to ConservativeBound.
func (l Link) FloorOpeningBy(policy FloorOpeningPolicy) float64 {
	switch policy {
	case Footprint:
		return footprintOpening(l.Outline())
	default:
		return l.conservativeOpening()
	}
}

func (l Link) conservativeOpening() float64 {
	r := l.Width / 2
	distal := l.Distal()

	var atPivot, atDistal, alongRod float64
	if math.Abs(l.Pivot.Y) < r {
		atPivot = l.Pivot.X + math.Sqrt(r*r-l.Pivot.Y*l.Pivot.Y)
	}
	if math.Abs(distal.Y) < r {
		atDistal = distal.X + math.Sqrt(r*r-distal.Y*distal.Y)
	}
	if x, ok := l.Centerline().FloorCrossing(); ok {
		alongRod = x + math.Abs(r/math.Sin(geometry.Rad(l.Angle)))
	}
	return math.Max(atPivot, math.Max(atDistal, alongRod))
}

func footprintOpening(pg geometry.Polygon) float64 {
	opening := 0.0
	for i, a := range pg {
		b := pg[(i+1)%len(pg)]
		if x, ok := geometry.Seg(a, b).FloorCrossing(); ok {
			opening = math.Max(opening, x)
		}
	}
	return opening
}

// RoomAttachment is where the link's tip should be, given the bedframe's
// current pose. ok is false for an unattached link.
func (l Link) RoomAttachment(b Bedframe) (p geometry.Point, ok bool, err error) {
	if !l.Attached {
		return geometry.Point{}, false, nil
	}
	if err := l.Validate(); err != nil {
		return geometry.Point{}, false, err
	}
	return b.ToRoom(l.Attachment), true, nil
}

// FitError is the squared distance from the tip to its attachment point.
// Unattached links always fit. Invalid links report +Inf so a search never
// prefers them; call Validate to learn why.
func (l Link) FitError(b Bedframe) float64 {
	target, ok, err := l.RoomAttachment(b)
	if err != nil {
		return math.Inf(1)
	}
	if !ok {
		return 0
	}
	return l.Distal().DistanceSq(target)
}

// IkeaError is FitError plus a small pull toward a low resting position,
// weighted by cogBias.
func (l Link) IkeaError(b Bedframe, cogBias float64) float64 {
	return l.FitError(b) + cogBias*l.CoG().Y
}
