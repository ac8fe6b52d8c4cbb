// Package mechanism models the rigid parts of a folding bed: the bedframe
// and the links that hold it to the room, plus the live assembly that owns
// them. Every derived point is recomputed from the current pose on access.
package mechanism

import (
	"encoding/json"
	"math"

	"github.com/san-kum/murphybed/internal/geometry"
)

// verifyTolerance bounds the closed-polygon check in Verify.
const verifyTolerance = 1e-6

// Bedframe is the bed body plus its headboard. (X, Y) is the lower head
// corner, which is also the rotation pivot. Angle is in degrees: 0 lies
// flat (deployed), 90 stands against the wall (stowed).
type Bedframe struct {
	thickness  float64
	length     float64
	headHeight float64
	headDepth  float64

	X, Y  float64
	Angle float64
}

// BedframeSpec holds the immutable design constants of a bedframe.
type BedframeSpec struct {
	Thickness  float64 `json:"thickness" yaml:"thickness"`
	Length     float64 `json:"length" yaml:"length"`
	HeadHeight float64 `json:"headboard_height" yaml:"headboard_height"`
	HeadDepth  float64 `json:"headboard_depth" yaml:"headboard_depth"`
}

// NewBedframe validates the design constants and returns a bedframe posed
// at the origin, deployed.
func NewBedframe(spec BedframeSpec) (Bedframe, error) {
	b := Bedframe{
		thickness:  spec.Thickness,
		length:     spec.Length,
		headHeight: spec.HeadHeight,
		headDepth:  spec.HeadDepth,
	}
	if err := b.validate(); err != nil {
		return Bedframe{}, err
	}
	return b, nil
}

func (b Bedframe) validate() error {
	for name, v := range map[string]float64{
		"thickness":        b.thickness,
		"length":           b.length,
		"headboard height": b.headHeight,
		"headboard depth":  b.headDepth,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return geometryErrorf("bedframe", "%s must be positive and finite, got %v", name, v)
		}
	}
	if b.headDepth > b.length {
		return geometryErrorf("bedframe", "headboard depth %v exceeds length %v", b.headDepth, b.length)
	}
	if b.thickness > b.headHeight {
		return geometryErrorf("bedframe", "thickness %v exceeds headboard height %v", b.thickness, b.headHeight)
	}
	return nil
}

func (b Bedframe) Spec() BedframeSpec {
	return BedframeSpec{
		Thickness:  b.thickness,
		Length:     b.length,
		HeadHeight: b.headHeight,
		HeadDepth:  b.headDepth,
	}
}

func (b Bedframe) Thickness() float64  { return b.thickness }
func (b Bedframe) Length() float64     { return b.length }
func (b Bedframe) HeadHeight() float64 { return b.headHeight }
func (b Bedframe) HeadDepth() float64  { return b.headDepth }

func (b Bedframe) Pivot() geometry.Point { return geometry.Pt(b.X, b.Y) }

// ToRoom maps a point fixed to the bedframe into room coordinates. Local x
// runs along the length from the pivot, local y along the thickness.
func (b Bedframe) ToRoom(local geometry.Point) geometry.Point {
	return b.Pivot().Add(local.Rotate(b.Angle))
}

// Foot returns the lower and upper corners at the foot of the bed.
func (b Bedframe) Foot() (lower, upper geometry.Point) {
	lower = b.ToRoom(geometry.Pt(b.length, 0))
	upper = b.ToRoom(geometry.Pt(b.length, b.thickness))
	return lower, upper
}

// Head returns the rear and front top corners of the headboard.
func (b Bedframe) Head() (rear, front geometry.Point) {
	rear = b.ToRoom(geometry.Pt(0, b.headHeight))
	front = b.ToRoom(geometry.Pt(b.headDepth, b.headHeight))
	return rear, front
}

// Pillow is the inside corner where the headboard meets the mattress surface.
func (b Bedframe) Pillow() geometry.Point {
	_, front := b.Head()
	s, c := math.Sincos(geometry.Rad(b.Angle))
	drop := b.headHeight - b.thickness
	return geometry.Pt(front.X+drop*s, front.Y-drop*c)
}

// CoG is the centre of gravity of the main body, ignoring the headboard.
func (b Bedframe) CoG() geometry.Point {
	_, upper := b.Foot()
	return geometry.Midpoint(b.Pivot(), upper)
}

// LocalCoG is CoG expressed in the bedframe's own frame.
func (b Bedframe) LocalCoG() geometry.Point {
	return geometry.Pt(b.length/2, b.thickness/2)
}

// Verify checks that the outline closes: walking from the pillow along the
// mattress surface must land on the upper foot corner.
func (b Bedframe) Verify() error {
	s, c := math.Sincos(geometry.Rad(b.Angle))
	run := b.length - b.headDepth
	walked := b.Pillow().Add(geometry.Pt(run*c, run*s))
	_, upper := b.Foot()
	if !walked.IsFinite() || !walked.Near(upper, verifyTolerance) {
		return geometryErrorf("bedframe", "outline does not close: %v != %v", walked, upper)
	}
	return nil
}

// Outline lists the corners counterclockwise from the pivot.
func (b Bedframe) Outline() geometry.Polygon {
	lower, upper := b.Foot()
	rear, front := b.Head()
	return geometry.Polygon{b.Pivot(), lower, upper, b.Pillow(), front, rear}
}

func (b Bedframe) Bounds() geometry.Box { return b.Outline().Bounds() }

// FloorOpening returns where the frame's underside meets the floor, or 0
// when the frame does not cross y = 0. A lower foot at or below the floor
// wins over the bounds test, so a foot resting exactly on y = 0 reports its
// own x.
func (b Bedframe) FloorOpening() float64 {
	box := b.Bounds()
	if box.Top() <= 0 {
		return 0
	}
	lower, _ := b.Foot()
	if lower.Y <= 0 {
		return lower.X
	}
	if box.Bottom() >= 0 || b.Y > 0 {
		return 0
	}
	return b.X - b.Y*(lower.X-b.X)/(lower.Y-b.Y)
}

// BodyContains reports whether a local point lies on the mattress body.
func (b Bedframe) BodyContains(local geometry.Point) bool {
	return geometry.BoxOf(geometry.Pt(0, 0), geometry.Pt(b.length, b.thickness)).Contains(local)
}

// HeadboardContains reports whether a local point lies on the headboard.
func (b Bedframe) HeadboardContains(local geometry.Point) bool {
	return geometry.BoxOf(geometry.Pt(0, 0), geometry.Pt(b.headDepth, b.headHeight)).Contains(local)
}

type bedframeJSON struct {
	BedframeSpec
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

func (b Bedframe) MarshalJSON() ([]byte, error) {
	return json.Marshal(bedframeJSON{BedframeSpec: b.Spec(), X: b.X, Y: b.Y, Angle: b.Angle})
}

func (b *Bedframe) UnmarshalJSON(data []byte) error {
	var rec bedframeJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	nb, err := NewBedframe(rec.BedframeSpec)
	if err != nil {
		return err
	}
	nb.X, nb.Y, nb.Angle = rec.X, rec.Y, rec.Angle
	*b = nb
	return nil
}
