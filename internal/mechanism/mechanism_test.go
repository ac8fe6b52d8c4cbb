package mechanism

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/murphybed/internal/geometry"
)

func referenceBedframe(t *testing.T) Bedframe {
	t.Helper()
	b, err := NewBedframe(BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10})
	if err != nil {
		t.Fatalf("NewBedframe: %v", err)
	}
	return b
}

func referenceMurphy(t *testing.T) *Murphy {
	t.Helper()
	m, err := New(referenceBedframe(t),
		NewLink("A", 0, 5, 12, 4, 45).Attach(10, 2),
		NewLink("B", 2, -10, 30, 4, 20),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewBedframeRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name string
		spec BedframeSpec
	}{
		{"zero thickness", BedframeSpec{Thickness: 0, Length: 72, HeadHeight: 24, HeadDepth: 10}},
		{"negative length", BedframeSpec{Thickness: 10, Length: -1, HeadHeight: 24, HeadDepth: 10}},
		{"NaN headboard", BedframeSpec{Thickness: 10, Length: 72, HeadHeight: math.NaN(), HeadDepth: 10}},
		{"deep headboard", BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 80}},
		{"thick frame", BedframeSpec{Thickness: 30, Length: 72, HeadHeight: 24, HeadDepth: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBedframe(tt.spec)
			var gerr *GeometryError
			if !errors.As(err, &gerr) {
				t.Fatalf("expected GeometryError, got %v", err)
			}
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Error("GeometryError should wrap ErrInvalidGeometry")
			}
		})
	}
}

func TestBedframeVerifyAcrossPoses(t *testing.T) {
	specs := []BedframeSpec{
		{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10},
		{Thickness: 2, Length: 80, HeadHeight: 40, HeadDepth: 3},
		{Thickness: 12, Length: 12, HeadHeight: 12, HeadDepth: 12},
	}
	for _, spec := range specs {
		b, err := NewBedframe(spec)
		if err != nil {
			t.Fatalf("NewBedframe(%+v): %v", spec, err)
		}
		for angle := -180.0; angle <= 180; angle += 7.5 {
			for _, pos := range []geometry.Point{{X: 0, Y: 0}, {X: 13.5, Y: -4}, {X: -100, Y: 250}} {
				b.X, b.Y, b.Angle = pos.X, pos.Y, angle
				if err := b.Verify(); err != nil {
					t.Errorf("%+v at %v, %v deg: %v", spec, pos, angle, err)
				}
			}
		}
	}
}

func TestBedframeCorners(t *testing.T) {
	b := referenceBedframe(t)

	lower, upper := b.Foot()
	if !lower.Near(geometry.Pt(72, 0), 1e-9) || !upper.Near(geometry.Pt(72, 10), 1e-9) {
		t.Errorf("deployed foot = %v, %v", lower, upper)
	}
	rear, front := b.Head()
	if !rear.Near(geometry.Pt(0, 24), 1e-9) || !front.Near(geometry.Pt(10, 24), 1e-9) {
		t.Errorf("deployed head = %v, %v", rear, front)
	}
	if !b.Pillow().Near(geometry.Pt(10, 10), 1e-9) {
		t.Errorf("deployed pillow = %v", b.Pillow())
	}
	if !b.CoG().Near(geometry.Pt(36, 5), 1e-9) {
		t.Errorf("deployed CoG = %v", b.CoG())
	}

	b.Angle = 90
	lower, _ = b.Foot()
	rear, _ = b.Head()
	if !lower.Near(geometry.Pt(0, 72), 1e-9) {
		t.Errorf("stowed lower foot = %v", lower)
	}
	if !rear.Near(geometry.Pt(-24, 0), 1e-9) {
		t.Errorf("stowed headboard rear = %v", rear)
	}
}

func TestBedframeFloorOpening(t *testing.T) {
	tests := []struct {
		name        string
		x, y, angle float64
		want        float64
	}{
		{"entirely above", 0, 5, 0, 0},
		{"entirely below", 0, -30, 0, 0},
		{"stowed above", 24, 1, 90, 0},
		{"foot below pivot above", 0, 5, -10, 72 * math.Cos(geometry.Rad(-10))},
		{"pivot below foot above", 0, -5, 30, 5 / math.Tan(geometry.Rad(30))},
	}
	b := referenceBedframe(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.X, b.Y, b.Angle = tt.x, tt.y, tt.angle
			if got := b.FloorOpening(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FloorOpening = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBedframeFootOnFloorReportsFootX(t *testing.T) {
	b := referenceBedframe(t)
	// lift the pivot so the lower foot lands exactly on y = 0
	s, c := math.Sincos(geometry.Rad(-30))
	b.X, b.Y, b.Angle = 5, -72*s, -30

	lower, _ := b.Foot()
	if lower.Y != 0 {
		t.Fatalf("lower foot at y = %v, want exactly 0", lower.Y)
	}
	if b.Bounds().Bottom() != 0 {
		t.Fatalf("bottom = %v, want 0", b.Bounds().Bottom())
	}
	if got, want := b.FloorOpening(), 5+72*c; math.Abs(got-want) > 1e-9 {
		t.Errorf("FloorOpening = %v, want %v", got, want)
	}
}

func TestBedframeLocalRegions(t *testing.T) {
	b := referenceBedframe(t)
	if !b.BodyContains(geometry.Pt(10, 2)) {
		t.Error("(10,2) should be on the body")
	}
	if b.BodyContains(geometry.Pt(5, 20)) {
		t.Error("(5,20) is above the mattress")
	}
	if !b.HeadboardContains(geometry.Pt(5, 20)) {
		t.Error("(5,20) should be on the headboard")
	}
	if b.HeadboardContains(geometry.Pt(40, 5)) {
		t.Error("(40,5) is not on the headboard")
	}
}

func TestLinkGeometry(t *testing.T) {
	l := NewLink("A", 1, 2, 10, 4, 90)

	if !l.Distal().Near(geometry.Pt(1, 12), 1e-9) {
		t.Errorf("Distal = %v", l.Distal())
	}
	if !l.CoG().Near(geometry.Pt(1, 7), 1e-9) {
		t.Errorf("CoG = %v", l.CoG())
	}

	edges := l.Edges()
	if !edges[0].A.Near(geometry.Pt(-1, 2), 1e-9) || !edges[1].B.Near(geometry.Pt(3, 12), 1e-9) {
		t.Errorf("Edges = %v", edges)
	}
	for _, e := range edges {
		// the offset is perpendicular, so the pivot end sits half a width away
		if math.Abs(e.A.Distance(l.Pivot)-2) > 1e-9 {
			t.Errorf("edge %v is not half a width from the centreline", e)
		}
	}

	box := l.Bounds()
	if !geometry.Pt(box.Left(), box.Bottom()).Near(geometry.Pt(-1, 0), 1e-9) ||
		!geometry.Pt(box.Right(), box.Top()).Near(geometry.Pt(3, 14), 1e-9) {
		t.Errorf("Bounds = %+v", box)
	}
}

func TestLinkFloorOpeningPolicies(t *testing.T) {
	slanted := 5/math.Tan(geometry.Rad(30)) + 2/math.Sin(geometry.Rad(30))
	tests := []struct {
		name         string
		link         Link
		conservative float64
		footprint    float64
	}{
		{"clear of the floor", NewLink("L", 0, 10, 10, 4, 0), 0, 0},
		{"lying on the floor", NewLink("L", 0, 1, 10, 4, 0), 10 + math.Sqrt(3), 10},
		{"standing through the floor", NewLink("L", 0, -5, 10, 4, 90), 2, 2},
		{"slanted through the floor", NewLink("L", 0, -5, 20, 4, 30), slanted, slanted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.FloorOpening(); math.Abs(got-tt.conservative) > 1e-9 {
				t.Errorf("FloorOpening = %v, want %v", got, tt.conservative)
			}
			if got := tt.link.FloorOpeningBy(ConservativeBound); math.Abs(got-tt.conservative) > 1e-9 {
				t.Errorf("conservative = %v, want %v", got, tt.conservative)
			}
			if got := tt.link.FloorOpeningBy(Footprint); math.Abs(got-tt.footprint) > 1e-9 {
				t.Errorf("footprint = %v, want %v", got, tt.footprint)
			}
		})
	}
}

func TestSnapshotFloorOpeningFollowsPolicy(t *testing.T) {
	b := referenceBedframe(t)
	b.X, b.Y, b.Angle = 24, 5, 90
	m, err := New(b, NewLink("L", 0, 1, 10, 4, 0))
	if err != nil {
		t.Fatal(err)
	}
	s := m.Freeze()
	if got := s.FloorOpeningBy(Footprint); math.Abs(got-10) > 1e-9 {
		t.Errorf("footprint = %v, want 10", got)
	}
	if got := s.FloorOpening(); math.Abs(got-(10+math.Sqrt(3))) > 1e-9 {
		t.Errorf("conservative = %v, want %v", got, 10+math.Sqrt(3))
	}
}

func TestParseFloorOpeningPolicy(t *testing.T) {
	for _, p := range []FloorOpeningPolicy{ConservativeBound, Footprint} {
		got, err := ParseFloorOpeningPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseFloorOpeningPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if got, err := ParseFloorOpeningPolicy(""); err != nil || got != ConservativeBound {
		t.Errorf("empty name = %v, %v", got, err)
	}
	if _, err := ParseFloorOpeningPolicy("exact"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

func TestLinkRoomAttachment(t *testing.T) {
	b := referenceBedframe(t)
	b.X, b.Y, b.Angle = 3, 4, 90
	l := NewLink("A", 0, 0, 10, 2, 0).Attach(10, 2)

	p, ok, err := l.RoomAttachment(b)
	if err != nil || !ok {
		t.Fatalf("RoomAttachment: %v, %v", ok, err)
	}
	if !p.Near(geometry.Pt(1, 14), 1e-9) {
		t.Errorf("RoomAttachment = %v, want (1,14)", p)
	}

	bad := l.Attach(0, 3)
	_, _, err = bad.RoomAttachment(b)
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("zero attachment x should be a GeometryError, got %v", err)
	}
	if !math.IsInf(bad.FitError(b), 1) {
		t.Error("invalid attachment should never look like a good fit")
	}
}

func TestUnattachedLinkHasNoFitError(t *testing.T) {
	b := referenceBedframe(t)
	for angle := -90.0; angle <= 270; angle += 15 {
		l := NewLink("B", 2, -10, 30, 4, angle)
		b.Angle = angle / 3
		if got := l.FitError(b); got != 0 {
			t.Fatalf("FitError = %v at %v deg", got, angle)
		}
		if got, want := l.IkeaError(b, 0.01), 0.01*l.CoG().Y; got != want {
			t.Fatalf("IkeaError = %v, want only the CoG bias %v", got, want)
		}
	}
}

func TestMurphyRejectsBadLinks(t *testing.T) {
	b := referenceBedframe(t)
	if _, err := New(b); err == nil {
		t.Error("expected error with no links")
	}
	if _, err := New(b, NewLink("A", 0, 0, 1, 1, 0), NewLink("A", 0, 0, 1, 1, 0)); err == nil {
		t.Error("expected error on duplicate names")
	}
	if _, err := New(b, NewLink("A", 0, 0, -1, 1, 0)); err == nil {
		t.Error("expected error on negative length")
	}
	if _, err := New(b, NewLink("A", 0, 0, 1, 1, 0).Attach(0, 1)); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected geometry error, got %v", err)
	}
}

func TestMurphyParams(t *testing.T) {
	m := referenceMurphy(t)

	p, err := m.ParseParam("A.attach_x")
	if err != nil {
		t.Fatalf("ParseParam: %v", err)
	}
	if v, _ := m.Get(p); v != 10 {
		t.Errorf("A.attach_x = %v, want 10", v)
	}
	if err := m.Set(p, 12); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m.Links[0].Attachment.X != 12 {
		t.Error("Set did not reach the link")
	}
	if got := m.Label(p); got != "A.attach_x" {
		t.Errorf("Label = %q", got)
	}

	for _, bad := range []string{"B.attach_x", "C.length", "bedframe.length", "A.width", "nodot"} {
		if _, err := m.ParseParam(bad); !errors.Is(err, ErrUnknownParam) {
			t.Errorf("ParseParam(%q) = %v, want ErrUnknownParam", bad, err)
		}
	}
	if err := m.Set(Param{Component: LinkComponent(5), Field: FieldX}, 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("out of range component: %v", err)
	}

	pose := m.PoseParams()
	if len(pose) != 4 || m.Label(pose[0]) != "A.angle" || m.Label(pose[3]) != "bedframe.y" {
		t.Errorf("PoseParams = %v", pose)
	}
	for _, p := range pose {
		if !p.IsPose() {
			t.Errorf("%s should be a pose parameter", m.Label(p))
		}
	}

	menu := m.DesignMenu()
	if len(menu) != 8 {
		t.Fatalf("DesignMenu has %d entries, want 8", len(menu))
	}
	for _, p := range menu {
		if p.IsPose() {
			t.Errorf("%s should not be in the design menu", m.Label(p))
		}
	}
}

func TestFreezeIsIndependent(t *testing.T) {
	m := referenceMurphy(t)
	m.Bed.X, m.Bed.Angle = 3, 45
	snap := m.Freeze()

	m.Bed.X = 99
	m.Links[0].Angle = -30
	m.Links[0].Attachment.X = 50
	m.Links = append(m.Links, NewLink("C", 0, 0, 1, 1, 0))

	if snap.Bedframe().X != 3 || snap.Angle() != 45 {
		t.Errorf("snapshot bedframe changed: %+v", snap.Bedframe())
	}
	if snap.NumLinks() != 2 || snap.Link(0).Angle != 45 || snap.Link(0).Attachment.X != 10 {
		t.Errorf("snapshot links changed: %+v", snap.Links())
	}

	links := snap.Links()
	links[0].Angle = 1
	if snap.Link(0).Angle != 45 {
		t.Error("Links() must return a copy")
	}

	thawed := snap.Murphy()
	thawed.Links[1].Length = 1
	if snap.Link(1).Length != 30 {
		t.Error("thawed Murphy must not alias the snapshot")
	}
}

func TestPoseRoundTrip(t *testing.T) {
	m := referenceMurphy(t)
	pose := Pose{X: 1, Y: 2, Angle: 30, LinkAngles: []float64{10, 20}}
	m.SetPose(pose)
	got := m.Pose()
	if got.X != 1 || got.Y != 2 || got.Angle != 30 || got.LinkAngles[0] != 10 || got.LinkAngles[1] != 20 {
		t.Errorf("Pose = %+v", got)
	}
	got.LinkAngles[0] = 0
	if m.Links[0].Angle != 10 {
		t.Error("Pose must not alias link angles")
	}
}
