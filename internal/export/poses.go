// Package export renders resolved poses and search histories to image
// files (png, svg or pdf, picked by extension) with gonum/plot.
package export

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/murphybed/internal/geometry"
	"github.com/san-kum/murphybed/internal/mechanism"
)

// Size is the long side of a saved figure.
const Size = 8 * vg.Inch

var (
	roomColor   = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	boxColor    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	cogColor    = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	floorColor  = color.RGBA{R: 30, G: 120, B: 220, A: 255}
	attachColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// poseMarks are the annotations drawn over the outlines: where components
// cross the floor, where attached links should reach, the tether from each
// link tip to that point, and each pose's bounding box.
type poseMarks struct {
	floor   []geometry.Point
	attach  []geometry.Point
	tethers []geometry.Segment
	boxes   []geometry.Box
}

func marks(sweep []mechanism.Snapshot) poseMarks {
	var pm poseMarks
	for _, s := range sweep {
		bed := s.Bedframe()
		pm.boxes = append(pm.boxes, s.Bounds())
		if x := bed.FloorOpening(); x > 0 {
			pm.floor = append(pm.floor, geometry.Pt(x, 0))
		}
		for _, l := range s.Links() {
			if x := l.FloorOpening(); x > 0 {
				pm.floor = append(pm.floor, geometry.Pt(x, 0))
			}
			target, ok, err := l.RoomAttachment(bed)
			if err != nil || !ok {
				continue
			}
			pm.attach = append(pm.attach, target)
			pm.tethers = append(pm.tethers, geometry.Seg(l.Distal(), target))
		}
	}
	return pm
}

func scatter(pts []geometry.Point, c color.Color, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	sc, err := plotter.NewScatter(xys(pts))
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Shape = shape
	sc.GlyphStyle.Radius = vg.Points(3)
	return sc, nil
}

func xys(pts []geometry.Point) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, p := range pts {
		out[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return out
}

func outline(pg geometry.Polygon, c color.Color, width vg.Length) (*plotter.Line, error) {
	line, err := plotter.NewLine(xys(pg.Closed()))
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = width
	return line, nil
}

// Poses draws every snapshot over the wall and floor, one color per angle,
// with the bedframe CoG, floor crossings and attachment targets marked.
func Poses(title string, sweep []mechanism.Snapshot) (*plot.Plot, error) {
	if len(sweep) == 0 {
		return nil, fmt.Errorf("export: no poses to draw")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (in)"
	p.Y.Label.Text = "y (in)"
	p.Add(plotter.NewGrid())

	pm := marks(sweep)
	box := geometry.BoxOf(geometry.Pt(0, 0))
	for _, s := range sweep {
		box = box.Union(s.Bounds())
	}
	if len(pm.attach) > 0 {
		box = box.Union(geometry.BoxOf(pm.attach...))
	}
	box = box.Expand(4)

	wall, err := outline(geometry.Polygon{geometry.Pt(0, box.Bottom()), geometry.Pt(0, box.Top())}, roomColor, vg.Points(2))
	if err != nil {
		return nil, err
	}
	floor, err := outline(geometry.Polygon{geometry.Pt(box.Left(), 0), geometry.Pt(box.Right(), 0)}, roomColor, vg.Points(2))
	if err != nil {
		return nil, err
	}
	p.Add(wall, floor)

	for _, b := range pm.boxes {
		frame, err := outline(b.Corners(), boxColor, vg.Points(0.5))
		if err != nil {
			return nil, err
		}
		p.Add(frame)
	}

	cogs := make([]geometry.Point, 0, len(sweep))
	for i, s := range sweep {
		c := plotutil.Color(i)
		bed, err := outline(s.Bedframe().Outline(), c, vg.Points(1.5))
		if err != nil {
			return nil, err
		}
		p.Add(bed)
		p.Legend.Add(fmt.Sprintf("%g°", s.Angle()), bed)
		for _, l := range s.Links() {
			link, err := outline(l.Outline(), c, vg.Points(1))
			if err != nil {
				return nil, err
			}
			link.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(link)
		}
		cogs = append(cogs, s.Bedframe().CoG())
	}

	for _, t := range pm.tethers {
		tether, err := outline(geometry.Polygon{t.A, t.B}, attachColor, vg.Points(0.75))
		if err != nil {
			return nil, err
		}
		tether.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(tether)
	}

	sc, err := scatter(cogs, cogColor, draw.CircleGlyph{})
	if err != nil {
		return nil, err
	}
	p.Add(sc)
	p.Legend.Add("CoG", sc)

	if len(pm.floor) > 0 {
		fl, err := scatter(pm.floor, floorColor, draw.TriangleGlyph{})
		if err != nil {
			return nil, err
		}
		p.Add(fl)
		p.Legend.Add("floor crossing", fl)
	}
	if len(pm.attach) > 0 {
		at, err := scatter(pm.attach, attachColor, draw.CrossGlyph{})
		if err != nil {
			return nil, err
		}
		p.Add(at)
		p.Legend.Add("attachment", at)
	}
	p.Legend.Top = true

	p.X.Min, p.X.Max = box.Left(), box.Right()
	p.Y.Min, p.Y.Max = box.Bottom(), box.Top()
	return p, nil
}

// Figure returns a width and height that keep the plotted box's aspect
// ratio with the long side at Size.
func Figure(p *plot.Plot) (vg.Length, vg.Length) {
	w := p.X.Max - p.X.Min
	h := p.Y.Max - p.Y.Min
	if w <= 0 || h <= 0 || math.IsNaN(w/h) {
		return Size, Size * 3 / 4
	}
	if w >= h {
		return Size, Size * vg.Length(h/w)
	}
	return Size * vg.Length(w/h), Size
}

// SavePoses renders the sweep to path.
func SavePoses(path, title string, sweep []mechanism.Snapshot) error {
	p, err := Poses(title, sweep)
	if err != nil {
		return err
	}
	w, h := Figure(p)
	// keep room for axes and the legend on very flat figures
	h = vg.Length(math.Max(float64(h), float64(3*vg.Inch)))
	w = vg.Length(math.Max(float64(w), float64(3*vg.Inch)))
	return p.Save(w, h, path)
}
