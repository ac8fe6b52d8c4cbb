package viz

import (
	"math"
	"strings"

	"github.com/san-kum/murphybed/internal/geometry"
	"github.com/san-kum/murphybed/internal/mechanism"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	view          geometry.Box
	scale         float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	c.Frame(geometry.BoxOf(geometry.Pt(0, 0), geometry.Pt(1, 1)))
	return c
}

// Set lights a dot at (x, y) in sub-pixel coordinates. The canvas is
// Width*2 by Height*4 sub-pixels, y pointing down.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Frame fits the room-space box into the canvas, keeping the aspect ratio.
// Braille dots are roughly square so one scale serves both axes.
func (c *Canvas) Frame(box geometry.Box) {
	c.view = box
	sx := float64(c.Width*2-1) / math.Max(box.Width(), 1e-9)
	sy := float64(c.Height*4-1) / math.Max(box.Height(), 1e-9)
	c.scale = math.Min(sx, sy)
}

// Project maps a room point to sub-pixel coordinates.
func (c *Canvas) Project(p geometry.Point) (int, int) {
	x := (p.X - c.view.Left()) * c.scale
	y := (c.view.Top() - p.Y) * c.scale
	return int(math.Round(x)), int(math.Round(y))
}

func (c *Canvas) DrawSegment(s geometry.Segment) {
	x0, y0 := c.Project(s.A)
	x1, y1 := c.Project(s.B)
	c.DrawLine(x0, y0, x1, y1)
}

func (c *Canvas) DrawPolygon(pg geometry.Polygon) {
	pts := pg.Closed()
	for i := 1; i < len(pts); i++ {
		c.DrawSegment(geometry.Seg(pts[i-1], pts[i]))
	}
}

// DrawSnapshot draws the bedframe, each link outline, the wall (x = 0)
// and the floor (y = 0) when they are in view.
func (c *Canvas) DrawSnapshot(s mechanism.Snapshot) {
	v := c.view
	if v.Left() <= 0 && v.Right() >= 0 {
		c.DrawSegment(geometry.Seg(geometry.Pt(0, v.Bottom()), geometry.Pt(0, v.Top())))
	}
	if v.Bottom() <= 0 && v.Top() >= 0 {
		c.DrawSegment(geometry.Seg(geometry.Pt(v.Left(), 0), geometry.Pt(v.Right(), 0)))
	}
	c.DrawPolygon(s.Bedframe().Outline())
	for _, l := range s.Links() {
		c.DrawPolygon(l.Outline())
	}
}

// Extent is the box that holds every snapshot plus the wall and floor.
func Extent(snaps []mechanism.Snapshot) geometry.Box {
	box := geometry.BoxOf(geometry.Pt(0, 0))
	for _, s := range snaps {
		box = box.Union(s.Bounds())
	}
	return box.Expand(2)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
