package mechanism

import (
	"fmt"
	"math"
)

// Murphy is the live assembly: one bedframe and its links. The solvers
// mutate it in place; Freeze captures a pose that later mutation cannot touch.
type Murphy struct {
	Bed   Bedframe
	Links []Link
}

// New checks the design and takes ownership of copies of its parts.
func New(bed Bedframe, links ...Link) (*Murphy, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("mechanism: at least one link is required")
	}
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		if l.Name == "" {
			return nil, fmt.Errorf("mechanism: every link needs a name")
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("mechanism: duplicate link name %q", l.Name)
		}
		seen[l.Name] = true
	}
	m := &Murphy{Bed: bed, Links: append([]Link(nil), links...)}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every part in its current pose.
func (m *Murphy) Validate() error {
	if err := m.Bed.validate(); err != nil {
		return err
	}
	if err := m.Bed.Verify(); err != nil {
		return err
	}
	for _, l := range m.Links {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IkeaError sums every link's assembly error, CoG bias included.
func (m *Murphy) IkeaError(cogBias float64) float64 {
	total := 0.0
	for _, l := range m.Links {
		total += l.IkeaError(m.Bed, cogBias)
	}
	return total
}

// FitError sums the pure pin errors.
func (m *Murphy) FitError() float64 {
	total := 0.0
	for _, l := range m.Links {
		total += l.FitError(m.Bed)
	}
	return total
}

// WorstFit is the largest single-link pin error.
func (m *Murphy) WorstFit() float64 {
	worst := 0.0
	for _, l := range m.Links {
		worst = math.Max(worst, l.FitError(m.Bed))
	}
	return worst
}

// LinkIndex returns the position of the named link, or -1.
func (m *Murphy) LinkIndex(name string) int {
	for i, l := range m.Links {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// Pose is the part of the state the assembly solver moves.
type Pose struct {
	X          float64   `json:"x" yaml:"x"`
	Y          float64   `json:"y" yaml:"y"`
	Angle      float64   `json:"angle" yaml:"angle"`
	LinkAngles []float64 `json:"link_angles" yaml:"link_angles"`
}

func (m *Murphy) Pose() Pose {
	p := Pose{X: m.Bed.X, Y: m.Bed.Y, Angle: m.Bed.Angle, LinkAngles: make([]float64, len(m.Links))}
	for i, l := range m.Links {
		p.LinkAngles[i] = l.Angle
	}
	return p
}

// SetPose moves the assembly. Link angles missing from p are left alone.
func (m *Murphy) SetPose(p Pose) {
	m.Bed.X, m.Bed.Y, m.Bed.Angle = p.X, p.Y, p.Angle
	for i := range m.Links {
		if i < len(p.LinkAngles) {
			m.Links[i].Angle = p.LinkAngles[i]
		}
	}
}

// Clone returns an independent live copy.
func (m *Murphy) Clone() *Murphy {
	return &Murphy{Bed: m.Bed, Links: append([]Link(nil), m.Links...)}
}

func (m *Murphy) Freeze() Snapshot {
	return Snapshot{bed: m.Bed, links: append([]Link(nil), m.Links...)}
}
