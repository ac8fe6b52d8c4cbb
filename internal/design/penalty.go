package design

import (
	"fmt"
	"math"

	"github.com/san-kum/murphybed/internal/mechanism"
)

// NumTerms is the length of the murphy-error vector.
const NumTerms = 10

const (
	TermDeployedHeight = iota
	TermDeployedWall
	TermStowedFlush
	TermStowedHeight
	TermOutOfHouse
	TermStowedEncroachment
	TermDeployedEncroachment
	TermFloorOpening
	TermBuildability
	TermAttachment
)

var termNames = [NumTerms]string{
	"deployed_height",
	"deployed_wall",
	"stowed_flush",
	"stowed_height",
	"out_of_house",
	"stowed_encroachment",
	"deployed_encroachment",
	"floor_opening",
	"buildability",
	"attachment",
}

// TermNames lists the terms in vector order.
func TermNames() []string { return append([]string(nil), termNames[:]...) }

// Balance divides each term before summing. Larger weights make a goal
// matter less.
type Balance [NumTerms]float64

func DefaultBalance() Balance {
	var b Balance
	for i := range b {
		b[i] = 1
	}
	return b
}

func (b Balance) Validate() error {
	for i, w := range b {
		if !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("design: balance for %s must be positive, got %v", termNames[i], w)
		}
	}
	return nil
}

// Targets are the heights the finished bed should reach.
type Targets struct {
	DeployedHeight float64 `json:"deployed_height" yaml:"deployed_height"`
	StowedHeight   float64 `json:"stowed_height" yaml:"stowed_height"`
}

// Breakdown is one murphy-error evaluation. Raw holds the squared terms,
// Weighted the same terms after balancing.
type Breakdown struct {
	Raw      [NumTerms]float64
	Weighted [NumTerms]float64
}

func (b Breakdown) Total() float64 {
	total := 0.0
	for _, v := range b.Weighted {
		total += v
	}
	return total
}

// Terms returns the weighted vector.
func (b Breakdown) Terms() []float64 { return append([]float64(nil), b.Weighted[:]...) }

func (b Breakdown) Named() map[string]float64 {
	out := make(map[string]float64, NumTerms)
	for i, v := range b.Weighted {
		out[termNames[i]] = v
	}
	return out
}

func sq(v float64) float64 { return v * v }

// MurphyError scores the committed sweep. Both the deployed and the stowed
// pose must be cached.
func (b *Bed) MurphyError() (Breakdown, error) {
	var missing []float64
	deployed, ok := b.cache[Deployed]
	if !ok {
		missing = append(missing, Deployed)
	}
	stowed, ok := b.cache[Stowed]
	if !ok {
		missing = append(missing, Stowed)
	}
	if missing != nil {
		return Breakdown{}, &PrerequisiteError{Missing: missing}
	}

	var raw [NumTerms]float64
	db, sb := deployed.Bedframe(), stowed.Bedframe()

	raw[TermDeployedHeight] = sq(db.Y + db.Thickness() - b.targets.DeployedHeight)
	raw[TermDeployedWall] = sq(db.X)
	raw[TermStowedFlush] = sq(sb.X - db.HeadHeight())
	raw[TermStowedHeight] = sq(sb.Y + db.Length() - b.targets.StowedHeight)

	left, opening, worstFit := 0.0, 0.0, 0.0
	for _, s := range b.cache {
		left = math.Min(left, s.Left())
		opening = math.Max(opening, s.FloorOpeningBy(b.floor))
		worstFit = math.Max(worstFit, s.WorstFit())
	}
	raw[TermOutOfHouse] = sq(left)
	raw[TermStowedEncroachment] = stowedEncroachment(stowed)
	raw[TermDeployedEncroachment] = deployedEncroachment(deployed)
	raw[TermFloorOpening] = sq(math.Max(0, opening-sb.X))
	raw[TermBuildability] = sq(worstFit)
	raw[TermAttachment] = attachmentPenalty(b.murphy)

	out := Breakdown{Raw: raw}
	for i, v := range raw {
		out.Weighted[i] = v / b.balance[i]
	}
	return out, nil
}

// stowedEncroachment penalises links that are above the floor and reach
// further into the room than the stowed bedframe face.
func stowedEncroachment(s mechanism.Snapshot) float64 {
	face := s.Bedframe().X
	worst := 0.0
	for _, l := range s.Links() {
		box := l.Bounds()
		if box.Top() <= 0 {
			continue
		}
		worst = math.Max(worst, box.Right()-face)
	}
	return sq(worst)
}

// deployedEncroachment penalises links standing above the mattress or past
// the foot of the deployed bed.
func deployedEncroachment(s mechanism.Snapshot) float64 {
	bed := s.Bedframe()
	surface := bed.Y + bed.Thickness()
	lower, _ := bed.Foot()
	worst := 0.0
	for _, l := range s.Links() {
		box := l.Bounds()
		worst = math.Max(worst, box.Top()-surface)
		worst = math.Max(worst, box.Right()-lower.X)
	}
	return sq(worst)
}

// attachmentPenalty charges every attachment that is on neither the body
// nor the headboard by its squared distance from the frame's CoG.
func attachmentPenalty(m *mechanism.Murphy) float64 {
	cog := m.Bed.LocalCoG()
	total := 0.0
	for _, l := range m.Links {
		if !l.Attached || m.Bed.BodyContains(l.Attachment) || m.Bed.HeadboardContains(l.Attachment) {
			continue
		}
		total += cog.DistanceSq(l.Attachment)
	}
	return total
}
