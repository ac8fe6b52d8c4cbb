package mechanism

import (
	"encoding/json"

	"github.com/san-kum/murphybed/internal/geometry"
)

// Snapshot is a frozen, fully resolved pose. It shares no storage with the
// Murphy it came from: accessors hand out copies.
type Snapshot struct {
	bed   Bedframe
	links []Link
}

func (s Snapshot) Bedframe() Bedframe { return s.bed }

func (s Snapshot) Angle() float64 { return s.bed.Angle }

func (s Snapshot) NumLinks() int { return len(s.links) }

func (s Snapshot) Link(i int) Link { return s.links[i] }

func (s Snapshot) Links() []Link { return append([]Link(nil), s.links...) }

// Murphy thaws the snapshot into a new live assembly.
func (s Snapshot) Murphy() *Murphy {
	return &Murphy{Bed: s.bed, Links: s.Links()}
}

func (s Snapshot) FitError() float64 { return s.Murphy().FitError() }

func (s Snapshot) WorstFit() float64 { return s.Murphy().WorstFit() }

// Bounds covers every component.
func (s Snapshot) Bounds() geometry.Box {
	box := s.bed.Bounds()
	for _, l := range s.links {
		box = box.Union(l.Bounds())
	}
	return box
}

// Left is the smallest x reached by any component.
func (s Snapshot) Left() float64 { return s.Bounds().Left() }

// FloorOpening is FloorOpeningBy(ConservativeBound).
func (s Snapshot) FloorOpening() float64 { return s.FloorOpeningBy(ConservativeBound) }

// FloorOpeningBy is the largest floor crossing of any component, links
// measured with policy.
func (s Snapshot) FloorOpeningBy(policy FloorOpeningPolicy) float64 {
	worst := s.bed.FloorOpening()
	for _, l := range s.links {
		if o := l.FloorOpeningBy(policy); o > worst {
			worst = o
		}
	}
	return worst
}

type snapshotJSON struct {
	Bedframe Bedframe `json:"bedframe"`
	Links    []Link   `json:"links"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{Bedframe: s.bed, Links: s.links})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var rec snapshotJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	s.bed, s.links = rec.Bedframe, rec.Links
	return nil
}
