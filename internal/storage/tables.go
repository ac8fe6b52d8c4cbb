package storage

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/san-kum/murphybed/internal/search"
)

// SweepRow is one cached pose as written to sweep.csv.
type SweepRow struct {
	Angle        float64
	X, Y         float64
	LinkAngles   []float64
	LinkFit      []float64
	FloorOpening float64
	Left         float64
}

func sweepRecords(st search.State) [][]string {
	cache := st.Bed.Cache
	header := []string{"angle", "bed_x", "bed_y"}
	if len(cache) > 0 {
		for _, l := range cache[0].Links() {
			header = append(header, l.Name+"_angle")
		}
		for _, l := range cache[0].Links() {
			header = append(header, l.Name+"_fit")
		}
	}
	header = append(header, "floor_opening", "left")

	records := [][]string{header}
	for _, snap := range cache {
		bed := snap.Bedframe()
		row := []string{ftoa(snap.Angle()), ftoa(bed.X), ftoa(bed.Y)}
		links := snap.Links()
		for _, l := range links {
			row = append(row, ftoa(l.Angle))
		}
		for _, l := range links {
			row = append(row, ftoa(l.FitError(bed)))
		}
		row = append(row, ftoa(snap.FloorOpening()), ftoa(snap.Left()))
		records = append(records, row)
	}
	return records
}

func historyRecords(history []search.Iteration) [][]string {
	records := [][]string{{"index", "param", "value", "step", "before", "after", "accepted", "failures", "err"}}
	for _, it := range history {
		records = append(records, []string{
			strconv.Itoa(it.Index),
			it.Param,
			ftoa(it.Value),
			ftoa(it.Step),
			ftoa(it.Before),
			ftoa(it.After),
			strconv.FormatBool(it.Accepted),
			strconv.Itoa(it.Failures),
			it.Err,
		})
	}
	return records
}

func (s *Store) LoadSweep(runID string) ([]SweepRow, error) {
	records, err := readCSV(filepath.Join(s.runDir(runID), sweepFile))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []SweepRow{}, nil
	}

	// angle, bed_x, bed_y, n link angles, n fits, floor_opening, left
	n := (len(records[0]) - 5) / 2
	rows := make([]SweepRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 5+2*n {
			return nil, fmt.Errorf("sweep.csv line %d: want %d fields, got %d", i+2, 5+2*n, len(rec))
		}
		vals := make([]float64, len(rec))
		for j, f := range rec {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("sweep.csv line %d: %w", i+2, err)
			}
			vals[j] = v
		}
		rows = append(rows, SweepRow{
			Angle:        vals[0],
			X:            vals[1],
			Y:            vals[2],
			LinkAngles:   vals[3 : 3+n],
			LinkFit:      vals[3+n : 3+2*n],
			FloorOpening: vals[3+2*n],
			Left:         vals[4+2*n],
		})
	}
	return rows, nil
}

func (s *Store) LoadHistory(runID string) ([]search.Iteration, error) {
	records, err := readCSV(filepath.Join(s.runDir(runID), historyFile))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []search.Iteration{}, nil
	}

	history := make([]search.Iteration, 0, len(records)-1)
	for i, rec := range records[1:] {
		it, err := parseIteration(rec)
		if err != nil {
			return nil, fmt.Errorf("history.csv line %d: %w", i+2, err)
		}
		history = append(history, it)
	}
	return history, nil
}

func parseIteration(rec []string) (search.Iteration, error) {
	var it search.Iteration
	if len(rec) != 9 {
		return it, fmt.Errorf("want 9 fields, got %d", len(rec))
	}
	var err error
	if it.Index, err = strconv.Atoi(rec[0]); err != nil {
		return it, err
	}
	it.Param = rec[1]
	floats := []*float64{&it.Value, &it.Step, &it.Before, &it.After}
	for j, p := range floats {
		if *p, err = strconv.ParseFloat(rec[2+j], 64); err != nil {
			return it, err
		}
	}
	if it.Accepted, err = strconv.ParseBool(rec[6]); err != nil {
		return it, err
	}
	if it.Failures, err = strconv.Atoi(rec[7]); err != nil {
		return it, err
	}
	it.Err = rec[8]
	return it, nil
}
