// Package storage keeps search runs on disk: one directory per run holding
// metadata.json, checkpoint.json, sweep.csv and history.csv.
package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/murphybed/internal/config"
	"github.com/san-kum/murphybed/internal/metrics"
	"github.com/san-kum/murphybed/internal/search"
)

const (
	metadataFile   = "metadata.json"
	checkpointFile = "checkpoint.json"
	sweepFile      = "sweep.csv"
	historyFile    = "history.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Created   time.Time          `json:"created"`
	Updated   time.Time          `json:"updated"`
	Iteration int                `json:"iteration"`
	Best      float64            `json:"best"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Checkpoint is the full resumable state of a run.
type Checkpoint struct {
	Run    RunMetadata    `json:"run"`
	Config *config.Config `json:"config"`
	State  search.State   `json:"state"`
}

// Run writes checkpoints for one search. It satisfies search.Checkpointer.
type Run struct {
	store   *Store
	meta    RunMetadata
	cfg     *config.Config
	metrics metrics.Set
}

// Create starts a new run directory with a fresh id.
func (s *Store) Create(preset string, cfg *config.Config) (*Run, error) {
	now := time.Now().UTC()
	meta := RunMetadata{ID: uuid.NewString(), Preset: preset, Created: now, Updated: now}
	if err := os.MkdirAll(s.runDir(meta.ID), 0755); err != nil {
		return nil, err
	}
	return &Run{store: s, meta: meta, cfg: cfg.Clone()}, nil
}

// Resume reopens a run so further checkpoints land in the same directory.
func (s *Store) Resume(id string) (*Run, *Checkpoint, error) {
	cp, err := s.Load(id)
	if err != nil {
		return nil, nil, err
	}
	return &Run{store: s, meta: cp.Run, cfg: cp.Config}, cp, nil
}

func (r *Run) ID() string { return r.meta.ID }

func (r *Run) Config() *config.Config { return r.cfg }

// Track attaches metrics whose values are recorded with each checkpoint.
func (r *Run) Track(m metrics.Set) { r.metrics = m }

func (r *Run) Checkpoint(ctx context.Context, st search.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.meta.Updated = time.Now().UTC()
	r.meta.Iteration = st.Iteration
	r.meta.Best = st.Best
	if r.metrics != nil {
		r.meta.Metrics = r.metrics.Values()
	}
	dir := r.store.runDir(r.meta.ID)

	if err := writeJSON(filepath.Join(dir, checkpointFile), Checkpoint{Run: r.meta, Config: r.cfg, State: st}); err != nil {
		return fmt.Errorf("checkpoint %s: %w", r.meta.ID, err)
	}
	if err := writeCSV(filepath.Join(dir, sweepFile), sweepRecords(st)); err != nil {
		return fmt.Errorf("checkpoint %s: %w", r.meta.ID, err)
	}
	if err := writeCSV(filepath.Join(dir, historyFile), historyRecords(st.History)); err != nil {
		return fmt.Errorf("checkpoint %s: %w", r.meta.ID, err)
	}
	// metadata goes last so List never sees a run without its checkpoint
	return writeJSON(filepath.Join(dir, metadataFile), r.meta)
}

func (s *Store) runDir(id string) string { return filepath.Join(s.baseDir, id) }

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func writeCSV(path string, records [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Created.Before(runs[j].Created) })
	return runs, nil
}

// Find expands a unique id prefix. "latest" names the newest run.
func (s *Store) Find(prefix string) (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if prefix == "latest" {
		if len(runs) == 0 {
			return "", ErrRunNotFound
		}
		return runs[len(runs)-1].ID, nil
	}
	var match string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("storage: %q matches more than one run", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), checkpointFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", runID, err)
	}
	return &cp, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
