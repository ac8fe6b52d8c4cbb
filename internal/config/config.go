package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/murphybed/internal/assembly"
	"github.com/san-kum/murphybed/internal/design"
	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/optim"
	"github.com/san-kum/murphybed/internal/search"
)

const (
	DefaultAngles          = 10
	DefaultIterations      = 100
	DefaultCheckpointEvery = 10
	DefaultCoGBias         = 1e-3
)

type Config struct {
	Bedframe mechanism.BedframeSpec `yaml:"bedframe"`
	Links    []LinkConfig           `yaml:"links"`
	Seed     SeedConfig             `yaml:"seed"`
	Targets  design.Targets         `yaml:"targets"`
	Assembly AssemblyConfig         `yaml:"assembly"`
	Sweep    SweepConfig            `yaml:"sweep"`
	Search   SearchConfig           `yaml:"search"`
	// Balance overrides per-term weights by name, e.g. floor_opening: 10.
	Balance map[string]float64 `yaml:"balance,omitempty"`
}

type LinkConfig struct {
	Name       string       `yaml:"name"`
	X          float64      `yaml:"x"`
	Y          float64      `yaml:"y"`
	Length     float64      `yaml:"length"`
	Width      float64      `yaml:"width"`
	Angle      float64      `yaml:"angle"`
	Attachment *PointConfig `yaml:"attachment,omitempty"`
}

type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SeedConfig is where the bedframe starts before the first angle of a
// sweep is solved. Link angles come from the links themselves.
type SeedConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type OptimConfig struct {
	Scheme       string  `yaml:"scheme"`
	StepUp       float64 `yaml:"step_up"`
	StepDown     float64 `yaml:"step_down"`
	LearningRate float64 `yaml:"learning_rate"`
	MaxStep      float64 `yaml:"max_step"`
	MaxRounds    int     `yaml:"max_rounds"`
	Threshold    float64 `yaml:"threshold"`
	Backtrack    int     `yaml:"backtrack"`
}

type AssemblyConfig struct {
	OptimConfig `yaml:",inline"`
	CoGBias     float64 `yaml:"cog_bias"`
}

type SweepConfig struct {
	Angles    int  `yaml:"angles"`
	WarmStart bool `yaml:"warm_start"`
	// FloorPolicy is "conservative" (default) or "footprint".
	FloorPolicy string `yaml:"floor_policy,omitempty"`
}

type SearchConfig struct {
	Iterations      int         `yaml:"iterations"`
	Strategy        string      `yaml:"strategy"`
	Seed            uint64      `yaml:"seed"`
	CheckpointEvery int         `yaml:"checkpoint_every"`
	Target          float64     `yaml:"target"`
	Menu            []string    `yaml:"menu,omitempty"`
	Optim           OptimConfig `yaml:"optim"`
}

func fromOptim(c optim.Config) OptimConfig {
	return OptimConfig{
		Scheme:       c.Scheme.String(),
		StepUp:       c.StepUp,
		StepDown:     c.StepDown,
		LearningRate: c.LearningRate,
		MaxStep:      c.MaxStep,
		MaxRounds:    c.MaxRounds,
		Threshold:    c.Threshold,
		Backtrack:    c.Backtrack,
	}
}

func (o OptimConfig) Optim() (optim.Config, error) {
	scheme, err := optim.ParseScheme(o.Scheme)
	if err != nil {
		return optim.Config{}, err
	}
	c := optim.Config{
		Scheme:       scheme,
		StepUp:       o.StepUp,
		StepDown:     o.StepDown,
		LearningRate: o.LearningRate,
		MaxStep:      o.MaxStep,
		MaxRounds:    o.MaxRounds,
		Threshold:    o.Threshold,
		Backtrack:    o.Backtrack,
	}
	return c, c.Validate()
}

func referenceLinks() []LinkConfig {
	return []LinkConfig{
		{Name: "A", X: 0, Y: 5, Length: 12, Width: 4, Angle: 45, Attachment: &PointConfig{X: 10, Y: 2}},
		{Name: "B", X: 2, Y: -10, Length: 30, Width: 4, Angle: 20},
	}
}

func DefaultConfig() *Config {
	sc := search.DefaultConfig()
	return &Config{
		Bedframe: mechanism.BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10},
		Links:    referenceLinks(),
		Targets:  design.Targets{DeployedHeight: 20, StowedHeight: 84},
		Assembly: AssemblyConfig{OptimConfig: fromOptim(optim.DefaultConfig()), CoGBias: DefaultCoGBias},
		Sweep:    SweepConfig{Angles: DefaultAngles, WarmStart: true},
		Search: SearchConfig{
			Iterations:      DefaultIterations,
			Strategy:        sc.Strategy.String(),
			Seed:            sc.Seed,
			CheckpointEvery: DefaultCheckpointEvery,
			Optim:           fromOptim(sc.Optim),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// a file that lists links replaces the defaults rather than merging
	cfg.Links = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if len(cfg.Links) == 0 {
		cfg.Links = referenceLinks()
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone deep-copies c.
func (c *Config) Clone() *Config {
	out := *c
	out.Links = make([]LinkConfig, len(c.Links))
	for i, l := range c.Links {
		if l.Attachment != nil {
			p := *l.Attachment
			l.Attachment = &p
		}
		out.Links[i] = l
	}
	out.Search.Menu = append([]string(nil), c.Search.Menu...)
	if c.Balance != nil {
		out.Balance = make(map[string]float64, len(c.Balance))
		for k, v := range c.Balance {
			out.Balance[k] = v
		}
	}
	return &out
}

// Murphy builds the live assembly at the seed pose, deployed.
func (c *Config) Murphy() (*mechanism.Murphy, error) {
	bed, err := mechanism.NewBedframe(c.Bedframe)
	if err != nil {
		return nil, err
	}
	bed.X, bed.Y = c.Seed.X, c.Seed.Y
	links := make([]mechanism.Link, len(c.Links))
	for i, lc := range c.Links {
		l := mechanism.NewLink(lc.Name, lc.X, lc.Y, lc.Length, lc.Width, lc.Angle)
		if lc.Attachment != nil {
			l = l.Attach(lc.Attachment.X, lc.Attachment.Y)
		}
		links[i] = l
	}
	return mechanism.New(bed, links...)
}

func (c *Config) AssemblyConfig() (assembly.Config, error) {
	oc, err := c.Assembly.Optim()
	if err != nil {
		return assembly.Config{}, fmt.Errorf("assembly: %w", err)
	}
	return assembly.Config{Optim: oc, CoGBias: c.Assembly.CoGBias}, nil
}

func (c *Config) BalanceVector() (design.Balance, error) {
	b := design.DefaultBalance()
	names := design.TermNames()
	for name, w := range c.Balance {
		found := false
		for i, n := range names {
			if n == name {
				b[i], found = w, true
				break
			}
		}
		if !found {
			return b, fmt.Errorf("balance: unknown term %q", name)
		}
	}
	return b, b.Validate()
}

func (c *Config) Angles() ([]float64, error) {
	return design.Angles(c.Sweep.Angles)
}

func (c *Config) SearchConfig() (search.Config, error) {
	oc, err := c.Search.Optim.Optim()
	if err != nil {
		return search.Config{}, fmt.Errorf("search: %w", err)
	}
	strategy, err := search.ParseStrategy(c.Search.Strategy)
	if err != nil {
		return search.Config{}, err
	}
	angles, err := c.Angles()
	if err != nil {
		return search.Config{}, err
	}
	return search.Config{
		Iterations:      c.Search.Iterations,
		Optim:           oc,
		Menu:            append([]string(nil), c.Search.Menu...),
		Strategy:        strategy,
		Seed:            c.Search.Seed,
		CheckpointEvery: c.Search.CheckpointEvery,
		Target:          c.Search.Target,
		Angles:          angles,
	}, nil
}

// Bed wires the assembly, solver and design options into a design.Bed.
func (c *Config) Bed(log *slog.Logger) (*design.Bed, error) {
	m, err := c.Murphy()
	if err != nil {
		return nil, err
	}
	ac, err := c.AssemblyConfig()
	if err != nil {
		return nil, err
	}
	solver, err := assembly.New(ac, log)
	if err != nil {
		return nil, err
	}
	balance, err := c.BalanceVector()
	if err != nil {
		return nil, err
	}
	floor, err := mechanism.ParseFloorOpeningPolicy(c.Sweep.FloorPolicy)
	if err != nil {
		return nil, err
	}
	opts := design.Options{Targets: c.Targets, Balance: balance, WarmStart: c.Sweep.WarmStart, FloorPolicy: floor}
	return design.New(m, solver, opts, log)
}

// Validate builds every part once and reports the first problem.
func (c *Config) Validate() error {
	if _, err := c.Bed(slog.New(slog.DiscardHandler)); err != nil {
		return err
	}
	_, err := c.SearchConfig()
	return err
}
