package config

import (
	"sort"

	"github.com/san-kum/murphybed/internal/mechanism"
)

// Presets are starting designs for common bed sizes.
var Presets = map[string]*Config{
	"reference": DefaultConfig(),
	"compact":   compact(),
	"tall":      tall(),
}

func compact() *Config {
	cfg := DefaultConfig()
	cfg.Bedframe = mechanism.BedframeSpec{Thickness: 8, Length: 60, HeadHeight: 20, HeadDepth: 8}
	cfg.Targets.DeployedHeight = 16
	cfg.Targets.StowedHeight = 70
	cfg.Links[0].Length = 10
	cfg.Links[0].Attachment = &PointConfig{X: 8, Y: 2}
	cfg.Links[1].Length = 24
	return cfg
}

func tall() *Config {
	cfg := DefaultConfig()
	cfg.Bedframe = mechanism.BedframeSpec{Thickness: 12, Length: 80, HeadHeight: 30, HeadDepth: 12}
	cfg.Targets.DeployedHeight = 24
	cfg.Targets.StowedHeight = 96
	cfg.Links[0].Length = 14
	cfg.Links[0].Attachment = &PointConfig{X: 12, Y: 3}
	cfg.Links[1].Length = 34
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
