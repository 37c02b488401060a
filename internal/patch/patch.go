// Package patch loads a graph topology from a YAML description, the
// role cmd/graphbench needs a config format for (the teacher has no
// equivalent since ROMs are binary, so this follows gopkg.in/yaml.v3's
// own idiomatic struct-tag decoding rather than any one teacher file).
package patch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/units"
)

// Config is the on-disk shape of a patch file.
type Config struct {
	SampleRate   int            `yaml:"sample_rate"`
	MaxBlockSize int            `yaml:"max_block_size"`
	Units        []UnitConfig   `yaml:"units"`
	Connections  []ConnConfig   `yaml:"connections"`
}

// UnitConfig describes one node to add to the graph. Kind selects which
// units.NewXxx constructor runs; the remaining fields are interpreted
// according to Kind and left zero otherwise.
type UnitConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	Frequency float32 `yaml:"frequency"`
	Duty      float32 `yaml:"duty"`
	Seed      uint16  `yaml:"seed"`
	Level     float32 `yaml:"level"`

	Attack  int64   `yaml:"attack"`
	Decay   int64   `yaml:"decay"`
	Hold    int64   `yaml:"hold"`
	Release int64   `yaml:"release"`
	Peak    float32 `yaml:"peak"`
	Sustain float32 `yaml:"sustain"`

	Reflect    bool    `yaml:"reflect"`
	PeakTime   float32 `yaml:"peak_time"`
	HalfHeight float32 `yaml:"half_height"`
	ZeroWait   float32 `yaml:"zero_wait"`

	From     float32 `yaml:"from"`
	To       float32 `yaml:"to"`
	Duration int64   `yaml:"duration"`
}

// ConnConfig wires one unit's output channel to another's input channel.
type ConnConfig struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Channel int    `yaml:"channel"`
}

// Load reads and parses a patch file from disk.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patch: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("patch: parse %s: %w", path, err)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.MaxBlockSize == 0 {
		cfg.MaxBlockSize = 256
	}
	return &cfg, nil
}

// Build constructs a graph from cfg, adding every unit in order and then
// wiring every connection. It returns the graph and a name->ref lookup so
// callers can retrieve handles for real-time control.
func Build(cfg *Config) (*graphcore.Graph, map[string]graphcore.Ref, error) {
	g := graphcore.New(cfg.SampleRate, cfg.MaxBlockSize, graphcore.WithUnitCapacity(len(cfg.Units)+1))

	refs := make(map[string]graphcore.Ref, len(cfg.Units))
	for _, uc := range cfg.Units {
		unit, err := buildUnit(uc)
		if err != nil {
			return nil, nil, fmt.Errorf("patch: unit %q: %w", uc.Name, err)
		}
		ref, err := g.Add(unit)
		if err != nil {
			return nil, nil, fmt.Errorf("patch: add %q: %w", uc.Name, err)
		}
		refs[uc.Name] = ref
	}

	for _, cc := range cfg.Connections {
		from, ok := refs[cc.From]
		if !ok {
			return nil, nil, fmt.Errorf("patch: connection references unknown unit %q", cc.From)
		}
		to, ok := refs[cc.To]
		if !ok {
			return nil, nil, fmt.Errorf("patch: connection references unknown unit %q", cc.To)
		}
		if err := g.Connect(from, to, cc.Channel); err != nil {
			return nil, nil, fmt.Errorf("patch: connect %q -> %q: %w", cc.From, cc.To, err)
		}
	}

	if err := g.Reschedule(); err != nil {
		return nil, nil, fmt.Errorf("patch: reschedule: %w", err)
	}
	return g, refs, nil
}

func buildUnit(uc UnitConfig) (graphcore.Unit, error) {
	switch uc.Kind {
	case "phasor":
		return units.NewPhasor(uc.Name, uc.Frequency), nil
	case "square":
		return units.NewSquare(uc.Name, uc.Frequency, uc.Duty), nil
	case "triangle":
		return units.NewTriangle(uc.Name, uc.Frequency), nil
	case "noise":
		return units.NewNoise(uc.Name, uc.Frequency, uc.Seed), nil
	case "apdhsr":
		return units.NewApdhsr(uc.Name, units.ApdhsrParams{
			Attack: uc.Attack, Decay: uc.Decay, Hold: uc.Hold, Release: uc.Release,
			Peak: uc.Peak, Sustain: uc.Sustain,
		}), nil
	case "ramp":
		return units.NewRamp(uc.Name, units.RampParams{From: uc.From, To: uc.To, Duration: uc.Duration}), nil
	case "gain":
		return units.NewGain(uc.Name, uc.Level), nil
	case "hexwave":
		return units.NewHexwave(uc.Name, units.HexwaveParams{
			Frequency: uc.Frequency, Reflect: uc.Reflect,
			PeakTime: uc.PeakTime, HalfHeight: uc.HalfHeight, ZeroWait: uc.ZeroWait,
		}), nil
	case "output":
		return units.NewOutput(uc.Name), nil
	default:
		return graphcore.Unit{}, fmt.Errorf("unknown unit kind %q", uc.Kind)
	}
}
