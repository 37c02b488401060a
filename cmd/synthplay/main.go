// Command synthplay is an interactive demo host: it assembles a small
// patch in code, opens an ebiten audio context the way the teacher's
// ui.App does, and lets the keyboard play notes through it. Keyboard-to-
// frequency mapping and the GUI shell around it are explicitly out of
// scope for the engine itself; this is just enough of a harness to hear
// the graph run.
package main

import (
	"fmt"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/pflag"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/hostaudio"
	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/patch"
	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/units"
)

const sampleRate = 48000

// keyFrequencies maps a one-octave span of the home row to semitone steps
// from A4 (440 Hz), the familiar "asdf" tracker-style layout.
var keyFrequencies = map[ebiten.Key]float64{
	ebiten.KeyA: -9, ebiten.KeyW: -8, ebiten.KeyS: -7, ebiten.KeyE: -6,
	ebiten.KeyD: -5, ebiten.KeyF: -4, ebiten.KeyT: -3, ebiten.KeyG: -2,
	ebiten.KeyY: -1, ebiten.KeyH: 0, ebiten.KeyU: 1, ebiten.KeyJ: 2,
	ebiten.KeyK: 3,
}

func semitoneToHz(semitones float64) float32 {
	return float32(440 * math.Pow(2, semitones/12))
}

type game struct {
	g *graphcore.Graph

	// interactive is false when the loaded patch has no "osc"/"env" units
	// to drive from the keyboard (only possible via -patch); the demo
	// still plays, it just can't trigger notes.
	interactive bool
	osc         units.Hexwave
	env         units.Apdhsr
	time0       int64
}

func (s *game) Update() error {
	if !s.interactive {
		return nil
	}
	for key, semis := range keyFrequencies {
		if inpututil.IsKeyJustPressed(key) {
			s.osc.SetFrequency(semitoneToHz(semis))
			s.env.Start(s.time0)
		}
	}
	s.time0 += int64(1000) // coarse advance; real timing comes from the audio pull
	return nil
}

func (s *game) Draw(screen *ebiten.Image) {
	if s.interactive {
		ebitenutil.DebugPrint(screen, "signalgraph synthplay\nplay notes on the home row (a s d f g h j k)\nesc to quit")
	} else {
		ebitenutil.DebugPrint(screen, "signalgraph synthplay\nplaying patch (no osc/env units to drive from the keyboard)\nesc to quit")
	}
}

func (s *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 320, 120
}

// buildDemoPatch assembles the built-in oscillator -> envelope -> gain ->
// output chain used when no -patch file is given.
func buildDemoPatch() (*graphcore.Graph, map[string]graphcore.Ref, error) {
	g := graphcore.New(sampleRate, 256)

	refs := make(map[string]graphcore.Ref, 4)
	add := func(name string, u graphcore.Unit) (graphcore.Ref, error) {
		ref, err := g.Add(u)
		if err != nil {
			return graphcore.Ref{}, fmt.Errorf("add %s: %w", name, err)
		}
		refs[name] = ref
		return ref, nil
	}

	oscRef, err := add("osc", units.NewHexwave("osc", units.HexwaveParams{
		Frequency: 440, PeakTime: 0.3, HalfHeight: -0.2, ZeroWait: 0.05,
	}))
	if err != nil {
		return nil, nil, err
	}
	envRef, err := add("env", units.NewApdhsr("env", units.ApdhsrParams{
		Attack: 200, Decay: 2000, Hold: 4000, Release: 8000, Peak: 1, Sustain: 0.6,
	}))
	if err != nil {
		return nil, nil, err
	}
	gainRef, err := add("gain", units.NewGain("gain", 0.3))
	if err != nil {
		return nil, nil, err
	}
	outRef, err := add("out", units.NewOutput("out"))
	if err != nil {
		return nil, nil, err
	}

	if err := g.Connect(oscRef, envRef, 0); err != nil {
		return nil, nil, fmt.Errorf("connect osc->env: %w", err)
	}
	if err := g.Connect(envRef, gainRef, 0); err != nil {
		return nil, nil, fmt.Errorf("connect env->gain: %w", err)
	}
	if err := g.Connect(gainRef, outRef, 0); err != nil {
		return nil, nil, fmt.Errorf("connect gain->out: %w", err)
	}
	if err := g.Reschedule(); err != nil {
		return nil, nil, fmt.Errorf("reschedule: %w", err)
	}
	return g, refs, nil
}

func main() {
	patchPath := pflag.StringP("patch", "p", "", "path to a patch YAML file describing the graph (default: a built-in oscillator demo)")
	pflag.Parse()

	var (
		g    *graphcore.Graph
		refs map[string]graphcore.Ref
		err  error
	)
	if *patchPath != "" {
		cfg, loadErr := patch.Load(*patchPath)
		if loadErr != nil {
			log.Fatalf("load patch: %v", loadErr)
		}
		g, refs, err = patch.Build(cfg)
	} else {
		g, refs, err = buildDemoPatch()
	}
	if err != nil {
		log.Fatalf("build patch: %v", err)
	}

	s := &game{g: g}
	oscRef, hasOsc := refs["osc"]
	envRef, hasEnv := refs["env"]
	if hasOsc && hasEnv {
		oscUnitPtr, _ := g.Unit(oscRef)
		envUnitPtr, _ := g.Unit(envRef)
		s.osc = units.HexwaveHandle(oscUnitPtr)
		s.env = units.ApdhsrHandle(envUnitPtr)
		s.interactive = true
	}

	audioCtx := audio.NewContext(sampleRate)
	stream := hostaudio.NewStream(g, sampleRate)
	player, err := audioCtx.NewPlayer(stream)
	if err != nil {
		log.Fatalf("new audio player: %v", err)
	}
	player.Play()

	ebiten.SetWindowTitle("synthplay")
	ebiten.SetWindowSize(320, 120)
	if err := ebiten.RunGame(s); err != nil {
		log.Fatal(err)
	}
}
