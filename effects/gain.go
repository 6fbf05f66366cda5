package effects

import (
	"math"

	"github.com/shaban/jfxrig/node"
)

func init() {
	node.Register("gain", newGain)
}

// gain is the simplest possible effect kernel: a single smoothed decibel
// parameter applied sample-by-sample, stereo channels scaled identically.
// Grounded on the node package's own Smoothed cell; there is nothing here
// the teacher or pack has a more specific shape for, so this exists to
// give every other exemplar something trivial to be compared against.
type gain struct {
	id     string
	gainDb *node.Smoothed
}

func newGain(id string, cfg node.Config) (node.Node, error) {
	g := &gain{id: id}
	g.gainDb = node.NewSmoothed(node.Parameter{
		ID: "gainDb", DisplayName: "Gain", Kind: node.ParamContinuous,
		Min: -60, Max: 24, Default: 0, Unit: "dB",
	})
	if v, ok := cfg.Parameters["gainDb"]; ok {
		g.gainDb.SetTarget(v)
		g.gainDb.Reset()
	}
	return g, nil
}

func (g *gain) Prepare(sampleRate float64, maxFrames int) error {
	g.gainDb.Prepare(sampleRate, 10)
	return nil
}

func (g *gain) Ports() []node.Port {
	return []node.Port{{ID: node.PortIn, Kind: node.PortInput}, {ID: node.PortOut, Kind: node.PortOutput}}
}

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func (g *gain) ProcessMono(in, out []float32, frames int) {
	lin := dbToLinear(g.gainDb.Advance())
	for i := 0; i < frames; i++ {
		out[i] = in[i] * lin
	}
}

func (g *gain) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	lin := dbToLinear(g.gainDb.Advance())
	for i := 0; i < frames; i++ {
		outL[i] = inL[i] * lin
		outR[i] = inR[i] * lin
	}
}

func (g *gain) Stereo() bool { return false }
func (g *gain) Reset()       { g.gainDb.Reset() }
func (g *gain) Release()     {}

func (g *gain) Parameters() []node.Parameter {
	return []node.Parameter{{ID: "gainDb", DisplayName: "Gain", Kind: node.ParamContinuous, Min: -60, Max: 24, Default: 0, Unit: "dB"}}
}

func (g *gain) SetParameter(id string, value float32) {
	if id == "gainDb" {
		g.gainDb.SetTarget(value)
	}
}

func (g *gain) LatencySamples() int        { return 0 }
func (g *gain) RowLayout() node.RowLayout { return node.RowLayout{Rows: [][]string{{"gainDb"}}} }
