package effects

import (
	"math"

	"github.com/shaban/jfxrig/node"
)

func init() {
	node.Register("noiseGate", newNoiseGate)
}

// noiseGate attenuates signal below a threshold with separate attack and
// release envelope times — the standard single-pole peak-follower gate.
// A second exemplar alongside gain, deliberately simple (no lookahead,
// no hysteresis band) to keep the kernel catalogue's complexity spread
// wide rather than every exemplar reaching for the same FFT machinery.
type noiseGate struct {
	id         string
	thresholdDb *node.Smoothed
	attackMs    *node.Smoothed
	releaseMs   *node.Smoothed

	envelope   float32
	gain       float32
	sampleRate float64
}

func newNoiseGate(id string, cfg node.Config) (node.Node, error) {
	g := &noiseGate{id: id, gain: 1}
	g.thresholdDb = node.NewSmoothed(node.Parameter{
		ID: "thresholdDb", DisplayName: "Threshold", Kind: node.ParamContinuous,
		Min: -80, Max: 0, Default: -50, Unit: "dB",
	})
	g.attackMs = node.NewSmoothed(node.Parameter{
		ID: "attackMs", DisplayName: "Attack", Kind: node.ParamContinuous,
		Min: 0.1, Max: 100, Default: 2, Unit: "ms",
	})
	g.releaseMs = node.NewSmoothed(node.Parameter{
		ID: "releaseMs", DisplayName: "Release", Kind: node.ParamContinuous,
		Min: 1, Max: 1000, Default: 100, Unit: "ms",
	})
	for pid, p := range map[string]*node.Smoothed{"thresholdDb": g.thresholdDb, "attackMs": g.attackMs, "releaseMs": g.releaseMs} {
		if v, ok := cfg.Parameters[pid]; ok {
			p.SetTarget(v)
			p.Reset()
		}
	}
	return g, nil
}

func (g *noiseGate) Prepare(sampleRate float64, maxFrames int) error {
	g.sampleRate = sampleRate
	g.thresholdDb.Prepare(sampleRate, 10)
	g.attackMs.Prepare(sampleRate, 10)
	g.releaseMs.Prepare(sampleRate, 10)
	return nil
}

func (g *noiseGate) Ports() []node.Port {
	return []node.Port{{ID: node.PortIn, Kind: node.PortInput}, {ID: node.PortOut, Kind: node.PortOutput}}
}

// coeffFromMs converts a time constant in milliseconds to a per-sample
// one-pole smoothing coefficient at this node's sample rate.
func (g *noiseGate) coeffFromMs(ms float32) float32 {
	if ms <= 0 {
		ms = 0.1
	}
	tau := float64(ms) / 1000.0
	return float32(1 - math.Exp(-1/(tau*g.sampleRate)))
}

func (g *noiseGate) step(sample float32) float32 {
	rect := sample
	if rect < 0 {
		rect = -rect
	}
	if rect > g.envelope {
		g.envelope += (rect - g.envelope) * g.coeffFromMs(g.attackMs.Current())
	} else {
		g.envelope += (rect - g.envelope) * g.coeffFromMs(g.releaseMs.Current())
	}

	thresholdLin := dbToLinear(g.thresholdDb.Current())
	target := float32(0)
	if g.envelope >= thresholdLin {
		target = 1
	}
	g.gain += (target - g.gain) * g.coeffFromMs(g.releaseMs.Current())
	return sample * g.gain
}

func (g *noiseGate) ProcessMono(in, out []float32, frames int) {
	g.thresholdDb.Advance()
	g.attackMs.Advance()
	g.releaseMs.Advance()
	for i := 0; i < frames; i++ {
		out[i] = g.step(in[i])
	}
}

func (g *noiseGate) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	g.thresholdDb.Advance()
	g.attackMs.Advance()
	g.releaseMs.Advance()
	for i := 0; i < frames; i++ {
		// envelope tracks the left channel; the resulting gain is
		// shared across both so stereo images don't shift as the gate
		// opens and closes.
		outL[i] = g.step(inL[i])
		outR[i] = inR[i] * g.gain
	}
}

func (g *noiseGate) Stereo() bool { return false }

func (g *noiseGate) Reset() {
	g.envelope = 0
	g.gain = 1
}

func (g *noiseGate) Release() {}

func (g *noiseGate) Parameters() []node.Parameter {
	return []node.Parameter{
		g.thresholdDb.ParamSnapshot(),
		g.attackMs.ParamSnapshot(),
		g.releaseMs.ParamSnapshot(),
	}
}

func (g *noiseGate) SetParameter(id string, value float32) {
	switch id {
	case "thresholdDb":
		g.thresholdDb.SetTarget(value)
	case "attackMs":
		g.attackMs.SetTarget(value)
	case "releaseMs":
		g.releaseMs.SetTarget(value)
	}
}

func (g *noiseGate) LatencySamples() int { return 0 }
func (g *noiseGate) RowLayout() node.RowLayout {
	return node.RowLayout{Rows: [][]string{{"thresholdDb", "attackMs", "releaseMs"}}}
}
