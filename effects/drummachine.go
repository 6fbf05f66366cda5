package effects

import (
	"math"
	"math/rand"

	"github.com/shaban/jfxrig/node"
)

func init() {
	node.Register("drumMachine", newDrumMachine)
}

// DrumSteps is the fixed step count of one bar's pattern (16th notes).
const DrumSteps = 16

// DrumVoice names one synthesized percussion lane.
type DrumVoice int

const (
	VoiceKick DrumVoice = iota
	VoiceSnare
	VoiceHiHat
	drumVoiceCount
)

// Hit is one programmed step for one lane (§2 domain stack: "bar/beat/
// sub-step/sound/velocity/pan hits, swing, accents").
type Hit struct {
	Active   bool
	Velocity float32 // 0..1
	Accent   bool
	Pan      float32 // -1..1
}

// Pattern is one bar's worth of 16th-note steps across every lane. The
// midi package's Standard MIDI File importer produces one of these from
// note data; SetPattern installs it without touching the node contract.
type Pattern struct {
	Lanes [drumVoiceCount][DrumSteps]Hit
}

func defaultPattern() Pattern {
	var p Pattern
	for i := 0; i < DrumSteps; i += 4 {
		p.Lanes[VoiceKick][i] = Hit{Active: true, Velocity: 0.9}
	}
	for _, i := range [2]int{4, 12} {
		p.Lanes[VoiceSnare][i] = Hit{Active: true, Velocity: 1, Accent: true}
	}
	for i := 0; i < DrumSteps; i += 2 {
		p.Lanes[VoiceHiHat][i] = Hit{Active: true, Velocity: 0.6}
	}
	return p
}

// maxDrumVoices bounds how many hits can sound at once. Triggers beyond
// this are dropped rather than stealing a voice; the default pattern
// never produces more than a handful of simultaneous tails, so this is
// generous headroom, not a tight budget.
const maxDrumVoices = 32

// voiceState is one currently-sounding synthesized hit. Voices are
// short-lived: claimed from the fixed pool on a step trigger,
// self-terminating once their envelope decays below audibility (§2
// "voice lifecycle"), at which point the slot is free for reuse.
type voiceState struct {
	active bool
	kind   DrumVoice
	phase  float64
	age    int
	gain   float32
	pan    float32
	rng    *rand.Rand
}

func (v *voiceState) next(sampleRate float64) float32 {
	t := float64(v.age) / sampleRate
	v.age++
	switch v.kind {
	case VoiceKick:
		freq := 150 - 100*math.Min(t/0.05, 1)
		v.phase += 2 * math.Pi * freq / sampleRate
		env := float32(math.Exp(-t / 0.15))
		if env < 0.001 {
			v.active = false
		}
		return float32(math.Sin(v.phase)) * env * v.gain
	case VoiceSnare:
		noise := float32(v.rng.Float64()*2 - 1)
		tone := float32(math.Sin(2 * math.Pi * 200 * t))
		env := float32(math.Exp(-t / 0.1))
		if env < 0.001 {
			v.active = false
		}
		return (noise*0.7 + tone*0.3) * env * v.gain
	case VoiceHiHat:
		noise := float32(v.rng.Float64()*2 - 1)
		env := float32(math.Exp(-t / 0.04))
		if env < 0.001 {
			v.active = false
		}
		return noise * env * v.gain
	default:
		v.active = false
		return 0
	}
}

// drumMachine is a step-sequenced percussion source (§2 domain stack,
// §4.9). It ignores its in port entirely — it only ever produces audio —
// but still implements the ordinary single in/out Node contract rather
// than MultiPort, since unlike the structural Source it has a genuine,
// always-one input port that a rig author could (harmlessly) wire up.
type drumMachine struct {
	id string

	bpm     *node.Smoothed
	swing   *node.Smoothed
	playing *node.Flag

	pattern Pattern

	sampleRate     float64
	samplesPerStep float64
	samplePos      float64
	stepIndex      int

	// voices is a fixed pool claimed by index; triggerStep and
	// renderSample index into it instead of growing a slice, so a
	// running step sequencer never allocates (§1/§4.1/§5).
	voices [maxDrumVoices]voiceState
	rng    *rand.Rand
}

func newDrumMachine(id string, cfg node.Config) (node.Node, error) {
	d := &drumMachine{id: id, pattern: defaultPattern(), rng: rand.New(rand.NewSource(1))}
	d.bpm = node.NewSmoothed(node.Parameter{
		ID: "bpm", DisplayName: "Tempo", Kind: node.ParamContinuous,
		Min: 40, Max: 240, Default: 120, Unit: "bpm",
	})
	d.swing = node.NewSmoothed(node.Parameter{
		ID: "swing", DisplayName: "Swing", Kind: node.ParamContinuous,
		Min: 0, Max: 0.75, Default: 0, Unit: "x",
	})
	d.playing = node.NewFlag(node.Parameter{ID: "playing", DisplayName: "Playing", Kind: node.ParamBool, Default: 1})

	for pid, p := range map[string]*node.Smoothed{"bpm": d.bpm, "swing": d.swing} {
		if v, ok := cfg.Parameters[pid]; ok {
			p.SetTarget(v)
			p.Reset()
		}
	}
	if v, ok := cfg.Parameters["playing"]; ok {
		d.playing.Set(v)
	}
	return d, nil
}

// SetPattern installs a new 16-step pattern, replacing the built-in
// default. Control-thread call, takes effect at the next step boundary
// the same way any other non-smoothed change does.
func (d *drumMachine) SetPattern(p Pattern) { d.pattern = p }

func (d *drumMachine) Prepare(sampleRate float64, maxFrames int) error {
	d.sampleRate = sampleRate
	d.bpm.Prepare(sampleRate, 10)
	d.swing.Prepare(sampleRate, 10)
	d.recomputeStepLength()
	return nil
}

func (d *drumMachine) recomputeStepLength() {
	bpm := float64(d.bpm.Current())
	if bpm <= 0 {
		bpm = 120
	}
	const sixteenthOfBeat = 0.25
	secondsPerBeat := 60.0 / bpm
	d.samplesPerStep = secondsPerBeat * sixteenthOfBeat * d.sampleRate
}

// currentInterval lengthens every odd-numbered 16th note and shortens
// its preceding even one by the live swing amount, the simplest shape of
// swing that keeps each pair of steps' combined duration constant.
func (d *drumMachine) currentInterval() float64 {
	swing := float64(d.swing.Current())
	if d.stepIndex%2 == 1 {
		return d.samplesPerStep * (1 + swing)
	}
	return d.samplesPerStep * (1 - swing)
}

func (d *drumMachine) Ports() []node.Port {
	return []node.Port{{ID: node.PortIn, Kind: node.PortInput}, {ID: node.PortOut, Kind: node.PortOutput}}
}

// claimVoice returns the index of a free pool slot, or -1 if every voice
// is currently sounding.
func (d *drumMachine) claimVoice() int {
	for i := range d.voices {
		if !d.voices[i].active {
			return i
		}
	}
	return -1
}

func (d *drumMachine) triggerStep() {
	for lane := DrumVoice(0); lane < drumVoiceCount; lane++ {
		hit := d.pattern.Lanes[lane][d.stepIndex]
		if !hit.Active {
			continue
		}
		i := d.claimVoice()
		if i < 0 {
			continue
		}
		gain := hit.Velocity
		if hit.Accent {
			gain *= 1.3
		}
		d.voices[i] = voiceState{active: true, kind: lane, gain: gain, pan: hit.Pan, rng: d.rng}
	}
	d.stepIndex = (d.stepIndex + 1) % DrumSteps
}

func (d *drumMachine) renderSample() (l, r float32) {
	for i := range d.voices {
		v := &d.voices[i]
		if !v.active {
			continue
		}
		s := v.next(d.sampleRate)
		lg := float32(math.Cos(float64(v.pan+1) * math.Pi / 4))
		rg := float32(math.Sin(float64(v.pan+1) * math.Pi / 4))
		l += s * lg
		r += s * rg
	}
	return l, r
}

func (d *drumMachine) advance() (l, r float32) {
	if d.playing.Bool() {
		d.samplePos++
		if d.samplePos >= d.currentInterval() {
			d.samplePos = 0
			d.triggerStep()
		}
	}
	return d.renderSample()
}

func (d *drumMachine) ProcessMono(in, out []float32, frames int) {
	d.bpm.Advance()
	d.swing.Advance()
	for i := 0; i < frames; i++ {
		l, r := d.advance()
		out[i] = l + r
	}
}

func (d *drumMachine) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	d.bpm.Advance()
	d.swing.Advance()
	for i := 0; i < frames; i++ {
		outL[i], outR[i] = d.advance()
	}
}

func (d *drumMachine) Stereo() bool { return false }

func (d *drumMachine) Reset() {
	for i := range d.voices {
		d.voices[i] = voiceState{}
	}
	d.stepIndex = 0
	d.samplePos = 0
}

func (d *drumMachine) Release() {}

func (d *drumMachine) Parameters() []node.Parameter {
	return []node.Parameter{
		d.bpm.ParamSnapshot(),
		d.swing.ParamSnapshot(),
		{ID: "playing", DisplayName: "Playing", Kind: node.ParamBool, Default: 1},
	}
}

func (d *drumMachine) SetParameter(id string, value float32) {
	switch id {
	case "bpm":
		d.bpm.SetTarget(value)
	case "swing":
		d.swing.SetTarget(value)
	case "playing":
		d.playing.Set(value)
	}
}

func (d *drumMachine) LatencySamples() int { return 0 }

func (d *drumMachine) RowLayout() node.RowLayout {
	return node.RowLayout{Rows: [][]string{{"bpm", "swing", "playing"}}}
}
