package node

import (
	"fmt"
	"math"
)

// Structural nodes — source, sink, splitter, mixer — are the four kinds
// the rig description's graph is built from besides effect kernels (§4.3).
// Unlike effect kernels they have a variable port count, so they implement
// MultiPort; their ProcessMono/ProcessStereo exist only to satisfy Node and
// are never exercised by a compiled plan.

func init() {
	Register(TypeSource, newSource)
	Register(TypeSink, newSink)
	Register(TypeSplitter, newSplitter)
	Register(TypeMixer, newMixer)
}

// Port IDs for variable-arity structural nodes are 1-based (in1..inN,
// out1..outN) per the rig wire format, not 0-based like the i they're
// built from.
func inputPortID(i int) string  { return fmt.Sprintf("in%d", i+1) }
func outputPortID(i int) string { return fmt.Sprintf("out%d", i+1) }

// Source is the graph's audio-input boundary. It never reads hardware or
// a file itself: whatever hosts the plan (block scheduler for live audio,
// offline renderer for file rendering — see §4.10) stages the next
// block's samples into it with Feed/FeedStereo immediately before
// calling render, then the single out port replays what was staged. This
// keeps the node contract uniform regardless of where samples actually
// originate, the way the teacher's sourcenode stages PCM buffers handed
// to it by the engine rather than pulling them itself.
type Source struct {
	id     string
	stereo bool
	l, r   []float32
}

func newSource(id string, cfg Config) (Node, error) {
	return &Source{id: id, stereo: cfg.StereoMode == "STEREO"}, nil
}

func (s *Source) Prepare(sampleRate float64, maxFrames int) error {
	s.l = make([]float32, maxFrames)
	s.r = make([]float32, maxFrames)
	return nil
}

func (s *Source) Ports() []Port { return []Port{{ID: PortOut, Kind: PortOutput}} }

// Feed stages a mono block for the next render call.
func (s *Source) Feed(samples []float32, frames int) {
	copy(s.l[:frames], samples[:frames])
}

// FeedStereo stages a stereo block for the next render call.
func (s *Source) FeedStereo(left, right []float32, frames int) {
	copy(s.l[:frames], left[:frames])
	copy(s.r[:frames], right[:frames])
}

func (s *Source) ProcessMono(in, out []float32, frames int) {
	copy(out[:frames], s.l[:frames])
}

func (s *Source) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	copy(outL[:frames], s.l[:frames])
	copy(outR[:frames], s.r[:frames])
}

func (s *Source) ProcessMonoMulti(ins, outs [][]float32, frames int) {
	s.ProcessMono(nil, outs[0], frames)
}

func (s *Source) ProcessStereoMulti(insL, insR, outsL, outsR [][]float32, frames int) {
	s.ProcessStereo(nil, nil, outsL[0], outsR[0], frames)
}

func (s *Source) Stereo() bool { return s.stereo }

func (s *Source) Reset() {
	for i := range s.l {
		s.l[i] = 0
	}
	for i := range s.r {
		s.r[i] = 0
	}
}

func (s *Source) Release()                        {}
func (s *Source) Parameters() []Parameter          { return nil }
func (s *Source) SetParameter(string, float32)     {}
func (s *Source) LatencySamples() int              { return 0 }
func (s *Source) RowLayout() RowLayout             { return RowLayout{} }

// Sink is the graph's audio-output boundary. It stages whatever the
// compiled plan rendered into the sink's single in port so the host can
// drain it to a device or a memory buffer after render returns.
type Sink struct {
	id     string
	stereo bool
	l, r   []float32
}

func newSink(id string, cfg Config) (Node, error) {
	return &Sink{id: id, stereo: cfg.StereoMode == "STEREO"}, nil
}

func (s *Sink) Prepare(sampleRate float64, maxFrames int) error {
	s.l = make([]float32, maxFrames)
	s.r = make([]float32, maxFrames)
	return nil
}

func (s *Sink) Ports() []Port { return []Port{{ID: PortIn, Kind: PortInput}} }

func (s *Sink) ProcessMono(in, out []float32, frames int) {
	copy(s.l[:frames], in[:frames])
}

func (s *Sink) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	copy(s.l[:frames], inL[:frames])
	copy(s.r[:frames], inR[:frames])
}

func (s *Sink) ProcessMonoMulti(ins, outs [][]float32, frames int) {
	s.ProcessMono(ins[0], nil, frames)
}

func (s *Sink) ProcessStereoMulti(insL, insR, outsL, outsR [][]float32, frames int) {
	s.ProcessStereo(insL[0], insR[0], nil, nil, frames)
}

// Drain returns the mono block rendered into this sink during the most
// recent render call.
func (s *Sink) Drain() []float32 { return s.l }

// DrainStereo returns the stereo pair rendered into this sink.
func (s *Sink) DrainStereo() ([]float32, []float32) { return s.l, s.r }

func (s *Sink) Stereo() bool { return s.stereo }

func (s *Sink) Reset() {
	for i := range s.l {
		s.l[i] = 0
	}
	for i := range s.r {
		s.r[i] = 0
	}
}

func (s *Sink) Release()                    {}
func (s *Sink) Parameters() []Parameter      { return nil }
func (s *Sink) SetParameter(string, float32) {}
func (s *Sink) LatencySamples() int          { return 0 }
func (s *Sink) RowLayout() RowLayout         { return RowLayout{} }

// Splitter fans one input out to N identical outputs (§4.3). Stateless:
// Process is a pure copy, nothing to reset or release.
type Splitter struct {
	id string
	n  int
}

func newSplitter(id string, cfg Config) (Node, error) {
	n := cfg.NumOutputs
	if n < 1 {
		n = 1
	}
	return &Splitter{id: id, n: n}, nil
}

func (s *Splitter) Prepare(sampleRate float64, maxFrames int) error { return nil }

func (s *Splitter) Ports() []Port {
	ports := make([]Port, 0, s.n+1)
	ports = append(ports, Port{ID: PortIn, Kind: PortInput})
	for i := 0; i < s.n; i++ {
		ports = append(ports, Port{ID: outputPortID(i), Kind: PortOutput})
	}
	return ports
}

func (s *Splitter) ProcessMono(in, out []float32, frames int) {
	copy(out[:frames], in[:frames])
}

func (s *Splitter) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	copy(outL[:frames], inL[:frames])
	copy(outR[:frames], inR[:frames])
}

func (s *Splitter) ProcessMonoMulti(ins, outs [][]float32, frames int) {
	in := ins[0]
	for _, out := range outs {
		copy(out[:frames], in[:frames])
	}
}

func (s *Splitter) ProcessStereoMulti(insL, insR, outsL, outsR [][]float32, frames int) {
	inL, inR := insL[0], insR[0]
	for _, out := range outsL {
		copy(out[:frames], inL[:frames])
	}
	for _, out := range outsR {
		copy(out[:frames], inR[:frames])
	}
}

func (s *Splitter) Stereo() bool                 { return false }
func (s *Splitter) Reset()                       {}
func (s *Splitter) Release()                     {}
func (s *Splitter) Parameters() []Parameter       { return nil }
func (s *Splitter) SetParameter(string, float32) {}
func (s *Splitter) LatencySamples() int          { return 0 }
func (s *Splitter) RowLayout() RowLayout         { return RowLayout{} }

func levelParamID(i int) string { return fmt.Sprintf("level%d", i) }
func panParamID(i int) string   { return fmt.Sprintf("pan%d", i) }

// Mixer sums N inputs down to one output with a per-input level and pan
// plus a master level (§4.3). In STEREO mode each input's pan is applied
// with the equal-power law (Lgain=cos((pan+1)*pi/4), Rgain=sin((pan+1)*
// pi/4)) to its already-stereo L/R pair; in MONO mode pan is ignored.
// Master level and every per-input level/pan are exposed as ordinary
// smoothed parameters, so a running mixer can be automated exactly like
// an effect node (§8 scenario: parameter hot-swap on a mixer's master).
type Mixer struct {
	id          string
	n           int
	stereo      bool
	masterLevel *Smoothed
	levels      []*Smoothed
	pans        []*Smoothed
}

func newMixer(id string, cfg Config) (Node, error) {
	n := cfg.NumInputs
	if n < 1 {
		return nil, fmt.Errorf("mixer %s: numInputs must be >= 1", id)
	}
	m := &Mixer{id: id, n: n, stereo: cfg.StereoMode == "STEREO"}

	masterDefault := float32(1)
	if cfg.MasterLevel != 0 {
		masterDefault = cfg.MasterLevel
	}
	m.masterLevel = NewSmoothed(Parameter{
		ID: "masterLevel", DisplayName: "Master Level",
		Kind: ParamContinuous, Min: 0, Max: 2, Default: masterDefault, Unit: "x",
	})

	m.levels = make([]*Smoothed, n)
	m.pans = make([]*Smoothed, n)
	for i := 0; i < n; i++ {
		levelDefault := float32(1)
		if i < len(cfg.Levels) && cfg.Levels[i] != 0 {
			levelDefault = cfg.Levels[i]
		}
		panDefault := float32(0)
		if i < len(cfg.Pans) {
			panDefault = cfg.Pans[i]
		}
		m.levels[i] = NewSmoothed(Parameter{
			ID: levelParamID(i), DisplayName: fmt.Sprintf("Input %d Level", i+1),
			Kind: ParamContinuous, Min: 0, Max: 2, Default: levelDefault, Unit: "x",
		})
		m.pans[i] = NewSmoothed(Parameter{
			ID: panParamID(i), DisplayName: fmt.Sprintf("Input %d Pan", i+1),
			Kind: ParamContinuous, Min: -1, Max: 1, Default: panDefault, Unit: "",
		})
	}

	if v, ok := cfg.Parameters["masterLevel"]; ok {
		m.masterLevel.SetTarget(v)
		m.masterLevel.Reset()
	}
	for i := 0; i < n; i++ {
		if v, ok := cfg.Parameters[levelParamID(i)]; ok {
			m.levels[i].SetTarget(v)
			m.levels[i].Reset()
		}
		if v, ok := cfg.Parameters[panParamID(i)]; ok {
			m.pans[i].SetTarget(v)
			m.pans[i].Reset()
		}
	}
	return m, nil
}

func (m *Mixer) Prepare(sampleRate float64, maxFrames int) error {
	m.masterLevel.Prepare(sampleRate, 0)
	for i := 0; i < m.n; i++ {
		m.levels[i].Prepare(sampleRate, 0)
		m.pans[i].Prepare(sampleRate, 0)
	}
	return nil
}

func (m *Mixer) Ports() []Port {
	ports := make([]Port, 0, m.n+1)
	for i := 0; i < m.n; i++ {
		ports = append(ports, Port{ID: inputPortID(i), Kind: PortInput})
	}
	ports = append(ports, Port{ID: PortOut, Kind: PortOutput})
	return ports
}

func (m *Mixer) ProcessMono(in, out []float32, frames int) {
	copy(out[:frames], in[:frames])
}

func (m *Mixer) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	copy(outL[:frames], inL[:frames])
	copy(outR[:frames], inR[:frames])
}

func (m *Mixer) ProcessMonoMulti(ins, outs [][]float32, frames int) {
	out := outs[0]
	for i := 0; i < frames; i++ {
		out[i] = 0
	}
	master := m.masterLevel.Advance()
	for ch := 0; ch < m.n; ch++ {
		g := m.levels[ch].Advance() * master
		in := ins[ch]
		for i := 0; i < frames; i++ {
			out[i] += in[i] * g
		}
	}
}

func (m *Mixer) ProcessStereoMulti(insL, insR, outsL, outsR [][]float32, frames int) {
	outL, outR := outsL[0], outsR[0]
	for i := 0; i < frames; i++ {
		outL[i] = 0
		outR[i] = 0
	}
	master := m.masterLevel.Advance()
	for ch := 0; ch < m.n; ch++ {
		level := m.levels[ch].Advance()
		pan := m.pans[ch].Advance()
		lg := float32(math.Cos(float64(pan+1) * math.Pi / 4))
		rg := float32(math.Sin(float64(pan+1) * math.Pi / 4))
		inL, inR := insL[ch], insR[ch]
		gl := level * master * lg
		gr := level * master * rg
		for i := 0; i < frames; i++ {
			outL[i] += inL[i] * gl
			outR[i] += inR[i] * gr
		}
	}
}

func (m *Mixer) Stereo() bool { return m.stereo }

func (m *Mixer) Reset() {
	m.masterLevel.Reset()
	for i := 0; i < m.n; i++ {
		m.levels[i].Reset()
		m.pans[i].Reset()
	}
}

func (m *Mixer) Release() {}

func (m *Mixer) Parameters() []Parameter {
	params := make([]Parameter, 0, 1+2*m.n)
	params = append(params, m.masterLevel.param)
	for i := 0; i < m.n; i++ {
		params = append(params, m.levels[i].param, m.pans[i].param)
	}
	return params
}

func (m *Mixer) SetParameter(id string, value float32) {
	if id == "masterLevel" {
		m.masterLevel.SetTarget(value)
		return
	}
	for i := 0; i < m.n; i++ {
		if id == levelParamID(i) {
			m.levels[i].SetTarget(value)
			return
		}
		if id == panParamID(i) {
			m.pans[i].SetTarget(value)
			return
		}
	}
}

func (m *Mixer) LatencySamples() int  { return 0 }
func (m *Mixer) RowLayout() RowLayout { return RowLayout{} }
