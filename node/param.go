package node

import (
	"math"
	"sync/atomic"
)

// Smoothed is a continuous parameter's runtime state: a live target
// written lock-free from the control thread, and a current value advanced
// on the audio thread. This is the concrete mechanism behind §4.6 of the
// spec. Embed one per continuous Parameter in a node's private state.
//
// Grounded on the teacher's plugin parameter shape
// (plugins/plugins.go Parameter: Min/Max/Default/Current) generalized
// from a one-shot introspected snapshot into a live, lock-free dual-value
// cell, since the teacher's AudioUnit parameters are owned by the native
// host rather than by our own audio thread.
type Smoothed struct {
	target  atomic.Uint32 // float32 bits, written by control thread
	current float32       // audio-thread-only
	coeff   float32       // 1 - exp(-1/(tau*sampleRate)), cached at Prepare
	param   Parameter
}

// NewSmoothed creates a smoothed parameter cell initialized to its
// descriptor's default value.
func NewSmoothed(p Parameter) *Smoothed {
	s := &Smoothed{param: p, current: p.Clamp(p.Default)}
	s.target.Store(math.Float32bits(s.current))
	return s
}

// Prepare caches the smoothing coefficient for a given sample rate and
// time constant (default 10ms per §3's Parameter descriptor).
func (s *Smoothed) Prepare(sampleRate float64, timeConstantMs float64) {
	if timeConstantMs <= 0 {
		timeConstantMs = 10
	}
	tau := timeConstantMs / 1000.0
	s.coeff = float32(1 - math.Exp(-1/(tau*sampleRate)))
}

// SetTarget is the control-thread write path: clamps to range, then
// stores atomically. Range-clamping here is what lets the audio thread
// trust every value it reads (§4.6).
func (s *Smoothed) SetTarget(v float32) {
	s.target.Store(math.Float32bits(s.param.Clamp(v)))
}

// Target returns the live target value.
func (s *Smoothed) Target() float32 {
	return math.Float32frombits(s.target.Load())
}

// Current returns the audio-thread's current (smoothed) value without
// advancing it.
func (s *Smoothed) Current() float32 {
	return s.current
}

// Advance performs one per-block smoothing step and returns the updated
// current value. Call once per Process call, per §4.6 ("reads the live
// target once, computes a per-sample or per-block smoothing step").
func (s *Smoothed) Advance() float32 {
	target := s.Target()
	s.current += (target - s.current) * s.coeff
	return s.current
}

// AdvanceSample performs one per-sample smoothing step; used by nodes
// that need audio-rate rather than block-rate smoothing (e.g. gain
// nodes avoiding zipper noise on large block sizes). Identical formula to
// Advance, called once per sample instead of once per block.
func (s *Smoothed) AdvanceSample() float32 {
	return s.Advance()
}

// ParamSnapshot returns the static descriptor this cell was built from,
// for nodes assembling their Parameters() list from several cells.
func (s *Smoothed) ParamSnapshot() Parameter {
	return s.param
}

// Reset snaps current to whatever target is currently set, collapsing any
// in-flight ramp. Parameter *values* survive a node Reset (§4.1); this is
// used when a node wants to avoid a slow creep back from silence after
// its transient state (not its parameters) is cleared.
func (s *Smoothed) Reset() {
	s.current = s.Target()
}

