package node

import "sync/atomic"

// Flag holds a non-smoothed (boolean or choice) parameter. Per §4.6,
// "boolean and choice parameters are not smoothed; the new value takes
// effect at the next block boundary" — so a single atomic word, read once
// at the top of Process, is all this needs.
type Flag struct {
	value atomic.Int32
	param Parameter
}

// NewFlag creates a flag cell initialized to its descriptor's default.
func NewFlag(p Parameter) *Flag {
	f := &Flag{param: p}
	f.value.Store(int32(p.Clamp(p.Default)))
	return f
}

// Set is the control-thread write path.
func (f *Flag) Set(v float32) {
	f.value.Store(int32(f.param.Clamp(v)))
}

// Value returns the current value, read once per block by Process.
func (f *Flag) Value() float32 {
	return float32(f.value.Load())
}

// Bool is a convenience accessor for ParamBool flags.
func (f *Flag) Bool() bool {
	return f.value.Load() != 0
}
