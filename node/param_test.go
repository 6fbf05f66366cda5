package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterClamp(t *testing.T) {
	cont := Parameter{Kind: ParamContinuous, Min: -1, Max: 1}
	assert.Equal(t, float32(1), cont.Clamp(5))
	assert.Equal(t, float32(-1), cont.Clamp(-5))
	assert.Equal(t, float32(0.25), cont.Clamp(0.25))

	boolean := Parameter{Kind: ParamBool}
	assert.Equal(t, float32(1), boolean.Clamp(0.3))
	assert.Equal(t, float32(0), boolean.Clamp(0))

	choice := Parameter{Kind: ParamChoice, Choices: []string{"a", "b", "c"}}
	assert.Equal(t, float32(2), choice.Clamp(9))
	assert.Equal(t, float32(0), choice.Clamp(-3))
	assert.Equal(t, float32(1), choice.Clamp(1.4))
}

func TestSmoothedTargetIsClampedAndAdvanceConverges(t *testing.T) {
	p := Parameter{ID: "gain", Kind: ParamContinuous, Min: 0, Max: 1, Default: 0}
	s := NewSmoothed(p)
	s.Prepare(48000, 10)

	s.SetTarget(5) // out of range, must clamp to Max
	require.Equal(t, float32(1), s.Target())

	var last float32
	for i := 0; i < 10000; i++ {
		last = s.Advance()
	}
	assert.InDelta(t, 1.0, last, 1e-4, "Advance should converge to the clamped target")
}

func TestSmoothedResetSnapsToTarget(t *testing.T) {
	p := Parameter{ID: "mix", Kind: ParamContinuous, Min: 0, Max: 1, Default: 0}
	s := NewSmoothed(p)
	s.Prepare(48000, 10)
	s.SetTarget(1)
	s.Reset()
	assert.Equal(t, float32(1), s.Current())
}

func TestSmoothedParamSnapshotReturnsDescriptor(t *testing.T) {
	p := Parameter{ID: "pan", DisplayName: "Pan", Kind: ParamContinuous, Min: -1, Max: 1}
	s := NewSmoothed(p)
	assert.Equal(t, p, s.ParamSnapshot())
}
