package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/jfxrig/node"
)

func TestGainUnityAtZeroDB(t *testing.T) {
	n, err := newGain("g1", node.Config{})
	require.NoError(t, err)
	g := n.(*gain)
	require.NoError(t, g.Prepare(48000, 64))

	in := []float32{0.1, 0.2, 0.3, -0.4}
	out := make([]float32, len(in))
	// advance enough blocks for the smoother to settle at its 0dB default
	for i := 0; i < 2000; i++ {
		g.ProcessMono(in, out, len(in))
	}
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-3)
	}
}

func TestGainAppliesConfiguredLevelImmediately(t *testing.T) {
	n, err := newGain("g2", node.Config{Parameters: map[string]float32{"gainDb": -6}})
	require.NoError(t, err)
	g := n.(*gain)
	require.NoError(t, g.Prepare(48000, 64))

	in := []float32{1, 1, 1, 1}
	out := make([]float32, len(in))
	g.ProcessMono(in, out, len(in))

	expected := dbToLinear(-6)
	for _, v := range out {
		assert.InDelta(t, expected, v, 1e-5)
	}
}

func TestGainSilenceInSilenceOut(t *testing.T) {
	n, err := newGain("g3", node.Config{})
	require.NoError(t, err)
	g := n.(*gain)
	require.NoError(t, g.Prepare(48000, 64))

	in := make([]float32, 32)
	out := make([]float32, 32)
	g.ProcessMono(in, out, len(in))
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestGainRegisteredUnderItsTypeTag(t *testing.T) {
	factory, ok := node.Lookup("gain")
	require.True(t, ok)
	n, err := factory("g4", node.Config{})
	require.NoError(t, err)
	_, isGain := n.(*gain)
	assert.True(t, isGain)
}
