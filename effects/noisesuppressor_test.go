package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/jfxrig/node"
)

func TestNoiseSuppressorSilenceStaysSilent(t *testing.T) {
	n, err := newNoiseSuppressor("ns", node.Config{})
	require.NoError(t, err)
	ns := n.(*noiseSuppressor)
	require.NoError(t, ns.Prepare(48000, 512))

	in := make([]float32, suppressorFFTSize*2)
	out := make([]float32, len(in))
	ns.ProcessMono(in, out, len(in))
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestNoiseSuppressorLatencyMatchesFFTSize(t *testing.T) {
	n, err := newNoiseSuppressor("ns", node.Config{})
	require.NoError(t, err)
	ns := n.(*noiseSuppressor)
	assert.Equal(t, suppressorFFTSize, ns.LatencySamples())
}

func TestNoiseSuppressorParametersReflectOverrides(t *testing.T) {
	n, err := newNoiseSuppressor("ns", node.Config{Parameters: map[string]float32{"reductionDb": 30, "sensitivity": 2}})
	require.NoError(t, err)
	ns := n.(*noiseSuppressor)
	params := ns.Parameters()
	require.Len(t, params, 2)
	assert.InDelta(t, 30, ns.reductionDb.Target(), 1e-6)
	assert.InDelta(t, 2, ns.sensitivity.Target(), 1e-6)

	ns.SetParameter("reductionDb", 12)
	assert.InDelta(t, 12, ns.reductionDb.Target(), 1e-6)
	ns.SetParameter("sensitivity", 3)
	assert.InDelta(t, 3, ns.sensitivity.Target(), 1e-6)
}

func TestNoiseSuppressorResetClearsChannelStateInPlace(t *testing.T) {
	n, err := newNoiseSuppressor("ns", node.Config{})
	require.NoError(t, err)
	ns := n.(*noiseSuppressor)
	require.NoError(t, ns.Prepare(48000, 512))

	in := make([]float32, suppressorHop)
	for i := range in {
		in[i] = 0.5
	}
	out := make([]float32, suppressorHop)
	ns.ProcessMono(in, out, suppressorHop)

	chL := ns.chL
	ns.Reset()
	assert.Same(t, chL, ns.chL, "reset must not reallocate the channel")
	assert.Zero(t, ns.chL.ringLen, "reset should start with an empty output ring")
	assert.Zero(t, ns.chL.pendingLen, "reset should clear any partially-filled hop")
}

func TestNoiseSuppressorRegisteredUnderItsTypeTag(t *testing.T) {
	f, ok := node.Lookup("noiseSuppressor")
	require.True(t, ok)
	_, err := f("x", node.Config{})
	require.NoError(t, err)
}
