package effects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/jfxrig/model"
	"github.com/shaban/jfxrig/node"
)

const identitySumModel = `JFXNN1
2
1
1
2,1,LINEAR
1,1
0
`

func TestNeuralLayerIsPassthroughWithNoModelLoaded(t *testing.T) {
	n, err := newNeuralLayer("n", node.Config{})
	require.NoError(t, err)
	nl := n.(*neuralLayer)
	require.NoError(t, nl.Prepare(48000, 64))

	in := []float32{0.1, -0.2, 0.3}
	out := make([]float32, 3)
	nl.ProcessMono(in, out, 3)
	assert.Equal(t, in, out)
}

func TestNeuralLayerZeroOutputWithFullMixAndNoModel(t *testing.T) {
	n, err := newNeuralLayer("n", node.Config{Parameters: map[string]float32{"mix": 1}})
	require.NoError(t, err)
	nl := n.(*neuralLayer)
	require.NoError(t, nl.Prepare(48000, 64))

	in := []float32{0.5, 0.5}
	out := make([]float32, 2)
	nl.ProcessMono(in, out, 2)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestNeuralLayerRunsForwardOnceWindowFills(t *testing.T) {
	n, err := newNeuralLayer("n", node.Config{Parameters: map[string]float32{"mix": 1}})
	require.NoError(t, err)
	nl := n.(*neuralLayer)
	require.NoError(t, nl.Prepare(48000, 64))

	m, err := model.Load(strings.NewReader(identitySumModel))
	require.NoError(t, err)
	nl.LoadModel(m)

	in := []float32{0.3, 0.4}
	out := make([]float32, 2)
	nl.ProcessMono(in, out, 2)

	assert.Equal(t, float32(0), out[0], "window not yet full on the first sample")
	assert.InDelta(t, 0.7, out[1], 1e-5, "second sample completes the 2-wide window, sum=0.3+0.4")
}

func TestNeuralLayerResetRebuildsWindow(t *testing.T) {
	n, err := newNeuralLayer("n", node.Config{Parameters: map[string]float32{"mix": 1}})
	require.NoError(t, err)
	nl := n.(*neuralLayer)
	require.NoError(t, nl.Prepare(48000, 64))

	m, err := model.Load(strings.NewReader(identitySumModel))
	require.NoError(t, err)
	nl.LoadModel(m)

	in := []float32{0.3, 0.4}
	out := make([]float32, 2)
	nl.ProcessMono(in, out, 2)
	require.InDelta(t, 0.7, out[1], 1e-5)

	nl.Reset()
	nl.ProcessMono(in, out, 2)
	assert.Equal(t, float32(0), out[0], "reset empties the window, so inference can't run on the first sample again")
}

func TestNeuralLayerRegisteredUnderItsTypeTag(t *testing.T) {
	f, ok := node.Lookup("neuralLayer")
	require.True(t, ok)
	_, err := f("x", node.Config{})
	require.NoError(t, err)
}
