package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/jfxrig/node"
)

func TestDrumMachineSilentWhenNotPlaying(t *testing.T) {
	n, err := newDrumMachine("dm1", node.Config{Parameters: map[string]float32{"playing": 0}})
	require.NoError(t, err)
	d := n.(*drumMachine)
	require.NoError(t, d.Prepare(48000, 4096))

	out := make([]float32, 4096)
	in := make([]float32, 4096)
	d.ProcessMono(in, out, len(out))
	for _, v := range out {
		assert.Equal(t, float32(0), v, "a stopped drum machine must produce silence")
	}
}

func TestDrumMachineTriggersKickOnStepZero(t *testing.T) {
	n, err := newDrumMachine("dm2", node.Config{Parameters: map[string]float32{"bpm": 120}})
	require.NoError(t, err)
	d := n.(*drumMachine)
	require.NoError(t, d.Prepare(48000, 8192))

	out := make([]float32, 8192)
	in := make([]float32, 8192)
	d.ProcessMono(in, out, len(out))

	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "the default pattern's first kick should produce audible output within one block")
}

func TestDrumMachineSetPatternReplacesDefault(t *testing.T) {
	n, err := newDrumMachine("dm3", node.Config{})
	require.NoError(t, err)
	d := n.(*drumMachine)

	var empty Pattern // every lane silent
	d.SetPattern(empty)
	assert.Equal(t, empty, d.pattern)
}

func TestDrumMachineResetClearsVoicesAndSequencePosition(t *testing.T) {
	n, err := newDrumMachine("dm4", node.Config{})
	require.NoError(t, err)
	d := n.(*drumMachine)
	require.NoError(t, d.Prepare(48000, 8192))

	out := make([]float32, 8192)
	in := make([]float32, 8192)
	d.ProcessMono(in, out, len(out))
	require.NotZero(t, d.stepIndex+activeVoiceCount(d), "sequence should have advanced")

	d.Reset()
	assert.Equal(t, 0, d.stepIndex)
	assert.Zero(t, activeVoiceCount(d), "every pool slot should be inactive after Reset")
}

func activeVoiceCount(d *drumMachine) int {
	n := 0
	for i := range d.voices {
		if d.voices[i].active {
			n++
		}
	}
	return n
}

func TestDrumMachineSwingStretchesOddSteps(t *testing.T) {
	n, err := newDrumMachine("dm5", node.Config{Parameters: map[string]float32{"swing": 0.5}})
	require.NoError(t, err)
	d := n.(*drumMachine)
	require.NoError(t, d.Prepare(48000, 64))

	d.stepIndex = 1
	odd := d.currentInterval()
	d.stepIndex = 2
	even := d.currentInterval()
	assert.Greater(t, odd, even, "an odd step should be stretched relative to an even one under positive swing")
}
