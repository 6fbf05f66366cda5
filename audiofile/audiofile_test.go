package audiofile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMonoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	left := []float32{0, 0.5, -0.5, 0.25, -1, 1}

	require.NoError(t, Write(path, left, nil, 48000))

	gotL, gotR, sampleRate, err := Read(path)
	require.NoError(t, err)
	assert.Nil(t, gotR)
	assert.Equal(t, 48000.0, sampleRate)
	require.Len(t, gotL, len(left))
	for i := range left {
		assert.InDelta(t, left[i], gotL[i], 1e-3)
	}
}

func TestWriteReadStereoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	left := []float32{0.1, 0.2, 0.3}
	right := []float32{-0.1, -0.2, -0.3}

	require.NoError(t, Write(path, left, right, 44100))

	gotL, gotR, sampleRate, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 44100.0, sampleRate)
	require.Len(t, gotL, 3)
	require.Len(t, gotR, 3)
	for i := range left {
		assert.InDelta(t, left[i], gotL[i], 1e-3)
		assert.InDelta(t, right[i], gotR[i], 1e-3)
	}
}

func TestClamp16SaturatesOutOfRangeSamples(t *testing.T) {
	assert.Equal(t, 32767, clamp16(2.0))
	assert.Equal(t, -32768, clamp16(-2.0))
}
