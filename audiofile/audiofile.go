// Package audiofile reads 16-, 24- and 32-bit PCM WAV files and writes
// 16-bit PCM WAV files for the offline renderer (§4.10's "render"
// operation).
// Grounded on tphakala-birdnet-go's readAudioData: a go-audio/wav
// Decoder feeding an audio.IntBuffer, int samples scaled to float32 by
// bit depth, and the mirror image on the encode side.
package audiofile

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Read loads a mono or stereo 16/24/32-bit PCM WAV file, returning one
// float32 slice per channel scaled to [-1,1] and the file's sample rate.
// Stereo files return (left, right); mono files return (left, nil).
func Read(path string) (left, right []float32, sampleRate float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("audiofile: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, nil, 0, fmt.Errorf("audiofile: %s is not a valid WAV file", path)
	}

	var divisor float32
	switch dec.BitDepth {
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		return nil, nil, 0, fmt.Errorf("audiofile: unsupported bit depth %d", dec.BitDepth)
	}

	numChans := int(dec.NumChans)
	buf := &audio.IntBuffer{
		Data:   make([]int, 4096*numChans),
		Format: &audio.Format{SampleRate: int(dec.SampleRate), NumChannels: numChans},
	}

	var chL, chR []float32
	for {
		n, rerr := dec.PCMBuffer(buf)
		if rerr != nil {
			return nil, nil, 0, fmt.Errorf("audiofile: decode %s: %w", path, rerr)
		}
		if n == 0 {
			break
		}
		if numChans == 2 {
			for i := 0; i+1 < n; i += 2 {
				chL = append(chL, float32(buf.Data[i])/divisor)
				chR = append(chR, float32(buf.Data[i+1])/divisor)
			}
		} else {
			for i := 0; i < n; i++ {
				chL = append(chL, float32(buf.Data[i])/divisor)
			}
		}
	}
	return chL, chR, float64(dec.SampleRate), nil
}

// Write encodes left (and right, if non-nil) as a 16-bit PCM WAV file at
// sampleRate.
func Write(path string, left, right []float32, sampleRate float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiofile: create %s: %w", path, err)
	}
	defer f.Close()

	numChans := 1
	if right != nil {
		numChans = 2
	}
	enc := wav.NewEncoder(f, int(sampleRate), 16, numChans, 1)

	frames := len(left)
	data := make([]int, frames*numChans)
	for i := 0; i < frames; i++ {
		data[i*numChans] = clamp16(left[i])
		if right != nil {
			data[i*numChans+1] = clamp16(right[i])
		}
	}
	buf := &audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{SampleRate: int(sampleRate), NumChannels: numChans},
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiofile: encode %s: %w", path, err)
	}
	return enc.Close()
}

func clamp16(sample float32) int {
	v := sample * 32767.0
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int(v)
}
