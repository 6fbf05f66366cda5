// Package iodevice abstracts the audio hardware boundary: a live
// portaudio-backed driver for real-time playing, and a memory-backed
// driver for the offline renderer and for deterministic tests (§4.10).
package iodevice

// Callback is invoked once per audio block. in/inR carry the frames
// captured this block (inR is nil in mono mode); out/outR must be filled
// with exactly frames samples before the callback returns (outR is nil
// in mono mode). Implementations must treat this as the real-time
// boundary: no allocation, no blocking, no I/O inside it.
type Callback func(in, inR []float32, out, outR []float32, frames int)

// Driver is the interface the block scheduler drives. A concrete driver
// owns the actual stream (hardware or memory) and the staging buffers it
// hands to Callback.
type Driver interface {
	Configure(sampleRate float64, blockSize int, stereo bool) error
	Start(cb Callback) error
	Stop() error
	Close() error
	SampleRate() float64
	BlockSize() int
}
