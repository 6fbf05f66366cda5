package iodevice

// MemoryDriver feeds pre-loaded sample data through a Callback block by
// block, with no hardware and no real-time clock, and records whatever
// the callback writes to its output arguments. Used by the offline
// renderer and by tests that need a bit-for-bit reproducible run
// (§4.10, §8's offline-equals-real-time property): the same plan driven
// by this instead of PortAudioDriver must produce identical output.
type MemoryDriver struct {
	sampleRate float64
	blockSize  int
	stereo     bool

	inL, inR   []float32
	outL, outR []float32
	pos        int
}

// NewMemoryDriver creates a driver that will feed inL/inR (inR ignored
// in mono mode) and accumulate whatever the callback renders.
func NewMemoryDriver(inL, inR []float32) *MemoryDriver {
	return &MemoryDriver{inL: inL, inR: inR}
}

func (d *MemoryDriver) Configure(sampleRate float64, blockSize int, stereo bool) error {
	d.sampleRate = sampleRate
	d.blockSize = blockSize
	d.stereo = stereo
	return nil
}

// Start is a no-op: this driver has no background thread. Call RunAll to
// actually drive the callback.
func (d *MemoryDriver) Start(cb Callback) error { return nil }

// RunAll drives cb once per block until the staged input is exhausted,
// zero-filling the final partial block, accumulating every sample the
// callback wrote to its output arguments.
func (d *MemoryDriver) RunAll(cb Callback) {
	inBlockL := make([]float32, d.blockSize)
	inBlockR := make([]float32, d.blockSize)
	outBlockL := make([]float32, d.blockSize)
	outBlockR := make([]float32, d.blockSize)

	total := len(d.inL)
	for {
		if d.pos >= total {
			break
		}
		n := copy(inBlockL, d.inL[d.pos:])
		for i := n; i < d.blockSize; i++ {
			inBlockL[i] = 0
		}
		if d.stereo && d.inR != nil {
			copy(inBlockR, d.inR[d.pos:])
			for i := n; i < d.blockSize; i++ {
				inBlockR[i] = 0
			}
		}
		for i := range outBlockL {
			outBlockL[i] = 0
		}
		for i := range outBlockR {
			outBlockR[i] = 0
		}

		if d.stereo {
			cb(inBlockL, inBlockR, outBlockL, outBlockR, d.blockSize)
		} else {
			cb(inBlockL, nil, outBlockL, nil, d.blockSize)
		}

		d.outL = append(d.outL, outBlockL...)
		if d.stereo {
			d.outR = append(d.outR, outBlockR...)
		}
		d.pos += d.blockSize
	}
}

// Output returns every sample accumulated so far.
func (d *MemoryDriver) Output() (l, r []float32) { return d.outL, d.outR }

func (d *MemoryDriver) Stop() error             { return nil }
func (d *MemoryDriver) Close() error            { return nil }
func (d *MemoryDriver) SampleRate() float64 { return d.sampleRate }
func (d *MemoryDriver) BlockSize() int       { return d.blockSize }
