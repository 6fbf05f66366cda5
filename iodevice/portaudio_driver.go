package iodevice

import "github.com/gordonklaus/portaudio"

// PortAudioDriver is the live hardware driver, grounded on the
// OpenDefaultStream(in, out, sampleRate, framesPerBuffer, callback)
// pattern other_examples' dynsim audio processor uses: the binding
// resolves the callback's shape by reflection, handing a plain []float32
// for a single channel and a [][]float32 (one slice per channel) once
// more than one channel is open.
type PortAudioDriver struct {
	stream     *portaudio.Stream
	sampleRate float64
	blockSize  int
	stereo     bool
	cb         Callback
}

// NewPortAudioDriver returns an unconfigured driver.
func NewPortAudioDriver() *PortAudioDriver {
	return &PortAudioDriver{}
}

func (d *PortAudioDriver) Configure(sampleRate float64, blockSize int, stereo bool) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	d.sampleRate = sampleRate
	d.blockSize = blockSize
	d.stereo = stereo
	return nil
}

func (d *PortAudioDriver) Start(cb Callback) error {
	d.cb = cb
	numChannels := 1
	if d.stereo {
		numChannels = 2
	}

	var stream *portaudio.Stream
	var err error
	if d.stereo {
		stream, err = portaudio.OpenDefaultStream(numChannels, numChannels, d.sampleRate, d.blockSize, d.processStereo)
	} else {
		stream, err = portaudio.OpenDefaultStream(numChannels, numChannels, d.sampleRate, d.blockSize, d.processMono)
	}
	if err != nil {
		return err
	}
	d.stream = stream
	return stream.Start()
}

func (d *PortAudioDriver) processMono(in, out []float32) {
	d.cb(in, nil, out, nil, len(in))
}

func (d *PortAudioDriver) processStereo(in, out [][]float32) {
	d.cb(in[0], in[1], out[0], out[1], len(in[0]))
}

func (d *PortAudioDriver) Stop() error {
	if d.stream == nil {
		return nil
	}
	return d.stream.Stop()
}

func (d *PortAudioDriver) Close() error {
	var err error
	if d.stream != nil {
		err = d.stream.Close()
	}
	portaudio.Terminate()
	return err
}

func (d *PortAudioDriver) SampleRate() float64 { return d.sampleRate }
func (d *PortAudioDriver) BlockSize() int       { return d.blockSize }
