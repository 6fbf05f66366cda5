package effects

import (
	"math"

	"github.com/smallnest/ringbuffer"

	"github.com/shaban/jfxrig/model"
	"github.com/shaban/jfxrig/node"
)

func init() {
	node.Register("neuralLayer", newNeuralLayer)
}

// neuralLayer is the optional dense feedforward inference effect (§4.9
// addendum): a sliding window of past samples feeds a loaded JFXNN1
// model once per sample, blended against the dry signal by a mix
// parameter. With no model loaded it is a pure passthrough — LoadModel
// is a control-thread call analogous to a preset load, not part of the
// node's construction.
//
// The sliding window is kept in a github.com/smallnest/ringbuffer byte
// ring rather than a plain slice, grounded on tphakala-birdnet-go's
// ring-buffer-backed analysis buffer. Process still never allocates:
// the ring is sized once in LoadModel, and inference peeks its contents
// by reading into a preallocated scratch slice and writing the same
// bytes straight back, rather than dequeuing them.
type neuralLayer struct {
	id  string
	mix *node.Smoothed

	model      *model.Model
	windowSize int
	ring       *ringbuffer.RingBuffer
	windowRaw  []byte
	window     []float32
	popScratch []byte
}

func newNeuralLayer(id string, cfg node.Config) (node.Node, error) {
	n := &neuralLayer{id: id, popScratch: make([]byte, 4)}
	n.mix = node.NewSmoothed(node.Parameter{
		ID: "mix", DisplayName: "Mix", Kind: node.ParamContinuous,
		Min: 0, Max: 1, Default: 0, Unit: "x",
	})
	if v, ok := cfg.Parameters["mix"]; ok {
		n.mix.SetTarget(v)
		n.mix.Reset()
	}
	return n, nil
}

// LoadModel installs m, replacing whatever model (if any) was loaded
// before, and resizes the sliding-window ring to match its input width.
func (n *neuralLayer) LoadModel(m *model.Model) {
	n.model = m
	n.windowSize = m.InputWindowSize
	n.ring = ringbuffer.New(n.windowSize * 4)
	n.windowRaw = make([]byte, n.windowSize*4)
	n.window = make([]float32, n.windowSize)
}

func (n *neuralLayer) Prepare(sampleRate float64, maxFrames int) error {
	n.mix.Prepare(sampleRate, 10)
	return nil
}

func (n *neuralLayer) Ports() []node.Port {
	return []node.Port{{ID: node.PortIn, Kind: node.PortInput}, {ID: node.PortOut, Kind: node.PortOutput}}
}

func (n *neuralLayer) pushSample(sample float32) {
	if n.ring == nil {
		return
	}
	if n.ring.Length() >= len(n.windowRaw) {
		n.ring.Read(n.popScratch) // drop the oldest sample to make room
	}
	bits := math.Float32bits(sample)
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24)
	n.ring.Write(b[:])
}

// infer peeks the current window (read, then immediately written back
// so the ring's contents are undisturbed) and runs one forward pass.
func (n *neuralLayer) infer() float32 {
	if n.model == nil || n.ring.Length() < len(n.windowRaw) {
		return 0
	}
	nRead, _ := n.ring.Read(n.windowRaw)
	n.ring.Write(n.windowRaw[:nRead])
	for i := 0; i < n.windowSize; i++ {
		off := i * 4
		bits := uint32(n.windowRaw[off]) | uint32(n.windowRaw[off+1])<<8 | uint32(n.windowRaw[off+2])<<16 | uint32(n.windowRaw[off+3])<<24
		n.window[i] = math.Float32frombits(bits)
	}
	out := n.model.Forward(n.window)
	if len(out) == 0 {
		return 0
	}
	return out[0]
}

func (n *neuralLayer) ProcessMono(in, out []float32, frames int) {
	mix := n.mix.Advance()
	for i := 0; i < frames; i++ {
		n.pushSample(in[i])
		wet := n.infer()
		out[i] = in[i]*(1-mix) + wet*mix
	}
}

func (n *neuralLayer) ProcessStereo(inL, inR, outL, outR []float32, frames int) {
	mix := n.mix.Advance()
	for i := 0; i < frames; i++ {
		n.pushSample(inL[i])
		wet := n.infer()
		outL[i] = inL[i]*(1-mix) + wet*mix
		outR[i] = inR[i]*(1-mix) + wet*mix
	}
}

func (n *neuralLayer) Stereo() bool { return false }

func (n *neuralLayer) Reset() {
	if n.windowSize > 0 {
		n.ring = ringbuffer.New(n.windowSize * 4)
	}
}

func (n *neuralLayer) Release() {}

func (n *neuralLayer) Parameters() []node.Parameter {
	return []node.Parameter{n.mix.ParamSnapshot()}
}

func (n *neuralLayer) SetParameter(id string, value float32) {
	if id == "mix" {
		n.mix.SetTarget(value)
	}
}

func (n *neuralLayer) LatencySamples() int { return 0 }

func (n *neuralLayer) RowLayout() node.RowLayout {
	return node.RowLayout{Rows: [][]string{{"mix"}}}
}
