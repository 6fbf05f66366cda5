// Package node defines the uniform contract every signal-graph node
// obeys — structural nodes (source, sink, splitter, mixer) and DSP
// effect kernels alike — plus the typed parameter descriptors and the
// factory registry the graph compiler resolves type tags against.
//
// This replaces the teacher's inheritance-flavored Channel interface
// (github.com/shaban/macaudio channels.go) with a flatter contract: a
// Node never knows about buses, engines, or plugin chains. It only
// knows how to prepare, process one block, reset, and release.
package node

import "fmt"

// PortKind distinguishes an input endpoint from an output endpoint.
type PortKind int

const (
	PortInput PortKind = iota
	PortOutput
)

// Port is a named, typed audio endpoint on a node.
type Port struct {
	ID   string
	Kind PortKind
}

// Standard port names shared by every simple (single in/out) node.
const (
	PortIn  = "in"
	PortOut = "out"
)

// ParamKind identifies the shape of a parameter's value.
type ParamKind int

const (
	ParamContinuous ParamKind = iota
	ParamBool
	ParamChoice
)

// Parameter describes one named, range-bounded control on a node. The
// fields are static (fixed at registration) and carry no live value; the
// live value lives in the atomic Smoothed or Flag cell the node keeps
// internally (see param.go and flag.go in this package).
type Parameter struct {
	ID          string
	DisplayName string
	Description string
	Kind        ParamKind

	Min, Max float32 // ParamContinuous only
	Unit     string  // ParamContinuous only

	Choices []string // ParamChoice only

	Default float32 // encodes bool as 0/1, choice as index
}

// Clamp returns v restricted to the parameter's valid range. Continuous
// parameters clamp to [Min,Max]; bool clamps to {0,1}; choice clamps to a
// valid index.
func (p Parameter) Clamp(v float32) float32 {
	switch p.Kind {
	case ParamContinuous:
		if v < p.Min {
			return p.Min
		}
		if v > p.Max {
			return p.Max
		}
		return v
	case ParamBool:
		if v != 0 {
			return 1
		}
		return 0
	case ParamChoice:
		n := float32(len(p.Choices) - 1)
		if n < 0 {
			n = 0
		}
		if v < 0 {
			return 0
		}
		if v > n {
			return n
		}
		return float32(int(v + 0.5))
	default:
		return v
	}
}

// RowLayout is an engine-opaque UI hint a node may expose; the engine
// never interprets it.
type RowLayout struct {
	Rows [][]string // each inner slice is the parameter ids shown on one row
}

// Node is the contract every processing unit in a compiled plan obeys.
// Implementations must be real-time safe inside Process: no allocation,
// no blocking, no unbounded loops, no panics escaping (faults must be
// absorbed — see Faulted below; a panic that does escape is recovered by
// graph's Render and reported through graph.FaultReporter).
type Node interface {
	// Prepare is called exactly once per (sampleRate, maxFrames) pair
	// before the first Process call. It is idempotent when called again
	// with identical arguments. All heap allocation happens here.
	Prepare(sampleRate float64, maxFrames int) error

	// Ports returns the node's input and output port list. Stable across
	// the node's lifetime.
	Ports() []Port

	// ProcessMono processes exactly frames samples through a single
	// input/output pair. Source nodes ignore in; sink nodes ignore out.
	ProcessMono(in, out []float32, frames int)

	// ProcessStereo processes exactly frames samples through a stereo
	// input/output pair.
	ProcessStereo(inL, inR, outL, outR []float32, frames int)

	// Stereo reports the node's own stereo preference. Fixed after
	// Prepare. graph.Compile does not consult it: every step is
	// dispatched by the plan-wide ChannelMode.
	Stereo() bool

	// Reset zeroes transient state (filter histories, delay lines,
	// envelopes, FFT accumulators). Parameter values and prepared buffers
	// survive a Reset.
	Reset()

	// Release frees any resources held by the node. Called from the
	// control thread once the node leaves every plan that references it.
	Release()

	// Parameters returns the node's parameter descriptors. Stable across
	// the node's lifetime.
	Parameters() []Parameter

	// SetParameter applies a control-thread write to a named parameter.
	// Unknown ids are a silent no-op (matches the control channel's
	// discard-on-unknown-node rule at one level up).
	SetParameter(id string, value float32)

	// LatencySamples reports a fixed latency introduced by internal
	// buffering (e.g. FFT overlap-add). Stable after Prepare.
	LatencySamples() int

	// RowLayout is an optional, engine-opaque UI hint.
	RowLayout() RowLayout
}

// Faulted is implemented by nodes that can report a transient processing
// fault absorbed during the last Process call (§4.1: "may not throw;
// error conditions must be absorbed ... and reported via the metrics
// channel"). Neither the scheduler nor graph's Render calls TookFault;
// only panics recovered by Render reach graph.FaultReporter.
type Faulted interface {
	TookFault() bool
}

// MultiPort is implemented by the structural node kinds (splitter, mixer,
// source, sink) whose port count isn't fixed at one input and one output.
// The runtime type-asserts for this before falling back to ProcessMono/
// ProcessStereo, so ordinary effect nodes never need to know it exists.
// ins and outs are ordered to match Ports()'s input/output subsequences;
// either slice may be empty (source has no inputs, sink has no outputs).
// Implementations must still satisfy Node — ProcessMono/ProcessStereo can
// simply delegate to the same per-sample work with a single-element slice.
type MultiPort interface {
	ProcessMonoMulti(ins, outs [][]float32, frames int)
	ProcessStereoMulti(insL, insR, outsL, outsR [][]float32, frames int)
}

// TypeTag names a registered effect kind or one of the four structural
// kinds. Resolved by the factory registry during compilation.
type TypeTag string

const (
	TypeSource   TypeTag = "source"
	TypeSink     TypeTag = "sink"
	TypeSplitter TypeTag = "splitter"
	TypeMixer    TypeTag = "mixer"
)

// Config carries the node descriptor's type-specific configuration
// (splitter fanout, mixer fan-in/levels/pans/master, etc.) plus the
// initial parameter map, both parsed from the rig's JSON by the rig
// package and handed to the node factory untouched.
type Config struct {
	Parameters map[string]float32
	// Splitter
	NumOutputs int
	// Mixer
	NumInputs   int
	StereoMode  string // "MONO" | "STEREO"
	Levels      []float32
	Pans        []float32
	MasterLevel float32
}

// Factory constructs a fresh, unprepared Node instance for a type tag.
type Factory func(id string, cfg Config) (Node, error)

var registry = map[TypeTag]Factory{}

// Register adds a factory for a type tag. Call from an init() in the
// package implementing the effect — the teacher does the analogous thing
// implicitly via its plugins package's introspection; here it is explicit
// because there is no external plugin host to introspect.
func Register(tag TypeTag, f Factory) {
	registry[tag] = f
}

// Lookup resolves a type tag to its factory. ok is false for an unknown
// type, which the compiler turns into an UnknownEffectType compile error.
func Lookup(tag TypeTag) (Factory, bool) {
	f, ok := registry[tag]
	return f, ok
}

// Registered returns the set of currently registered type tags, for
// diagnostics.
func Registered() []TypeTag {
	tags := make([]TypeTag, 0, len(registry))
	for t := range registry {
		tags = append(tags, t)
	}
	return tags
}

func (t TypeTag) String() string { return string(t) }

// ErrUnknownParameter reports a parameter id with no matching descriptor
// on a node. No function in this module returns it.
type ErrUnknownParameter struct {
	NodeID, ParamID string
}

func (e ErrUnknownParameter) Error() string {
	return fmt.Sprintf("node %q has no parameter %q", e.NodeID, e.ParamID)
}
