package graph

import (
	"sync/atomic"

	"github.com/shaban/jfxrig/node"
)

// Step is one node's slot in a compiled, topologically sorted plan. Every
// buffer reference here is resolved once at compile time and never
// reassigned afterward — the render hot path only ever writes through
// slices it was handed at Prepare, so it never allocates.
type Step struct {
	NodeID string
	Node   node.Node
	Stereo bool

	// Bypassed is a compile-time snapshot; the control channel's
	// SetBypass op flips a live copy the runtime checks instead (see
	// control.Queue) — this field only seeds that live value.
	Bypassed bool

	// Simple (single in/out) node wiring.
	InL, InR   []float32
	OutL, OutR []float32

	// Multi-port (structural) node wiring — one slot per port, ordered
	// to match Ports()'s input/output subsequence.
	InsL, InsR   [][]float32
	OutsL, OutsR [][]float32

	multi node.MultiPort // non-nil only for structural nodes
}

// ExecutionPlan is the immutable result of compiling a rig description
// (§4.4). The audio thread only ever reads from a plan it already holds;
// installing a new one is the control package's job, never the plan's own.
type ExecutionPlan struct {
	Hash       string
	SampleRate float64
	MaxFrames  int
	ChannelMode string // "MONO" | "STEREO", copied from the rig's ChannelMode

	Steps   []*Step
	ByID    map[string]*Step
	Sources []*node.Source
	Sinks   []*node.Sink
}

// FaultReporter receives a step's node id whenever its Process call
// panics and the panic was absorbed rather than propagated (§7: runtime
// errors "must be absorbed ... and reported via the metrics channel").
type FaultReporter interface {
	ReportFault(nodeID string)
}

// BypassState lets the scheduler flip a node's bypass flag between
// render calls without touching the plan's own fields (which a second
// goroutine — the control thread — must never mutate concurrently).
type BypassState struct {
	flags map[string]*bypassCell
}

type bypassCell struct{ v atomic.Uint32 }

// NewBypassState seeds one cell per step from its compile-time bypass
// snapshot. Build once per plan; Set writes a cell atomically (the
// scheduler calls it on the audio thread when it drains an OpSetBypass),
// and Render reads the cells on the audio thread.
func NewBypassState(steps []*Step) *BypassState {
	bs := &BypassState{flags: make(map[string]*bypassCell, len(steps))}
	for _, st := range steps {
		c := &bypassCell{}
		if st.Bypassed {
			c.v.Store(1)
		}
		bs.flags[st.NodeID] = c
	}
	return bs
}

// Set flips a node's live bypass flag with an atomic store; unknown
// node ids are a silent no-op, matching the control channel's discard
// rule for other per-node ops.
func (bs *BypassState) Set(nodeID string, bypassed bool) {
	c, ok := bs.flags[nodeID]
	if !ok {
		return
	}
	if bypassed {
		c.v.Store(1)
	} else {
		c.v.Store(0)
	}
}

// Render processes exactly frames samples through every step in order.
// Steps are already topologically sorted, so a single front-to-back pass
// is correct: every step's inputs were written by an earlier step (or
// staged into a source before Render was called).
func (p *ExecutionPlan) Render(frames int, bypass *BypassState, faults FaultReporter) {
	for _, st := range p.Steps {
		bypassed := st.Bypassed
		if bypass != nil {
			if c, ok := bypass.flags[st.NodeID]; ok {
				bypassed = c.v.Load() != 0
			}
		}
		runStep(st, frames, bypassed, faults)
	}
}

func runStep(st *Step, frames int, bypassed bool, faults FaultReporter) {
	defer func() {
		if r := recover(); r != nil {
			if faults != nil {
				faults.ReportFault(st.NodeID)
			}
			silenceStep(st, frames)
		}
	}()

	if bypassed {
		bypassCopy(st, frames)
		return
	}

	if st.multi != nil {
		if st.Stereo {
			st.multi.ProcessStereoMulti(st.InsL, st.InsR, st.OutsL, st.OutsR, frames)
		} else {
			st.multi.ProcessMonoMulti(st.InsL, st.OutsL, frames)
		}
		return
	}

	if st.Stereo {
		st.Node.ProcessStereo(st.InL, st.InR, st.OutL, st.OutR, frames)
	} else {
		st.Node.ProcessMono(st.InL, st.OutL, frames)
	}
}

// bypassCopy implements engine-level bypass: the input buffer is copied
// straight to the output buffer, the node's Process is never called
// (§4.1). Structural nodes are rarely bypassed in practice; when they are,
// the first input and first output slot stand in for the pass-through.
func bypassCopy(st *Step, frames int) {
	if st.multi != nil {
		if st.Stereo {
			if len(st.InsL) > 0 && len(st.OutsL) > 0 {
				copy(st.OutsL[0][:frames], st.InsL[0][:frames])
			}
			if len(st.InsR) > 0 && len(st.OutsR) > 0 {
				copy(st.OutsR[0][:frames], st.InsR[0][:frames])
			}
			return
		}
		if len(st.InsL) > 0 && len(st.OutsL) > 0 {
			copy(st.OutsL[0][:frames], st.InsL[0][:frames])
		}
		return
	}
	if st.Stereo {
		copy(st.OutL[:frames], st.InL[:frames])
		copy(st.OutR[:frames], st.InR[:frames])
		return
	}
	copy(st.OutL[:frames], st.InL[:frames])
}

func silenceStep(st *Step, frames int) {
	zero := func(b []float32) {
		for i := 0; i < frames && i < len(b); i++ {
			b[i] = 0
		}
	}
	if st.multi != nil {
		for _, o := range st.OutsL {
			zero(o)
		}
		for _, o := range st.OutsR {
			zero(o)
		}
		return
	}
	zero(st.OutL)
	zero(st.OutR)
}
