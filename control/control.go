// Package control implements the single-producer/single-consumer channel
// that carries mutations from the control thread to the audio thread:
// plan swaps, parameter writes, bypass toggles, and resets (§5). It is a
// hand-rolled lock-free ring buffer rather than a Go channel or the
// smallnest/ringbuffer byte-stream buffer — the audio thread must never
// park on a channel receive or a mutex, and the payload here is a fixed-
// size typed struct, not a byte stream, so neither fits. Generalizes the
// teacher's engine/queue (a buffered channel draining to a worker
// goroutine) down to a non-blocking, alloc-free array with atomic
// head/tail indices, since the consumer here runs inside an audio
// callback rather than its own goroutine.
package control

import (
	"sync/atomic"

	"github.com/shaban/jfxrig/graph"
)

// OpKind identifies the payload shape stored in a queued Op.
type OpKind int

const (
	OpSwapPlan OpKind = iota
	OpSetParameter
	OpSetBypass
	OpResetNode
	OpResetAll
)

// Op is one control-channel message. Only the fields relevant to Kind are
// populated; the rest are zero.
type Op struct {
	Kind   OpKind
	Plan   *graph.ExecutionPlan // OpSwapPlan
	Bypass *graph.BypassState   // OpSwapPlan; built by the control thread so the
	// audio thread never allocates one itself

	NodeID   string  // OpSetParameter, OpSetBypass, OpResetNode
	ParamID  string  // OpSetParameter
	Value    float32 // OpSetParameter
	Bypassed bool    // OpSetBypass
}

// Queue is a bounded SPSC ring buffer of Op values. Enqueue is called
// from the control thread; Drain is called from the audio thread once per
// callback and never blocks. Enqueue never blocks either: a full queue
// drops the newest op and Enqueue returns false, with no retry.
type Queue struct {
	buf  []Op
	mask uint32
	head atomic.Uint32 // next slot to write (producer-owned)
	tail atomic.Uint32 // next slot to read (consumer-owned)
}

// NewQueue creates a queue with room for capacity ops, rounded up to the
// next power of two (required for the mask-based index wrap).
func NewQueue(capacity int) *Queue {
	n := nextPow2(capacity)
	return &Queue{buf: make([]Op, n), mask: uint32(n - 1)}
}

func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Enqueue appends op. Returns false if the queue is full.
func (q *Queue) Enqueue(op Op) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= uint32(len(q.buf)) {
		return false
	}
	q.buf[head&q.mask] = op
	q.head.Store(head + 1)
	return true
}

// Drain calls fn for every queued op, oldest first, removing each as it
// goes. Called once per audio callback; never allocates, never blocks.
func (q *Queue) Drain(fn func(Op)) {
	tail := q.tail.Load()
	head := q.head.Load()
	for tail != head {
		fn(q.buf[tail&q.mask])
		tail++
	}
	q.tail.Store(tail)
}
