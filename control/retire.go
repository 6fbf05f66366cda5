package control

import (
	"sync/atomic"

	"github.com/shaban/jfxrig/graph"
)

const retireSlots = 16 // outstanding plan swaps awaiting reclamation

type retiredPlan struct {
	plan  *graph.ExecutionPlan
	epoch uint64
}

// PlanHolder is the audio thread's live plan pointer plus an epoch
// counter the audio thread alone advances, once per render call. The
// control thread reads the epoch to know when a just-replaced plan is
// safe to tear down (§5: "epoch-based retirement of replaced plans") —
// no lock is needed because exactly one side ever writes each field.
// Install is called from the audio thread (while applying a drained
// OpSwapPlan), so the outgoing retired-plan record goes into a fixed-size
// array rather than an appended slice — no allocation on that path.
type PlanHolder struct {
	current atomic.Pointer[graph.ExecutionPlan]
	epoch   atomic.Uint64

	retired  [retireSlots]retiredPlan
	retireAt atomic.Uint32 // next slot to write (audio thread)
	drainAt  atomic.Uint32 // next slot to read (control thread)
}

// NewPlanHolder creates a holder already pointing at initial.
func NewPlanHolder(initial *graph.ExecutionPlan) *PlanHolder {
	h := &PlanHolder{}
	h.current.Store(initial)
	return h
}

// Load returns the plan to render this callback. Audio-thread only.
func (h *PlanHolder) Load() *graph.ExecutionPlan {
	return h.current.Load()
}

// Tick marks that one render call has completed under whatever plan was
// loaded. Call exactly once per callback, after Render returns.
func (h *PlanHolder) Tick() {
	h.epoch.Add(1)
}

// Epoch returns the current epoch. Control-thread only.
func (h *PlanHolder) Epoch() uint64 {
	return h.epoch.Load()
}

// Install swaps in next, audio-thread side. The previous plan is queued
// for retirement internally; if the retirement ring is full (an
// unreasonably fast swap rate) the previous plan is not queued at all, so
// Drain never sees it and its nodes' Release is never called.
func (h *PlanHolder) Install(next *graph.ExecutionPlan) {
	prev := h.current.Swap(next)
	if prev == nil {
		return
	}
	at := h.retireAt.Load()
	drain := h.drainAt.Load()
	if at-drain >= retireSlots {
		return // ring full: previous plan leaks its node resources rather than risk a stall
	}
	h.retired[at%retireSlots] = retiredPlan{plan: prev, epoch: h.epoch.Load()}
	h.retireAt.Store(at + 1)
}

// Retirer drains PlanHolder's retirement ring and releases every plan
// whose swap epoch the audio thread has since moved past. Control-thread
// only.
type Retirer struct {
	holder *PlanHolder
}

// NewRetirer creates a retirer bound to holder.
func NewRetirer(h *PlanHolder) *Retirer {
	return &Retirer{holder: h}
}

// Reclaim releases every pending plan the audio thread has definitely
// moved on from. Call periodically from the control thread; cheap and
// safe to call even when nothing is pending.
func (r *Retirer) Reclaim() {
	now := r.holder.Epoch()
	drain := r.holder.drainAt.Load()
	at := r.holder.retireAt.Load()
	for drain != at {
		rp := r.holder.retired[drain%retireSlots]
		if now <= rp.epoch {
			break // not yet safe; stop and retry on the next call
		}
		releasePlan(rp.plan)
		drain++
	}
	r.holder.drainAt.Store(drain)
}

func releasePlan(p *graph.ExecutionPlan) {
	if p == nil {
		return
	}
	for _, st := range p.Steps {
		st.Node.Release()
	}
}
