// Package scheduler drives the audio thread: drain control ops, feed
// sources, render the plan, drain sinks, measure — once per callback
// (§5). Nothing here allocates, locks, or blocks once Start has returned.
package scheduler

import (
	"time"

	"github.com/shaban/jfxrig/control"
	"github.com/shaban/jfxrig/graph"
	"github.com/shaban/jfxrig/iodevice"
)

// Scheduler owns the live plan holder, the control-op queue, and the
// driver whose callback it answers.
type Scheduler struct {
	driver  iodevice.Driver
	holder  *control.PlanHolder
	queue   *control.Queue
	metrics *Metrics
	bypass  *graph.BypassState
	budget  time.Duration
}

// New creates a scheduler bound to driver and holder. holder must already
// hold the plan to render on the first callback.
func New(driver iodevice.Driver, holder *control.PlanHolder, queue *control.Queue, initial *graph.ExecutionPlan, blockSize int, sampleRate float64) *Scheduler {
	return &Scheduler{
		driver:  driver,
		holder:  holder,
		queue:   queue,
		metrics: NewMetrics(),
		bypass:  graph.NewBypassState(initial.Steps),
		budget:  time.Duration(float64(blockSize) / sampleRate * float64(time.Second)),
	}
}

// Metrics returns the scheduler's live health counters.
func (s *Scheduler) Metrics() *Metrics { return s.metrics }

// Callback exposes the scheduler's per-block callback directly, for
// drivers the scheduler doesn't start itself — the offline renderer
// hands this straight to a MemoryDriver's RunAll instead of going
// through Start, since MemoryDriver has no background thread to hand a
// callback to at Start time.
func (s *Scheduler) Callback() iodevice.Callback { return s.callback }

// Start configures and starts the driver with this scheduler's callback.
func (s *Scheduler) Start(sampleRate float64, blockSize int, stereo bool) error {
	if err := s.driver.Configure(sampleRate, blockSize, stereo); err != nil {
		return err
	}
	return s.driver.Start(s.callback)
}

// Stop halts the driver; the scheduler itself holds no other resources.
func (s *Scheduler) Stop() error { return s.driver.Stop() }

func (s *Scheduler) callback(in, inR, out, outR []float32, frames int) {
	start := time.Now()

	s.queue.Drain(s.apply)

	plan := s.holder.Load()
	if plan == nil {
		zero(out)
		zero(outR)
		return
	}

	stereo := inR != nil
	for _, src := range plan.Sources {
		if stereo {
			src.FeedStereo(in, inR, frames)
		} else {
			src.Feed(in, frames)
		}
	}

	plan.Render(frames, s.bypass, s.metrics)

	for _, snk := range plan.Sinks {
		if stereo {
			l, r := snk.DrainStereo()
			copy(out[:frames], l[:frames])
			copy(outR[:frames], r[:frames])
		} else {
			l := snk.Drain()
			copy(out[:frames], l[:frames])
		}
	}

	s.holder.Tick()
	s.metrics.recordCallback(time.Since(start), s.budget)
	if stereo {
		s.metrics.recordPeaks(out[:frames], outR[:frames])
	} else {
		s.metrics.recordPeaks(out[:frames], nil)
	}
}

// apply dispatches one drained control op. Audio-thread only — this is
// the real-time-safe counterpart of what the teacher's dispatcher.go
// does on a dedicated goroutine for plugin-chain mutations.
func (s *Scheduler) apply(op control.Op) {
	switch op.Kind {
	case control.OpSwapPlan:
		s.holder.Install(op.Plan)
		s.bypass = op.Bypass
	case control.OpSetParameter:
		if plan := s.holder.Load(); plan != nil {
			if st, ok := plan.ByID[op.NodeID]; ok {
				st.Node.SetParameter(op.ParamID, op.Value)
			}
		}
	case control.OpSetBypass:
		if s.bypass != nil {
			s.bypass.Set(op.NodeID, op.Bypassed)
		}
	case control.OpResetNode:
		if plan := s.holder.Load(); plan != nil {
			if st, ok := plan.ByID[op.NodeID]; ok {
				st.Node.Reset()
			}
		}
	case control.OpResetAll:
		if plan := s.holder.Load(); plan != nil {
			for _, st := range plan.Steps {
				st.Node.Reset()
			}
		}
	}
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
