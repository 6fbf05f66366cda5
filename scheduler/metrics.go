package scheduler

import (
	"math"
	"sync/atomic"
	"time"
)

// Metrics tracks the block scheduler's running health counters. Every
// write happens from the audio thread using plain atomics — no lock, no
// allocation — and reads happen from the control thread for display or
// export. The CPU-load exponential moving average mirrors the teacher's
// session package's habit of smoothing noisy per-event signal into a
// single running number (see MetricsHook callers), generalized from
// discrete scan durations to a per-block load ratio.
type Metrics struct {
	callbacks atomic.Uint64
	dropouts  atomic.Uint64
	faults    atomic.Uint64
	peakL     atomic.Uint32 // float32 bits
	peakR     atomic.Uint32
	cpuLoad   atomic.Uint32 // float32 bits, EMA of block-time/budget

	emaFactor float32
}

// NewMetrics creates a metrics block with the default 0.9 smoothing
// factor (10% of each new reading blends into the running average).
func NewMetrics() *Metrics {
	return &Metrics{emaFactor: 0.9}
}

// ReportFault implements graph.FaultReporter.
func (m *Metrics) ReportFault(nodeID string) {
	m.faults.Add(1)
}

func (m *Metrics) recordCallback(blockDuration, budget time.Duration) {
	m.callbacks.Add(1)
	if blockDuration > budget {
		m.dropouts.Add(1)
	}
	load := float32(blockDuration) / float32(budget)
	prev := math.Float32frombits(m.cpuLoad.Load())
	next := prev*m.emaFactor + load*(1-m.emaFactor)
	m.cpuLoad.Store(math.Float32bits(next))
}

func (m *Metrics) recordPeaks(l, r []float32) {
	updatePeak(&m.peakL, l)
	updatePeak(&m.peakR, r)
}

func updatePeak(cell *atomic.Uint32, samples []float32) {
	if len(samples) == 0 {
		return
	}
	peak := float32(0)
	for _, v := range samples {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	cur := math.Float32frombits(cell.Load())
	if peak > cur {
		cell.Store(math.Float32bits(peak))
	}
}

// Snapshot is a point-in-time, control-thread-safe copy of Metrics.
type Snapshot struct {
	Callbacks    uint64
	Dropouts     uint64
	Faults       uint64
	PeakL, PeakR float32
	CPULoad      float32
}

// Snapshot reads every counter without disturbing it.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Callbacks: m.callbacks.Load(),
		Dropouts:  m.dropouts.Load(),
		Faults:    m.faults.Load(),
		PeakL:     math.Float32frombits(m.peakL.Load()),
		PeakR:     math.Float32frombits(m.peakR.Load()),
		CPULoad:   math.Float32frombits(m.cpuLoad.Load()),
	}
}

// ResetPeaks zeroes the peak meters; call periodically from a UI poll.
func (m *Metrics) ResetPeaks() {
	m.peakL.Store(0)
	m.peakR.Store(0)
}
