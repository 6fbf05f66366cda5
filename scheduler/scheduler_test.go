package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/jfxrig/control"
	_ "github.com/shaban/jfxrig/effects"
	"github.com/shaban/jfxrig/graph"
	"github.com/shaban/jfxrig/iodevice"
	"github.com/shaban/jfxrig/rig"
	"github.com/shaban/jfxrig/scheduler"
)

func passthroughPlan(t *testing.T, blockSize int) *graph.ExecutionPlan {
	t.Helper()
	d := &rig.Description{
		ChannelMode: "MONO",
		Nodes: []rig.NodeDescriptor{
			{ID: "in", Type: "source"},
			{ID: "g", Type: "gain", Parameters: map[string]float32{"gainDb": 0}},
			{ID: "out", Type: "sink"},
		},
		Connections: []rig.ConnectionDescriptor{
			{FromNode: "in", FromPort: "out", ToNode: "g", ToPort: "in"},
			{FromNode: "g", FromPort: "out", ToNode: "out", ToPort: "in"},
		},
	}
	plan, err := graph.Compile(d, 48000, blockSize)
	require.NoError(t, err)
	return plan
}

func TestSchedulerRenderOfflineRoundTripsSourceToSink(t *testing.T) {
	blockSize := 8
	plan := passthroughPlan(t, blockSize)

	input := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	driver := iodevice.NewMemoryDriver(input, nil)
	require.NoError(t, driver.Configure(48000, blockSize, false))

	queue := control.NewQueue(16)
	holder := control.NewPlanHolder(plan)
	sched := scheduler.New(driver, holder, queue, plan, blockSize, 48000)

	driver.RunAll(sched.Callback())

	outL, outR := driver.Output()
	assert.Nil(t, outR)
	require.Len(t, outL, 16) // two full blocks of 8
	for i := range input {
		assert.InDelta(t, input[i], outL[i], 1e-5)
	}
	for i := len(input); i < len(outL); i++ {
		assert.Equal(t, float32(0), outL[i])
	}

	snap := sched.Metrics().Snapshot()
	assert.Equal(t, uint64(2), snap.Callbacks)
	assert.Greater(t, snap.PeakL, float32(0))
}

func TestSchedulerAppliesSetParameterOp(t *testing.T) {
	blockSize := 4
	plan := passthroughPlan(t, blockSize)

	input := []float32{1, 1, 1, 1}
	driver := iodevice.NewMemoryDriver(input, nil)
	require.NoError(t, driver.Configure(48000, blockSize, false))

	queue := control.NewQueue(16)
	holder := control.NewPlanHolder(plan)
	sched := scheduler.New(driver, holder, queue, plan, blockSize, 48000)

	require.True(t, queue.Enqueue(control.Op{
		Kind:    control.OpSetParameter,
		NodeID:  "g",
		ParamID: "gainDb",
		Value:   -100, // effectively silence (clamped to the parameter's -60dB floor)
	}))
	// Reset snaps the smoothing cell straight to its new target instead of
	// ramping over many blocks, so the effect is observable within one call.
	require.True(t, queue.Enqueue(control.Op{Kind: control.OpResetNode, NodeID: "g"}))

	driver.RunAll(sched.Callback())

	outL, _ := driver.Output()
	require.Len(t, outL, blockSize)
	for _, v := range outL {
		assert.Less(t, v, float32(0.01))
	}
}

func TestSchedulerAppliesSetBypassOp(t *testing.T) {
	blockSize := 4
	plan := passthroughPlan(t, blockSize)

	input := []float32{0.5, 0.5, 0.5, 0.5}
	driver := iodevice.NewMemoryDriver(input, nil)
	require.NoError(t, driver.Configure(48000, blockSize, false))

	queue := control.NewQueue(16)
	holder := control.NewPlanHolder(plan)
	sched := scheduler.New(driver, holder, queue, plan, blockSize, 48000)

	require.True(t, queue.Enqueue(control.Op{Kind: control.OpSetBypass, NodeID: "g", Bypassed: true}))

	driver.RunAll(sched.Callback())

	outL, _ := driver.Output()
	require.Len(t, outL, blockSize)
	for i, v := range outL {
		assert.InDelta(t, input[i], v, 1e-5)
	}
}

func TestSchedulerAppliesSwapPlanOp(t *testing.T) {
	blockSize := 4
	plan := passthroughPlan(t, blockSize)

	silentDesc := &rig.Description{
		ChannelMode: "MONO",
		Nodes: []rig.NodeDescriptor{
			{ID: "in", Type: "source"},
			{ID: "g", Type: "gain", Bypassed: false, Parameters: map[string]float32{"gainDb": -100}},
			{ID: "out", Type: "sink"},
		},
		Connections: []rig.ConnectionDescriptor{
			{FromNode: "in", FromPort: "out", ToNode: "g", ToPort: "in"},
			{FromNode: "g", FromPort: "out", ToNode: "out", ToPort: "in"},
		},
	}
	silentPlan, err := graph.Compile(silentDesc, 48000, blockSize)
	require.NoError(t, err)

	input := []float32{1, 1, 1, 1}
	driver := iodevice.NewMemoryDriver(input, nil)
	require.NoError(t, driver.Configure(48000, blockSize, false))

	queue := control.NewQueue(16)
	holder := control.NewPlanHolder(plan)
	sched := scheduler.New(driver, holder, queue, plan, blockSize, 48000)

	// The control thread builds the new plan's bypass state itself and
	// carries it on the op, so the audio thread's apply never allocates
	// one (see scheduler.apply's OpSwapPlan case).
	require.True(t, queue.Enqueue(control.Op{
		Kind:   control.OpSwapPlan,
		Plan:   silentPlan,
		Bypass: graph.NewBypassState(silentPlan.Steps),
	}))

	driver.RunAll(sched.Callback())

	outL, _ := driver.Output()
	require.Len(t, outL, blockSize)
	for _, v := range outL {
		assert.Less(t, v, float32(0.01))
	}
}

func TestSchedulerZeroFillsWhenNoPlanInstalled(t *testing.T) {
	blockSize := 4
	plan := passthroughPlan(t, blockSize)

	input := []float32{1, 1, 1, 1}
	driver := iodevice.NewMemoryDriver(input, nil)
	require.NoError(t, driver.Configure(48000, blockSize, false))

	queue := control.NewQueue(16)
	holder := control.NewPlanHolder(plan)
	sched := scheduler.New(driver, holder, queue, plan, blockSize, 48000)

	// Swap in a nil plan via a raw Install, bypassing the op path, to
	// exercise the callback's "no plan loaded" branch directly.
	holder.Install(nil)

	driver.RunAll(sched.Callback())

	outL, _ := driver.Output()
	for _, v := range outL {
		assert.Equal(t, float32(0), v)
	}
}
