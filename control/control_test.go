package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueueRoundsCapacityToPowerOfTwo(t *testing.T) {
	q := NewQueue(5)
	assert.Equal(t, 8, len(q.buf))

	q2 := NewQueue(1)
	assert.Equal(t, 2, len(q2.buf))
}

func TestQueueEnqueueDrainIsFIFO(t *testing.T) {
	q := NewQueue(4)
	require.True(t, q.Enqueue(Op{Kind: OpSetParameter, NodeID: "a", ParamID: "gain", Value: 1}))
	require.True(t, q.Enqueue(Op{Kind: OpSetParameter, NodeID: "b", ParamID: "gain", Value: 2}))

	var seen []string
	q.Drain(func(op Op) { seen = append(seen, op.NodeID) })
	assert.Equal(t, []string{"a", "b"}, seen)

	// queue is empty again after drain
	drainedAgain := false
	q.Drain(func(op Op) { drainedAgain = true })
	assert.False(t, drainedAgain)
}

func TestQueueEnqueueReturnsFalseWhenFull(t *testing.T) {
	q := NewQueue(2) // rounds to 2 slots
	assert.True(t, q.Enqueue(Op{Kind: OpResetAll}))
	assert.True(t, q.Enqueue(Op{Kind: OpResetAll}))
	assert.False(t, q.Enqueue(Op{Kind: OpResetAll}), "queue should reject once full rather than block")
}
