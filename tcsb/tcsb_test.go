package tcsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain delivers every causally-ready event in t's inbox, returning them in
// delivery order, mirroring the teacher's deliverCausal fixed-point loop.
func drain[Op any](t *TCSB[Op]) []Op {
	var out []Op
	for {
		ev, ok := t.NextCausallyReady()
		if !ok {
			return out
		}
		out = append(out, ev.Op)
	}
}

func TestSendProducesIncreasingSequence(t *testing.T) {
	a := New[string]("a")
	m1 := a.Send("op1")
	m2 := a.Send("op2")
	assert.Equal(t, uint64(1), m1.Event.EventID.Seq)
	assert.Equal(t, uint64(2), m2.Event.EventID.Seq)
	assert.Equal(t, 0, m1.Event.EventID.Origin)
}

func TestReceiveThenDeliverInOrder(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")

	m1 := a.Send("op1")
	m2 := a.Send("op2")

	require.NoError(t, b.Receive(m1))
	require.NoError(t, b.Receive(m2))

	delivered := drain(b)
	assert.Equal(t, []string{"op1", "op2"}, delivered)
}

func TestReceiveOutOfOrderBuffersUntilReady(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")

	m1 := a.Send("op1")
	m2 := a.Send("op2")

	require.NoError(t, b.Receive(m2))
	assert.Empty(t, drain(b), "op2 must not be delivered before op1")

	require.NoError(t, b.Receive(m1))
	assert.Equal(t, []string{"op1", "op2"}, drain(b))
}

func TestReceiveRejectsDuplicate(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")

	m1 := a.Send("op1")
	require.NoError(t, b.Receive(m1))
	drain(b)

	err := b.Receive(m1)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestReceiveRejectsSelfOrigin(t *testing.T) {
	a := New[string]("a")
	m1 := a.Send("op1")

	err := a.Receive(m1)
	assert.ErrorIs(t, err, ErrUnknownOrigin)
}

func TestStabilityAdvancesAfterAllReplicasAck(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")

	// a learns of b from b's first message; until then a's matrix clock has
	// only its own row and stability cannot wait on b.
	hello := b.Send("hello")
	require.NoError(t, a.Receive(hello))
	drain(a)
	a.IsStable()

	m1 := a.Send("op1")
	require.NoError(t, b.Receive(m1))
	drain(b)

	_, changed := a.IsStable()
	assert.False(t, changed, "a alone cannot know op1 is stable without b's ack")

	ack := b.Send("ack")
	require.NoError(t, a.Receive(ack))
	drain(a)

	_, changed = a.IsStable()
	assert.True(t, changed)
}

func TestPullReturnsMissingEvents(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")

	a.Send("op1")
	a.Send("op2")

	since := b.Since()
	batch, err := a.Pull("b", since)
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)

	require.NoError(t, b.ReceiveBatch("a", batch))
	assert.Equal(t, []string{"op1", "op2"}, drain(b))
}

func TestPullExcludesAlreadyBufferedEvents(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")

	m1 := a.Send("op1")
	a.Send("op2")

	require.NoError(t, b.Receive(m1))

	since := b.Since()
	batch, err := a.Pull("b", since)
	require.NoError(t, err)
	require.Len(t, batch.Events, 1)
	assert.Equal(t, "op2", batch.Events[0].Op)
}

func TestThreeReplicaConvergence(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")
	c := New[string]("c")

	m1 := a.Send("hello")

	require.NoError(t, b.Receive(m1))
	require.NoError(t, c.Receive(m1))

	assert.Equal(t, []string{"hello"}, drain(b))
	assert.Equal(t, []string{"hello"}, drain(c))
}
