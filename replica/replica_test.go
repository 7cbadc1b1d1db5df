package replica

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/crdt/awset"
	"github.com/CEA-LIST/Moirai-sub000/crdt/counter"
	"github.com/CEA-LIST/Moirai-sub000/crdt/register"
	"github.com/CEA-LIST/Moirai-sub000/crdt/uwgraph"
	"github.com/CEA-LIST/Moirai-sub000/crdt/uwmap"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
	"github.com/CEA-LIST/Moirai-sub000/tcsb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAWSetReplica(name string) *Replica[awset.Op[string], awset.Set[string]] {
	return New[awset.Op[string], awset.Set[string]](name, awset.New[string]())
}

func TestSendAppliesLocallyBeforeBroadcast(t *testing.T) {
	a := newAWSetReplica("a")

	_, err := a.Send(awset.Add("x"))
	require.NoError(t, err)

	assert.True(t, a.Query().Contains("x"))
}

func TestReceiveConvergesTwoReplicas(t *testing.T) {
	a := newAWSetReplica("a")
	b := newAWSetReplica("b")

	msg, err := a.Send(awset.Add("x"))
	require.NoError(t, err)
	require.NoError(t, b.Receive(msg))

	assert.Equal(t, a.Query(), b.Query())
}

func TestPullDeliversMissedEventsToALateReplica(t *testing.T) {
	a := newAWSetReplica("a")
	b := newAWSetReplica("b")

	_, err := a.Send(awset.Add("x"))
	require.NoError(t, err)
	_, err = a.Send(awset.Add("y"))
	require.NoError(t, err)

	since := b.Since()
	batch, err := a.Pull(b.Name(), since)
	require.NoError(t, err)
	require.NoError(t, b.ReceiveBatch(a.Name(), batch))

	assert.Equal(t, a.Query(), b.Query())
}

func TestSendReturnsDisabledWhenLogRefusesThePrecondition(t *testing.T) {
	newVertex := func() crdtlog.Log[register.Op[int], int] { return register.NewLWW[int]() }
	newArc := func() crdtlog.Log[counter.Op[int], int] { return counter.New[int]() }
	g := uwgraph.New[string, string, register.Op[int], int, counter.Op[int], int](newVertex, newArc)

	r := New[uwgraph.Op[string, string, register.Op[int], counter.Op[int]], uwgraph.Value[string, string, int, int]]("a", g)

	_, err := r.Send(uwgraph.UpdateArc[string, string, register.Op[int], counter.Op[int]]("a", "b", "e1", counter.Inc(1)))
	assert.ErrorIs(t, err, tcsb.ErrDisabled)
}

func TestGetRunsAKeyedQueryAgainstAUWMapLog(t *testing.T) {
	newChild := func() crdtlog.Log[awset.Op[string], awset.Set[string]] { return awset.New[string]() }
	r := New[uwmap.Op[string, awset.Op[string]], map[string]awset.Set[string]](
		"a", uwmap.New[string, awset.Op[string], awset.Set[string]](newChild))

	_, err := r.Send(uwmap.Update("k", awset.Add("x")))
	require.NoError(t, err)

	value, ok := Get[string, awset.Set[string]](r, "k")
	assert.True(t, ok)
	assert.True(t, value.Contains("x"))

	_, ok = Get[string, awset.Set[string]](r, "missing")
	assert.False(t, ok)
}
