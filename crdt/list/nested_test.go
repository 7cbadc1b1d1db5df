package list

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
	"github.com/CEA-LIST/Moirai-sub000/crdt/counter"
	"github.com/stretchr/testify/assert"
)

func newCounterElement() crdtlog.Log[counter.Op[int], int] {
	return counter.New[int]()
}

func nevent(r *clock.Resolver, origin int, version *clock.Version, op NestedOp[counter.Op[int]]) clock.Event[NestedOp[counter.Op[int]]] {
	seq := version.Increment()
	return clock.NewEvent(origin, seq, version.Clone(), op)
}

func TestNestedInsertThenSetUpdatesThatElement(t *testing.T) {
	r := clock.NewResolver("a")
	l := NewNested[counter.Op[int], int](newCounterElement)
	v := clock.NewVersion(0, r)

	l.Effect(nevent(r, 0, v, l.PrepareInsert(0, counter.Inc(10))))
	assert.Equal(t, []int{10}, l.Read())

	l.Effect(nevent(r, 0, v, l.PrepareSet(0, counter.Dec(5))))
	assert.Equal(t, []int{5}, l.Read())

	l.Effect(nevent(r, 0, v, l.PrepareInsert(1, counter.Inc(10))))
	assert.Equal(t, []int{5, 10}, l.Read())
}

func TestNestedDeleteRemovesPositionButKeepsChildLog(t *testing.T) {
	r := clock.NewResolver("a")
	l := NewNested[counter.Op[int], int](newCounterElement)
	v := clock.NewVersion(0, r)

	l.Effect(nevent(r, 0, v, l.PrepareInsert(0, counter.Inc(10))))
	l.Effect(nevent(r, 0, v, l.PrepareInsert(1, counter.Inc(20))))
	l.Effect(nevent(r, 0, v, l.PrepareDelete(0)))

	assert.Equal(t, []int{20}, l.Read())
	assert.Len(t, l.children, 2, "Delete leaves the deleted element's child log in place")
}

func TestNestedConcurrentInsertsBothSurvive(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	la := NewNested[counter.Op[int], int](newCounterElement)
	lb := NewNested[counter.Op[int], int](newCounterElement)

	va := clock.NewVersion(0, r)
	vb := clock.NewVersion(1, r)

	opA := la.PrepareInsert(0, counter.Inc(10))
	opB := lb.PrepareInsert(0, counter.Inc(20))
	ea := nevent(r, 0, va, opA)
	eb := nevent(r, 1, vb, opB)

	la.Effect(ea)
	la.Effect(eb)
	lb.Effect(eb)
	lb.Effect(ea)

	assert.Len(t, la.Read(), 2)
	assert.ElementsMatch(t, la.Read(), lb.Read())
}

func TestNestedIsDefaultWhenEmpty(t *testing.T) {
	l := NewNested[counter.Op[int], int](newCounterElement)
	assert.True(t, l.IsDefault())
}
