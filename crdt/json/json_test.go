package json

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdt/counter"
	"github.com/CEA-LIST/Moirai-sub000/crdt/flag"
	"github.com/CEA-LIST/Moirai-sub000/crdt/uwmap"
	"github.com/stretchr/testify/assert"
)

func jevent(r *clock.Resolver, origin int, version *clock.Version, op *Op) clock.Event[*Op] {
	seq := version.Increment()
	return clock.NewEvent(origin, seq, version.Clone(), op)
}

func TestSequentialSameVariantFoldsIntoOneValue(t *testing.T) {
	r := clock.NewResolver("a")
	l := New()
	v := clock.NewVersion(0, r)

	l.Effect(jevent(r, 0, v, Number(counter.Inc(5))))
	l.Effect(jevent(r, 0, v, Number(counter.Inc(3))))

	got := l.Read()
	assert.False(t, got.IsConflict())
	assert.Equal(t, 8, got.Values[0].Number)
}

func TestRootIsUnsetUntilFirstWrite(t *testing.T) {
	l := New()
	assert.True(t, l.IsDefault())
	assert.Equal(t, Value{}, l.Read())
	assert.Nil(t, ToJSON(l.Read()))
}

func TestSequentialDifferentVariantIsDisabled(t *testing.T) {
	l := New()
	l.Effect(jevent(clock.NewResolver("a"), 0, clock.NewVersion(0, clock.NewResolver("a")), Number(counter.Inc(5))))
	assert.False(t, l.IsEnabled(Boolean(flag.Enable())))
}

func TestConcurrentDifferentVariantsProduceASortedConflict(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	la := New()
	lb := New()

	va := clock.NewVersion(0, r)
	vb := clock.NewVersion(1, r)

	ea := jevent(r, 0, va, Boolean(flag.Enable()))
	eb := jevent(r, 1, vb, Number(counter.Inc(5)))

	la.Effect(ea)
	la.Effect(eb)
	lb.Effect(eb)
	lb.Effect(ea)

	got := la.Read()
	assert.True(t, got.IsConflict())
	assert.Equal(t, got, lb.Read())
	assert.Equal(t, KindNumber, got.Values[0].Kind)
	assert.Equal(t, 5, got.Values[0].Number)
	assert.Equal(t, KindBoolean, got.Values[1].Kind)
	assert.True(t, got.Values[1].Boolean)
}

func TestConcurrentSameVariantMergesNormally(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	la := New()
	lb := New()

	va := clock.NewVersion(0, r)
	vb := clock.NewVersion(1, r)

	ea := jevent(r, 0, va, Number(counter.Inc(5)))
	eb := jevent(r, 1, vb, Number(counter.Inc(3)))

	la.Effect(ea)
	la.Effect(eb)
	lb.Effect(eb)
	lb.Effect(ea)

	got := la.Read()
	assert.False(t, got.IsConflict())
	assert.Equal(t, 8, got.Values[0].Number)
	assert.Equal(t, got, lb.Read())
}

func TestObjectVariantNestsAWholeJsonPerKey(t *testing.T) {
	r := clock.NewResolver("a")
	l := New()
	v := clock.NewVersion(0, r)

	op := Object(uwmap.Update[string, *Op]("count", Number(counter.Inc(7))))
	l.Effect(jevent(r, 0, v, op))

	got := l.Read()
	assert.Equal(t, KindObject, got.Values[0].Kind)
	child := got.Values[0].Object["count"]
	assert.Equal(t, 7, child.Values[0].Number)
}

func TestStringVariantInsertsCharacters(t *testing.T) {
	r := clock.NewResolver("a")
	l := New()
	v := clock.NewVersion(0, r)

	strLog := l.StringLog()
	op := String(strLog.PrepareInsert(0, 'h'))
	l.Effect(jevent(r, 0, v, op))

	strLog = l.StringLog()
	op = String(strLog.PrepareInsert(1, 'i'))
	l.Effect(jevent(r, 0, v, op))

	got := l.Read()
	assert.Equal(t, "hi", got.Values[0].String)
}

func TestArrayVariantInsertsNestedJsonElements(t *testing.T) {
	r := clock.NewResolver("a")
	l := New()
	v := clock.NewVersion(0, r)

	arr := l.ArrayLog()
	op := Array(arr.PrepareInsert(0, Number(counter.Inc(1))))
	l.Effect(jevent(r, 0, v, op))

	arr = l.ArrayLog()
	op = Array(arr.PrepareInsert(1, Number(counter.Inc(2))))
	l.Effect(jevent(r, 0, v, op))

	got := l.Read()
	assert.Len(t, got.Values[0].Array, 2)
	assert.Equal(t, 1, got.Values[0].Array[0].Values[0].Number)
	assert.Equal(t, 2, got.Values[0].Array[1].Values[0].Number)
}
