package awset

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event[V comparable](r *clock.Resolver, origin int, version *clock.Version, op Op[V]) clock.Event[Op[V]] {
	seq := version.Increment()
	return clock.NewEvent(origin, seq, version.Clone(), op)
}

func TestAddThenRead(t *testing.T) {
	r := clock.NewResolver("a")
	s := New[string]()

	v := clock.NewVersion(0, r)
	s.Effect(event(r, 0, v, Add("x")))

	assert.True(t, s.Contains("x"))
	assert.False(t, s.Contains("y"))
}

func TestSequentialRemoveWinsOverEarlierAdd(t *testing.T) {
	r := clock.NewResolver("a")
	s := New[string]()

	v := clock.NewVersion(0, r)
	s.Effect(event(r, 0, v, Add("x")))
	s.Effect(event(r, 0, v, Remove("x")))

	assert.False(t, s.Contains("x"))
	assert.Empty(t, s.Unstable())
}

func TestConcurrentAddWinsOverRemove(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	s := New[string]()

	va := clock.NewVersion(0, r)
	s.Effect(event(r, 0, va, Add("x")))

	// b's Remove("x") is concurrent with a's Add: version vectors share no
	// causal edge between them.
	vb := clock.NewVersion(1, r)
	s.Effect(event(r, 1, vb, Remove("x")))

	assert.True(t, s.Contains("x"), "add-wins: concurrent add beats remove")
	require.Len(t, s.Unstable(), 1)
}

func TestConcurrentAddSurvivesClear(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	s := New[string]()

	va := clock.NewVersion(0, r)
	s.Effect(event(r, 0, va, Add("x")))

	vb := clock.NewVersion(1, r)
	s.Effect(event(r, 1, vb, Clear[string]()))

	assert.True(t, s.Contains("x"), "add-wins: an add concurrent with Clear survives")
}

func TestStabilizeFoldsAddIntoStableState(t *testing.T) {
	r := clock.NewResolver("a")
	s := New[string]()

	v := clock.NewVersion(0, r)
	e := event(r, 0, v, Add("x"))
	s.Effect(e)

	s.Stabilize(e.Tag.Version)
	assert.Empty(t, s.Unstable())
	assert.True(t, s.Stable().Contains("x"))
	assert.True(t, s.Contains("x"))
	assert.False(t, s.IsDefault())
}

func TestClearWipesAlreadyStabilizedValues(t *testing.T) {
	r := clock.NewResolver("a")
	s := New[string]()

	v := clock.NewVersion(0, r)
	e := event(r, 0, v, Add("x"))
	s.Effect(e)
	s.Stabilize(e.Tag.Version)
	require.True(t, s.Contains("x"))

	s.Effect(event(r, 0, v, Clear[string]()))
	assert.False(t, s.Contains("x"))
	assert.True(t, s.IsDefault())
}

func TestIsDefaultRequiresEmptyStableAndUnstable(t *testing.T) {
	s := New[int]()
	assert.True(t, s.IsDefault())
}
