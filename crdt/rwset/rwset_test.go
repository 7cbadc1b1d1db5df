package rwset

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
}

func TestConcurrentAddRemoveRemoveWins(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	s := New[string]()

	va := clock.NewVersion(0, r)
	s.Effect(event(r, 0, va, Add("a")))

	vb := clock.NewVersion(1, r)
	s.Effect(event(r, 1, vb, Remove("a")))

	assert.False(t, s.Contains("a"), "remove-wins: concurrent remove beats add")
}

func TestSequentialAddAfterRemoveWins(t *testing.T) {
	r := clock.NewResolver("a")
	s := New[string]()
	v := clock.NewVersion(0, r)
	s.Effect(event(r, 0, v, Remove("a")))
	s.Effect(event(r, 0, v, Add("a")))
	assert.True(t, s.Contains("a"))
}

func TestStabilizeConcurrentAddRemoveConvergesRegardlessOfFoldOrder(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")

	va := clock.NewVersion(0, r)
	addEvent := event(r, 0, va, Add("a"))

	vb := clock.NewVersion(1, r)
	removeEvent := event(r, 1, vb, Remove("a"))

	stableVersion := addEvent.Tag.Version.Clone()
	stableVersion.Join(removeEvent.Tag.Version)

	// Replica 1 delivers (and so folds) Add before Remove.
	s1 := New[string]()
	s1.Effect(addEvent)
	s1.Effect(removeEvent)
	s1.Stabilize(stableVersion)

	// Replica 2 delivers the identical concurrent pair in the opposite
	// local order.
	s2 := New[string]()
	s2.Effect(removeEvent)
	s2.Effect(addEvent)
	s2.Stabilize(stableVersion)

	assert.False(t, s1.Contains("a"), "remove-wins must survive stabilize regardless of fold order")
	assert.False(t, s2.Contains("a"), "remove-wins must survive stabilize regardless of fold order")
	assert.Equal(t, s1.Read(), s2.Read())
}

func TestClearWipesStabilizedMembers(t *testing.T) {
	r := clock.NewResolver("a")
	s := New[string]()
	v := clock.NewVersion(0, r)
	e := event(r, 0, v, Add("a"))
	s.Effect(e)
	s.Stabilize(e.Tag.Version)
	require.True(t, s.Contains("a"))

	s.Effect(event(r, 0, v, Clear[string]()))
	assert.False(t, s.Contains("a"))
	assert.True(t, s.IsDefault())
}
