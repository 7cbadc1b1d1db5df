package flag

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/stretchr/testify/assert"
)

func event(r *clock.Resolver, origin int, version *clock.Version, op Op) clock.Event[Op] {
	seq := version.Increment()
	return clock.NewEvent(origin, seq, version.Clone(), op)
}

func TestEnableThenDisable(t *testing.T) {
	r := clock.NewResolver("a")
	f := New()
	v := clock.NewVersion(0, r)
	f.Effect(event(r, 0, v, Enable()))
	assert.True(t, f.Read())
	f.Effect(event(r, 0, v, Disable()))
	assert.False(t, f.Read())
	assert.True(t, f.IsDefault())
}

func TestConcurrentEnableWinsOverDisable(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	f := New()

	va := clock.NewVersion(0, r)
	f.Effect(event(r, 0, va, Enable()))

	vb := clock.NewVersion(1, r)
	f.Effect(event(r, 1, vb, Disable()))

	assert.True(t, f.Read(), "enable-wins: concurrent enable beats disable")
}

func TestClearResetsStabilizedState(t *testing.T) {
	r := clock.NewResolver("a")
	f := New()
	v := clock.NewVersion(0, r)
	e := event(r, 0, v, Enable())
	f.Effect(e)
	f.Stabilize(e.Tag.Version)
	assert.True(t, f.Read())

	f.Effect(event(r, 0, v, Clear()))
	assert.False(t, f.Read())
}
