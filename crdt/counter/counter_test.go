package counter

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/stretchr/testify/assert"
)

func event[N int | int64](r *clock.Resolver, origin int, version *clock.Version, op Op[N]) clock.Event[Op[N]] {
	seq := version.Increment()
	return clock.NewEvent(origin, seq, version.Clone(), op)
}

func TestIncDecFoldToSum(t *testing.T) {
	r := clock.NewResolver("a")
	c := New[int]()
	v := clock.NewVersion(0, r)
	c.Effect(event(r, 0, v, Inc(5)))
	c.Effect(event(r, 0, v, Dec(2)))
	assert.Equal(t, 3, c.Read())
}

// TestResetWithConcurrentIncrement reproduces spec.md §8's worked example:
// A Inc(5), B Inc(3) mutually delivered, then A's Reset delivered to B,
// then B's Inc(2) delivered to A: both converge on 2.
func TestResetWithConcurrentIncrement(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	a := New[int]()
	b := New[int]()

	va := clock.NewVersion(0, r)
	vb := clock.NewVersion(1, r)

	incA := event(r, 0, va, Inc(5))
	incB := event(r, 1, vb, Inc(3))

	a.Effect(incA)
	a.Effect(incB)
	b.Effect(incA)
	b.Effect(incB)
	assert.Equal(t, 8, a.Read())
	assert.Equal(t, 8, b.Read())

	// A's Reset is causally after both increments.
	va.Join(vb)
	resetA := event(r, 0, va, Reset[int]())
	a.Effect(resetA)
	b.Effect(resetA)
	assert.Equal(t, 0, a.Read())
	assert.Equal(t, 0, b.Read())

	// B's Inc(2) was sent before B observed the Reset, so it is
	// concurrent with it and must survive.
	incB2 := event(r, 1, vb, Inc(2))
	a.Effect(incB2)
	b.Effect(incB2)

	assert.Equal(t, 2, a.Read())
	assert.Equal(t, 2, b.Read())
}

func TestIsDefaultAtZero(t *testing.T) {
	assert.True(t, New[int]().IsDefault())
}
