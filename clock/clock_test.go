package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverInternIsIdempotent(t *testing.T) {
	r := NewResolver("a")
	idx1, isNew1 := r.Intern("b")
	idx2, isNew2 := r.Intern("b")

	assert.True(t, isNew1)
	assert.False(t, isNew2)
	assert.Equal(t, idx1, idx2)
	assert.Equal(t, 2, r.Len())
}

func TestResolverTranslate(t *testing.T) {
	rA := NewResolver("A")
	rA.Intern("B")

	rB := NewResolver("B")
	// B learns about A as peer index 0 from A's shipped resolver.
	introduced := rB.UpdateTranslation(rA.Self(), rA.Snapshot())
	require.Len(t, introduced, 1)

	local, err := rB.Translate(rA.Self(), rA.Self())
	require.NoError(t, err)
	assert.Equal(t, introduced[0], local)

	_, err = rB.Translate(rA.Self(), 99)
	assert.ErrorIs(t, err, ErrUnknownTranslation)
}

func TestVersionJoinMeetCompare(t *testing.T) {
	r := NewResolver("a")
	r.Intern("b")

	va := NewVersion(0, r)
	va.Increment() // a's own seq -> 1

	vb := NewVersion(1, r)
	vb.Increment() // b's own seq -> 1

	assert.Equal(t, Concurrent, va.Compare(vb))

	joined := va.Clone()
	joined.Join(vb)
	assert.Equal(t, uint64(1), joined.Get(0))
	assert.Equal(t, uint64(1), joined.Get(1))
	assert.Equal(t, Greater, joined.Compare(va))
	assert.Equal(t, Greater, joined.Compare(vb))

	met := joined.Clone()
	met.Meet(NewVersion(0, r))
	assert.Equal(t, uint64(0), met.Get(0))
	assert.Equal(t, uint64(0), met.Get(1))
}

func TestVersionLessEqual(t *testing.T) {
	r := NewResolver("a")
	v1 := NewVersion(0, r)
	v1.Increment()
	v2 := v1.Clone()
	v2.Increment()

	assert.True(t, v1.LessEqual(v2))
	assert.False(t, v2.LessEqual(v1))
	assert.Equal(t, Less, v1.Compare(v2))
}

func TestVersionLamport(t *testing.T) {
	r := NewResolver("a")
	r.Intern("b")
	v := NewVersion(0, r)
	v.Set(0, 3)
	v.Set(1, 7)
	assert.Equal(t, uint64(8), v.Lamport())
}

func TestMatrixClockColumnWiseMin(t *testing.T) {
	r := NewResolver("a")
	r.Intern("b")

	m := NewMatrixClock(0, r)
	m.Row(0).Set(0, 5)
	m.Row(0).Set(1, 2)
	m.Row(1).Set(0, 3)
	m.Row(1).Set(1, 4)

	min := m.ColumnWiseMin()
	assert.Equal(t, uint64(3), min.Get(0))
	assert.Equal(t, uint64(2), min.Get(1))
}

func TestMatrixClockAddReplicaGrowsSquare(t *testing.T) {
	r := NewResolver("a")
	m := NewMatrixClock(0, r)
	assert.Equal(t, 1, m.Size())

	m.AddReplica(2)
	assert.Equal(t, 3, m.Size())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 3, m.Row(i).Len())
	}
}

func TestEventIDPrecedes(t *testing.T) {
	r := NewResolver("a")
	v := NewVersion(0, r)
	v.Set(0, 5)

	assert.True(t, EventID{Origin: 0, Seq: 5}.Precedes(v))
	assert.True(t, EventID{Origin: 0, Seq: 3}.Precedes(v))
	assert.False(t, EventID{Origin: 0, Seq: 6}.Precedes(v))
}
