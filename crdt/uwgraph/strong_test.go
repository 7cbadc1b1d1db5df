package uwgraph

import (
	"testing"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/stretchr/testify/assert"
)

func awEvent(r *clock.Resolver, origin int, version *clock.Version, op AWOp[string, int]) clock.Event[AWOp[string, int]] {
	seq := version.Increment()
	return clock.NewEvent(origin, seq, version.Clone(), op)
}

func TestStrongGraphSimpleAddVertexArcThenRemove(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	ga := NewStrongAWMultidigraph[string, int]()
	gb := NewStrongAWMultidigraph[string, int]()

	va := clock.NewVersion(0, r)
	e := awEvent(r, 0, va, AddVertex[string, int]("A"))
	ga.Effect(e)
	gb.Effect(e)

	vb := clock.NewVersion(1, r)
	e = awEvent(r, 1, vb, AddVertex[string, int]("B"))
	ga.Effect(e)
	gb.Effect(e)

	va.Join(vb)
	e = awEvent(r, 0, va, AddArc[string, int]("B", "A", 1))
	ga.Effect(e)
	gb.Effect(e)

	vb.Join(va)
	e = awEvent(r, 1, vb, RemoveVertexOp[string, int]("B"))
	ga.Effect(e)
	gb.Effect(e)

	snap := ga.Read()
	assert.Contains(t, snap.Vertices, "A")
	assert.NotContains(t, snap.Vertices, "B")
	assert.Empty(t, snap.Arcs, "arc incident to the removed vertex cannot survive")
	assert.Equal(t, ga.Read(), gb.Read())
}

func TestStrongGraphConcurrentArcSurvivesRemove(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	ga := NewStrongAWMultidigraph[string, int]()
	gb := NewStrongAWMultidigraph[string, int]()

	va := clock.NewVersion(0, r)
	vb := clock.NewVersion(1, r)

	e := awEvent(r, 0, va, AddVertex[string, int]("A"))
	ga.Effect(e)
	gb.Effect(e)
	e = awEvent(r, 1, vb, AddVertex[string, int]("B"))
	ga.Effect(e)
	gb.Effect(e)

	// Concurrent: b removes B while a (unaware) adds an arc referencing B.
	removeB := awEvent(r, 1, vb, RemoveVertexOp[string, int]("B"))
	addArc := awEvent(r, 0, va, AddArc[string, int]("B", "A", 1))

	ga.Effect(addArc)
	ga.Effect(removeB)
	gb.Effect(removeB)
	gb.Effect(addArc)

	snap := ga.Read()
	assert.Len(t, snap.Vertices, 2, "the concurrent add-arc restores B")
	assert.Equal(t, ga.Read(), gb.Read())
}

func TestStrongGraphRemoveVertexThenLateArcNeverAppears(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	ga := NewStrongAWMultidigraph[string, int]()
	gb := NewStrongAWMultidigraph[string, int]()

	va := clock.NewVersion(0, r)
	e := awEvent(r, 0, va, AddVertex[string, int]("A"))
	ga.Effect(e)
	gb.Effect(e)

	vb := clock.NewVersion(1, r)
	vb.Join(va)
	e = awEvent(r, 1, vb, RemoveVertexOp[string, int]("A"))
	ga.Effect(e)
	gb.Effect(e)

	va.Join(vb)
	e = awEvent(r, 0, va, AddArc[string, int]("B", "A", 1))
	ga.Effect(e)
	gb.Effect(e)

	snap := ga.Read()
	assert.Empty(t, snap.Vertices)
	assert.Empty(t, snap.Arcs)
}

func TestStrongGraphConcurrentAddVertexSameIDCollapses(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	ga := NewStrongAWMultidigraph[string, int]()
	gb := NewStrongAWMultidigraph[string, int]()

	va := clock.NewVersion(0, r)
	vb := clock.NewVersion(1, r)
	ea := awEvent(r, 0, va, AddVertex[string, int]("A"))
	eb := awEvent(r, 1, vb, AddVertex[string, int]("A"))

	ga.Effect(ea)
	ga.Effect(eb)
	gb.Effect(eb)
	gb.Effect(ea)

	assert.Len(t, ga.Read().Vertices, 1)
	assert.Equal(t, ga.Read(), gb.Read())
}

func TestStrongGraphArcWithMissingVertexNeverAppears(t *testing.T) {
	r := clock.NewResolver("a")
	g := NewStrongAWMultidigraph[string, int]()
	v := clock.NewVersion(0, r)
	g.Effect(awEvent(r, 0, v, AddArc[string, int]("A", "B", 1)))
	assert.Empty(t, g.Read().Vertices)
	assert.Empty(t, g.Read().Arcs)
}

func TestStrongGraphMultigraphKeepsParallelArcs(t *testing.T) {
	r := clock.NewResolver("a")
	r.Intern("b")
	ga := NewStrongAWMultidigraph[string, int]()
	gb := NewStrongAWMultidigraph[string, int]()

	va := clock.NewVersion(0, r)
	e := awEvent(r, 0, va, AddVertex[string, int]("A"))
	ga.Effect(e)
	gb.Effect(e)
	vb := clock.NewVersion(1, r)
	e = awEvent(r, 1, vb, AddVertex[string, int]("B"))
	ga.Effect(e)
	gb.Effect(e)

	ea := awEvent(r, 0, va, AddArc[string, int]("A", "B", 1))
	eb := awEvent(r, 1, vb, AddArc[string, int]("A", "B", 2))

	ga.Effect(ea)
	ga.Effect(eb)
	gb.Effect(eb)
	gb.Effect(ea)

	assert.Len(t, ga.Read().Arcs, 2)
	assert.Equal(t, ga.Read(), gb.Read())
}
