// Package uwgraph implements the update-wins multidigraph: vertices and
// arcs are each keyed entries backed by their own child CRDT log, exactly
// like crdt/uwmap but with two parallel key spaces and an extra
// invariant — an arc can only be read back once both of its endpoint
// vertices are themselves non-default (spec.md §4.9's UW-multidigraph
// row, §4.6's nested-log composition).
//
// Grounded on
// _examples/original_source/src/crdt/graph/uw_multidigraph.rs's
// UWGraphLog: effect unfolds UpdateVertex/UpdateArc onto the relevant
// child (created lazily), and RemoveVertex sweeps both the vertex's own
// child and every incident arc's child via redundant_by_parent, so a
// vertex removal also removes its arcs rather than leaving them dangling.
// No pack example ships a graph library (no petgraph equivalent appears
// in any _examples/*/go.mod), so the query value is a plain pair of maps
// rather than a graph-library type — DESIGN.md records this as a
// justified stdlib choice; the isomorphism-style assertions the Rust
// tests make with vf2 are expressed here as direct map comparisons.
package uwgraph

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

type kind uint8

const (
	kindUpdateVertex kind = iota
	kindRemoveVertex
	kindUpdateArc
	kindRemoveArc
)

// ArcKey identifies an arc by its endpoints and an application-chosen id,
// allowing parallel arcs between the same two vertices.
type ArcKey[V comparable, E comparable] struct {
	Source V
	Target V
	ID     E
}

// Op is the UW-multidigraph operation.
type Op[V comparable, E comparable, NodeOp any, ArcOp any] struct {
	kind   kind
	vertex V
	arc    ArcKey[V, E]
	nodeOp NodeOp
	arcOp  ArcOp
}

func UpdateVertex[V comparable, E comparable, NodeOp any, ArcOp any](v V, op NodeOp) Op[V, E, NodeOp, ArcOp] {
	return Op[V, E, NodeOp, ArcOp]{kind: kindUpdateVertex, vertex: v, nodeOp: op}
}

func RemoveVertex[V comparable, E comparable, NodeOp any, ArcOp any](v V) Op[V, E, NodeOp, ArcOp] {
	return Op[V, E, NodeOp, ArcOp]{kind: kindRemoveVertex, vertex: v}
}

func UpdateArc[V comparable, E comparable, NodeOp any, ArcOp any](source, target V, id E, op ArcOp) Op[V, E, NodeOp, ArcOp] {
	return Op[V, E, NodeOp, ArcOp]{kind: kindUpdateArc, arc: ArcKey[V, E]{Source: source, Target: target, ID: id}, arcOp: op}
}

func RemoveArc[V comparable, E comparable, NodeOp any, ArcOp any](source, target V, id E) Op[V, E, NodeOp, ArcOp] {
	return Op[V, E, NodeOp, ArcOp]{kind: kindRemoveArc, arc: ArcKey[V, E]{Source: source, Target: target, ID: id}}
}

// Value is a query snapshot: every non-default vertex, and every
// non-default arc whose two endpoints are both present in Vertices.
type Value[V comparable, E comparable, NodeValue any, ArcValue any] struct {
	Vertices map[V]NodeValue
	Arcs     map[ArcKey[V, E]]ArcValue
}

// Log is an update-wins multidigraph CRDT instance.
type Log[V comparable, E comparable, NodeOp any, NodeValue any, ArcOp any, ArcValue any] struct {
	vertices  map[V]crdtlog.Log[NodeOp, NodeValue]
	arcs      map[ArcKey[V, E]]crdtlog.Log[ArcOp, ArcValue]
	newVertex func() crdtlog.Log[NodeOp, NodeValue]
	newArc    func() crdtlog.Log[ArcOp, ArcValue]
}

// New constructs an empty graph whose vertex and arc children are
// produced on first use by newVertex/newArc.
func New[V comparable, E comparable, NodeOp any, NodeValue any, ArcOp any, ArcValue any](
	newVertex func() crdtlog.Log[NodeOp, NodeValue],
	newArc func() crdtlog.Log[ArcOp, ArcValue],
) *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue] {
	return &Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]{
		vertices:  make(map[V]crdtlog.Log[NodeOp, NodeValue]),
		arcs:      make(map[ArcKey[V, E]]crdtlog.Log[ArcOp, ArcValue]),
		newVertex: newVertex,
		newArc:    newArc,
	}
}

func (l *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]) Effect(e clock.Event[Op[V, E, NodeOp, ArcOp]]) {
	switch e.Op.kind {
	case kindUpdateVertex:
		child, ok := l.vertices[e.Op.vertex]
		if !ok {
			child = l.newVertex()
			l.vertices[e.Op.vertex] = child
		}
		child.Effect(clock.Unfold(e, e.Op.nodeOp))
	case kindRemoveVertex:
		v := e.Op.vertex
		if child, ok := l.vertices[v]; ok {
			child.RedundantByParent(e.Tag.Version, true)
		}
		for key, child := range l.arcs {
			if key.Source == v || key.Target == v {
				child.RedundantByParent(e.Tag.Version, true)
			}
		}
	case kindUpdateArc:
		child, ok := l.arcs[e.Op.arc]
		if !ok {
			child = l.newArc()
			l.arcs[e.Op.arc] = child
		}
		child.Effect(clock.Unfold(e, e.Op.arcOp))
	case kindRemoveArc:
		if child, ok := l.arcs[e.Op.arc]; ok {
			child.RedundantByParent(e.Tag.Version, true)
		}
	}
}

func (l *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]) Stabilize(version *clock.Version) {
	for _, child := range l.vertices {
		child.Stabilize(version)
	}
	for _, child := range l.arcs {
		child.Stabilize(version)
	}
}

func (l *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]) RedundantByParent(version *clock.Version, conservative bool) {
	for _, child := range l.vertices {
		child.RedundantByParent(version, conservative)
	}
	for _, child := range l.arcs {
		child.RedundantByParent(version, conservative)
	}
}

// IsEnabled mirrors UWGraphLog::is_enabled: RemoveVertex/RemoveArc require
// the target to currently exist and be non-default; UpdateArc requires
// both endpoint vertices to currently exist and be non-default.
func (l *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]) IsEnabled(op Op[V, E, NodeOp, ArcOp]) bool {
	switch op.kind {
	case kindUpdateVertex:
		return true
	case kindRemoveVertex:
		child, ok := l.vertices[op.vertex]
		return ok && !child.IsDefault()
	case kindUpdateArc:
		c1, ok1 := l.vertices[op.arc.Source]
		c2, ok2 := l.vertices[op.arc.Target]
		if !ok1 || !ok2 {
			return false
		}
		return !c1.IsDefault() && !c2.IsDefault()
	case kindRemoveArc:
		child, ok := l.arcs[op.arc]
		return ok && !child.IsDefault()
	}
	return false
}

func (l *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]) IsDefault() bool {
	return len(l.vertices) == 0 && len(l.arcs) == 0
}

// Read builds the current graph snapshot: non-default vertices, plus
// non-default arcs whose endpoints both survived (spec.md §4.6's "skip
// children that have gone back to default").
func (l *Log[V, E, NodeOp, NodeValue, ArcOp, ArcValue]) Read() Value[V, E, NodeValue, ArcValue] {
	out := Value[V, E, NodeValue, ArcValue]{
		Vertices: make(map[V]NodeValue, len(l.vertices)),
		Arcs:     make(map[ArcKey[V, E]]ArcValue, len(l.arcs)),
	}
	for v, child := range l.vertices {
		if child.IsDefault() {
			continue
		}
		out.Vertices[v] = child.Read()
	}
	for key, child := range l.arcs {
		if child.IsDefault() {
			continue
		}
		if _, ok := out.Vertices[key.Source]; !ok {
			continue
		}
		if _, ok := out.Vertices[key.Target]; !ok {
			continue
		}
		out.Arcs[key] = child.Read()
	}
	return out
}
