package uwgraph

import (
	"sort"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

// StrongAWMultidigraph is a stricter add-wins multidigraph: unlike the
// UW-multidigraph in uwgraph.go (which composes one child log per key),
// this is a single flat crdt/mod.PureCRDT over a sealed AWOp enum, stored
// directly in a crdtlog.EventGraph rather than composed from child
// logs. Its causal checks use EventID.Precedes on the stored tags; it
// does not call the event graph's CausalPredecessors.
//
// Grounded on
// _examples/original_source/src/crdt/graph/strong_aw_multidigraph.rs
// (kept commented-out in the source tree, but fully specified). A
// RemoveVertex is judged redundant_itself — meaning it never becomes its
// own stored node — exactly when some currently-stored AddVertex/AddArc
// referencing that vertex is not yet a causal ancestor of the remove,
// i.e. the add is concurrent with (or, transiently, not yet observed by)
// it: that add "wins" and the remove instead falls through to the
// ordinary redundant_by_* sweep, which deletes only the matching
// already-observed entries. "Not yet a causal ancestor of dot" collapses
// to EventID.Precedes(dot.Version) here rather than a BFS over
// CausalPredecessors, because causal delivery means a stored event's own
// version vector already encodes its full transitive history — so direct
// precedence and transitive ancestry coincide for any event already in
// the log.
type AWOp[V comparable, E comparable] struct {
	kind awKind
	v1   V
	v2   V
	e    E
}

type awKind uint8

const (
	awAddVertex awKind = iota
	awRemoveVertex
	awAddArc
	awRemoveArc
)

func AddVertex[V comparable, E comparable](v V) AWOp[V, E] {
	return AWOp[V, E]{kind: awAddVertex, v1: v}
}

func RemoveVertexOp[V comparable, E comparable](v V) AWOp[V, E] {
	return AWOp[V, E]{kind: awRemoveVertex, v1: v}
}

func AddArc[V comparable, E comparable](source, target V, id E) AWOp[V, E] {
	return AWOp[V, E]{kind: awAddArc, v1: source, v2: target, e: id}
}

func RemoveArcOp[V comparable, E comparable](source, target V, id E) AWOp[V, E] {
	return AWOp[V, E]{kind: awRemoveArc, v1: source, v2: target, e: id}
}

// Arc identifies a directed, labeled edge in a Graph snapshot.
type Arc[V comparable, E comparable] struct {
	Source V
	Target V
	ID     E
}

// Graph is a StrongAWMultidigraph's query value.
type Graph[V comparable, E comparable] struct {
	Vertices map[V]struct{}
	Arcs     map[Arc[V, E]]struct{}
}

func (g Graph[V, E]) HasVertex(v V) bool { _, ok := g.Vertices[v]; return ok }

type awRules[V comparable, E comparable] struct{}

func (awRules[V, E]) RedundantItself(newTag clock.Tag, newOp AWOp[V, E], _ []AWOp[V, E], unstable []crdtlog.TaggedOp[AWOp[V, E]]) bool {
	switch newOp.kind {
	case awRemoveArc:
		return true
	case awRemoveVertex:
		for _, t := range unstable {
			if t.Tag.ID.Precedes(newTag.Version) {
				continue
			}
			switch t.Op.kind {
			case awAddVertex:
				if t.Op.v1 == newOp.v1 {
					return true
				}
			case awAddArc:
				if t.Op.v1 == newOp.v1 || t.Op.v2 == newOp.v1 {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

func (awRules[V, E]) redundantBy(old AWOp[V, E], isConc bool, newOp AWOp[V, E]) bool {
	if !isConc {
		switch {
		case old.kind == awRemoveVertex && newOp.kind == awAddArc:
			return false
		case old.kind == awRemoveVertex && newOp.kind == awRemoveVertex:
			return old.v1 == newOp.v1
		case old.kind == awRemoveVertex && newOp.kind == awAddVertex:
			return old.v1 == newOp.v1
		case old.kind == awRemoveVertex && newOp.kind == awRemoveArc:
			return false
		case old.kind == awAddVertex && newOp.kind == awRemoveVertex:
			return false
		case old.kind == awAddArc && newOp.kind == awRemoveVertex:
			return false
		case old.kind == awAddArc && newOp.kind == awAddArc:
			return old.v1 == newOp.v1 && old.v2 == newOp.v2 && old.e == newOp.e
		case old.kind == awAddArc && newOp.kind == awRemoveArc:
			return old.v1 == newOp.v1 && old.v2 == newOp.v2 && old.e == newOp.e
		case old.kind == awAddVertex && newOp.kind == awAddVertex:
			return old.v1 == newOp.v1
		default:
			return false
		}
	}
	switch {
	case old.kind == awRemoveVertex && newOp.kind == awAddArc:
		return old.v1 == newOp.v1 || old.v1 == newOp.v2
	case old.kind == awRemoveVertex && newOp.kind == awRemoveVertex:
		return old.v1 == newOp.v1
	case old.kind == awRemoveVertex && newOp.kind == awRemoveArc:
		return false
	case old.kind == awRemoveVertex && newOp.kind == awAddVertex:
		return old.v1 == newOp.v1
	default:
		return false
	}
}

func (r awRules[V, E]) RedundantByWhenRedundant(old crdtlog.TaggedOp[AWOp[V, E]], isConc bool, _ clock.Tag, newOp AWOp[V, E]) bool {
	return r.redundantBy(old.Op, isConc, newOp)
}

func (r awRules[V, E]) RedundantByWhenNotRedundant(old crdtlog.TaggedOp[AWOp[V, E]], isConc bool, newTag clock.Tag, newOp AWOp[V, E]) bool {
	return r.RedundantByWhenRedundant(old, isConc, newTag, newOp)
}

type awStabilizer[V comparable, E comparable] struct{}

func (awStabilizer[V, E]) StabilizeOp(t crdtlog.TaggedOp[AWOp[V, E]], stable *[]AWOp[V, E]) {
	*stable = append(*stable, t.Op)
}

// sortRank orders RemoveVertex before AddVertex/AddArc, and AddVertex
// before AddArc, matching strong_aw_multidigraph.rs's eval comparator —
// a deliberate tie-break so a vertex add always has a chance to register
// in node_index before any arc referencing it, and any remove that
// survived the redundancy sweep is applied before reprocessing adds.
func sortRank[V comparable, E comparable](op AWOp[V, E]) int {
	switch op.kind {
	case awRemoveVertex:
		return 0
	case awAddVertex:
		return 1
	case awAddArc:
		return 2
	default:
		return 3
	}
}

type awEvaluator[V comparable, E comparable] struct{}

func (awEvaluator[V, E]) Eval(stable []AWOp[V, E], unstable []crdtlog.TaggedOp[AWOp[V, E]]) Graph[V, E] {
	ops := make([]AWOp[V, E], 0, len(stable)+len(unstable))
	ops = append(ops, stable...)
	for _, t := range unstable {
		ops = append(ops, t.Op)
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return sortRank(ops[i]) < sortRank(ops[j])
	})

	g := Graph[V, E]{Vertices: make(map[V]struct{}), Arcs: make(map[Arc[V, E]]struct{})}
	removed := make(map[V]struct{})
	for _, op := range ops {
		switch op.kind {
		case awRemoveVertex:
			removed[op.v1] = struct{}{}
		case awAddVertex:
			if _, ok := g.Vertices[op.v1]; ok {
				continue
			}
			if _, ok := removed[op.v1]; ok {
				continue
			}
			g.Vertices[op.v1] = struct{}{}
		case awAddArc:
			key := Arc[V, E]{Source: op.v1, Target: op.v2, ID: op.e}
			if _, ok := g.Arcs[key]; ok {
				continue
			}
			if _, ok1 := g.Vertices[op.v1]; !ok1 {
				continue
			}
			if _, ok2 := g.Vertices[op.v2]; !ok2 {
				continue
			}
			g.Arcs[key] = struct{}{}
		}
	}
	return g
}

// StrongAWMultidigraph is an add-wins multidigraph CRDT instance backed
// by an event graph.
type StrongAWMultidigraph[V comparable, E comparable] struct {
	*crdtlog.EventGraph[AWOp[V, E], []AWOp[V, E], Graph[V, E]]
}

// NewStrongAWMultidigraph constructs an empty strong add-wins
// multidigraph.
func NewStrongAWMultidigraph[V comparable, E comparable]() *StrongAWMultidigraph[V, E] {
	return &StrongAWMultidigraph[V, E]{crdtlog.NewEventGraph[AWOp[V, E], []AWOp[V, E], Graph[V, E]](
		awRules[V, E]{}, awStabilizer[V, E]{}, nil, awEvaluator[V, E]{}, func() []AWOp[V, E] { return nil })}
}

// IsDefault overrides EventGraph's unstable-only check: the stabilized op
// list never shrinks on its own, so default-ness must be judged from the
// evaluated graph, not from whether any unstable node remains.
func (g *StrongAWMultidigraph[V, E]) IsDefault() bool {
	snap := g.Read()
	return len(snap.Vertices) == 0 && len(snap.Arcs) == 0
}
