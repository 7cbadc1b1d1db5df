package crdtlog

import "github.com/CEA-LIST/Moirai-sub000/clock"

// EventGraph is the causal-DAG concrete storage strategy of spec.md §4.7:
// stable state is a flat list of operations; unstable state is a directed
// acyclic graph whose nodes are tagged ops and whose edges are direct
// causal dependencies.
//
// Grounded on _examples/original_source/src/protocol/event_graph.rs.
// Direct predecessor edges are derived from each event's version vector
// rather than recorded at insertion time: since delivery is causal
// (spec.md §5), the event recorded for replica o at sequence
// version.Get(o) is, by induction, exactly that event's most recent
// causal ancestor from replica o, so the frontier implied by the version
// vector is used as the dependency edge set: it contains every direct
// dependency, and may also contain events that are only transitive
// ancestors (reached through another frontier event). Concurrency between
// two nodes is computed the same way PO-Log does it — directly from the
// two tags' version vectors — rather than via graph reachability; this is
// an equivalent, simpler substitute for the reachability check spec.md
// §4.7 describes, since the version vector already encodes full causal
// history.
type EventGraph[Op any, Stable any, Value any] struct {
	rules      Rules[Op, Stable]
	stabilizer Stabilizer[Op, Stable]
	enabler    Enabler[Op, Stable]
	eval       Evaluator[Op, Stable, Value]

	newZero func() Stable // produces a fresh default value, for RedundantByParent's reset

	stable        Stable
	stableVersion *clock.Version // join of every version ever folded into stable; nil if stable is still default
	nodes         map[clock.EventID]*node[Op]
	order         []clock.EventID // insertion order, for deterministic iteration
}

type node[Op any] struct {
	tag clock.Tag
	op  Op
}

// NewEventGraph constructs an empty event graph with the given redundancy
// rules and evaluator. newZero produces the CRDT's default/zero Stable
// value; see NewVecLog's doc for why RedundantByParent needs a factory
// rather than a stored value.
func NewEventGraph[Op any, Stable any, Value any](
	rules Rules[Op, Stable],
	stabilizer Stabilizer[Op, Stable],
	enabler Enabler[Op, Stable],
	eval Evaluator[Op, Stable, Value],
	newZero func() Stable,
) *EventGraph[Op, Stable, Value] {
	return &EventGraph[Op, Stable, Value]{
		rules:      rules,
		stabilizer: stabilizer,
		enabler:    enabler,
		eval:       eval,
		newZero:    newZero,
		stable:     newZero(),
		nodes:      make(map[clock.EventID]*node[Op]),
	}
}

// Stable returns the current compressed stable operation list's fold
// target (CRDT-specific shape).
func (g *EventGraph[Op, Stable, Value]) Stable() Stable { return g.stable }

// Unstable returns the current unstable tagged operations in insertion
// order. Callers must not mutate the returned slice.
func (g *EventGraph[Op, Stable, Value]) Unstable() []TaggedOp[Op] {
	out := make([]TaggedOp[Op], 0, len(g.order))
	for _, id := range g.order {
		if n, ok := g.nodes[id]; ok {
			out = append(out, TaggedOp[Op]{Tag: n.tag, Op: n.op})
		}
	}
	return out
}

// Predecessors returns the latest event id per replica implied by tag's
// version vector (see the EventGraph doc: this covers every direct
// predecessor and can include ids that are only transitive ancestors).
func Predecessors(tag clock.Tag) []clock.EventID {
	var out []clock.EventID
	for o := 0; o < tag.Version.Len(); o++ {
		seq := tag.Version.Get(o)
		if o == tag.ID.Origin {
			seq = tag.ID.Seq - 1
		}
		if seq == 0 {
			continue
		}
		out = append(out, clock.EventID{Origin: o, Seq: seq})
	}
	return out
}

// CausalPredecessors returns every node that is a (transitive) causal
// ancestor of dot, computed by reverse BFS over the direct-dependency
// edges — the `causal_predecessors(dot)` operation named in spec.md §4.7.
// No CRDT in this module calls it; the strong add-wins multidigraph uses
// EventID.Precedes instead.
func (g *EventGraph[Op, Stable, Value]) CausalPredecessors(dot clock.EventID) map[clock.EventID]bool {
	visited := make(map[clock.EventID]bool)
	queue := []clock.EventID{dot}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		for _, pred := range Predecessors(n.tag) {
			if !visited[pred] {
				visited[pred] = true
				queue = append(queue, pred)
			}
		}
	}
	return visited
}

// Effect adds the node, then runs the redundancy predicates exactly as
// VecLog.Effect does, using direct version comparison for concurrency
// (spec.md §4.7/§4.8).
func (g *EventGraph[Op, Stable, Value]) Effect(e clock.Event[Op]) {
	isR := g.rules.RedundantItself(e.Tag, e.Op, g.stable, g.Unstable())

	var toRemove []clock.EventID
	for id, n := range g.nodes {
		isConc := n.tag.Version.IsConcurrent(e.Tag.Version)
		old := TaggedOp[Op]{Tag: n.tag, Op: n.op}
		var drop bool
		if isR {
			drop = g.rules.RedundantByWhenRedundant(old, isConc, e.Tag, e.Op)
		} else {
			drop = g.rules.RedundantByWhenNotRedundant(old, isConc, e.Tag, e.Op)
		}
		if drop {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		delete(g.nodes, id)
	}
	g.compactOrder()

	if !isR {
		g.nodes[e.Tag.ID] = &node[Op]{tag: e.Tag, op: e.Op}
		g.order = append(g.order, e.Tag.ID)
	}
}

func (g *EventGraph[Op, Stable, Value]) compactOrder() {
	kept := g.order[:0]
	for _, id := range g.order {
		if _, ok := g.nodes[id]; ok {
			kept = append(kept, id)
		}
	}
	g.order = kept
}

// Stabilize folds every node whose version precedes version into the
// stable operation list and removes it from the graph.
func (g *EventGraph[Op, Stable, Value]) Stabilize(version *clock.Version) {
	var toRemove []clock.EventID
	folded := false
	for id, n := range g.nodes {
		if id.Precedes(version) {
			if g.stabilizer != nil {
				g.stabilizer.StabilizeOp(TaggedOp[Op]{Tag: n.tag, Op: n.op}, &g.stable)
			}
			toRemove = append(toRemove, id)
			folded = true
		}
	}
	for _, id := range toRemove {
		delete(g.nodes, id)
	}
	g.compactOrder()
	if folded {
		if g.stableVersion == nil {
			g.stableVersion = version.Clone()
		} else {
			g.stableVersion.Join(version)
		}
	}
}

// RedundantByParent removes every node whose version is a predecessor of
// (or, if conservative, equal to) version, and — per the same rule — the
// whole of stable once stableVersion (the join of every version ever
// folded into it) is itself such a predecessor, since a replica's drain
// loop stabilizes after every batch of deliveries (see
// replica.Replica.drain) and a child CRDT can easily have left the graph
// for stable before a parent-level Remove/Clear arrives for it. See
// VecLog.RedundantByParent for the full reasoning.
func (g *EventGraph[Op, Stable, Value]) RedundantByParent(version *clock.Version, conservative bool) {
	var toRemove []clock.EventID
	for id, n := range g.nodes {
		switch n.tag.Version.Compare(version) {
		case clock.Less:
			toRemove = append(toRemove, id)
		case clock.Equal:
			if conservative {
				toRemove = append(toRemove, id)
			}
		}
	}
	for _, id := range toRemove {
		delete(g.nodes, id)
	}
	g.compactOrder()

	if g.stableVersion == nil {
		return
	}
	switch g.stableVersion.Compare(version) {
	case clock.Less:
	case clock.Equal:
		if !conservative {
			return
		}
	default:
		return
	}
	g.stable = g.newZero()
	g.stableVersion = nil
}

// IsEnabled runs the CRDT's send precondition, if any.
func (g *EventGraph[Op, Stable, Value]) IsEnabled(op Op) bool {
	if g.enabler == nil {
		return true
	}
	return g.enabler.IsEnabled(op, g.stable, g.Unstable())
}

// IsDefault reports whether the graph holds no unstable nodes.
func (g *EventGraph[Op, Stable, Value]) IsDefault() bool {
	return len(g.nodes) == 0
}

// Read evaluates the graph's current value.
func (g *EventGraph[Op, Stable, Value]) Read() Value {
	return g.eval.Eval(g.stable, g.Unstable())
}
