package list

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

type nestedKind uint8

const (
	nestedInsert nestedKind = iota
	nestedSet
	nestedDelete
)

// NestedOp is a position-addressed operation whose Insert/Set payload is
// itself a child CRDT operation, grounded on
// _examples/original_source/src/crdt/list/nested_list.rs's List<O>. Like
// list.Op, position is resolved to a stable anchor (for Insert) or a
// concrete target id (for Set/Delete) once, client-side, by the
// Prepare* methods below — never re-resolved at Effect time — for the
// same convergence reason documented on list.Log.
type NestedOp[ChildOp any] struct {
	kind        nestedKind
	originLeft  *clock.EventID
	originRight *clock.EventID
	target      clock.EventID
	child       ChildOp
}

// Nested is a list whose elements are independent child CRDT logs,
// ordered by an internal position list of event ids (grounded on
// ListLog<L>'s `position: EventGraph<SimpleList<EventId>>` field). An
// element's child log is never removed from the children map on
// Delete — only its id's entry in the position list disappears — so a
// position that reappears (impossible here since ids are unique per
// insert, but mirrored from the Rust source's tombstone-by-omission
// style) would find its child log exactly as it left it.
type Nested[ChildOp any, ChildValue any] struct {
	position *Log[clock.EventID]
	children map[clock.EventID]crdtlog.Log[ChildOp, ChildValue]
	newChild func() crdtlog.Log[ChildOp, ChildValue]
}

// NewNested constructs an empty nested list whose elements are produced
// by newChild on insertion.
func NewNested[ChildOp any, ChildValue any](newChild func() crdtlog.Log[ChildOp, ChildValue]) *Nested[ChildOp, ChildValue] {
	return &Nested[ChildOp, ChildValue]{
		position: New[clock.EventID](),
		children: make(map[clock.EventID]crdtlog.Log[ChildOp, ChildValue]),
		newChild: newChild,
	}
}

// PrepareInsert resolves pos against the list's current visible content
// (exactly as list.Log.PrepareInsert does) and returns an Op ready to
// Send, pairing the resolved anchors with the child's own creation op.
func (l *Nested[ChildOp, ChildValue]) PrepareInsert(pos int, childOp ChildOp) NestedOp[ChildOp] {
	anchors := l.position.PrepareInsert(pos, clock.EventID{})
	return NestedOp[ChildOp]{
		kind:        nestedInsert,
		originLeft:  anchors.originLeft,
		originRight: anchors.originRight,
		child:       childOp,
	}
}

// PrepareSet resolves pos to the element currently at that position and
// returns an Op targeting its child log.
func (l *Nested[ChildOp, ChildValue]) PrepareSet(pos int, childOp ChildOp) NestedOp[ChildOp] {
	ids := l.position.Read()
	return NestedOp[ChildOp]{kind: nestedSet, target: ids[pos], child: childOp}
}

// PrepareDelete resolves pos to the element currently at that position.
func (l *Nested[ChildOp, ChildValue]) PrepareDelete(pos int) NestedOp[ChildOp] {
	del := l.position.PrepareDelete(pos)
	return NestedOp[ChildOp]{kind: nestedDelete, target: del.target}
}

func (l *Nested[ChildOp, ChildValue]) Effect(e clock.Event[NestedOp[ChildOp]]) {
	switch e.Op.kind {
	case nestedInsert:
		id := e.Tag.ID
		posOp := Op[clock.EventID]{kind: fugueInsert, value: id, originLeft: e.Op.originLeft, originRight: e.Op.originRight}
		l.position.Effect(clock.Unfold(e, posOp))
		child := l.newChild()
		l.children[id] = child
		child.Effect(clock.Unfold(e, e.Op.child))
	case nestedSet:
		child, ok := l.children[e.Op.target]
		if !ok {
			return
		}
		child.Effect(clock.Unfold(e, e.Op.child))
	case nestedDelete:
		posOp := Op[clock.EventID]{kind: fugueDelete, target: e.Op.target}
		l.position.Effect(clock.Unfold(e, posOp))
	}
}

func (l *Nested[ChildOp, ChildValue]) Stabilize(version *clock.Version) {
	for _, child := range l.children {
		child.Stabilize(version)
	}
}

func (l *Nested[ChildOp, ChildValue]) RedundantByParent(version *clock.Version, conservative bool) {
	for _, child := range l.children {
		child.RedundantByParent(version, conservative)
	}
}

// IsEnabled mirrors ListLog::is_enabled: Insert is always enabled;
// Set/Delete require that the target element has a child log, which stays
// true after the element is deleted from the position list.
func (l *Nested[ChildOp, ChildValue]) IsEnabled(op NestedOp[ChildOp]) bool {
	switch op.kind {
	case nestedInsert:
		return true
	case nestedSet, nestedDelete:
		_, ok := l.children[op.target]
		return ok
	}
	return false
}

func (l *Nested[ChildOp, ChildValue]) IsDefault() bool {
	return l.position.IsDefault() && len(l.children) == 0
}

// Read evaluates every element in document order.
func (l *Nested[ChildOp, ChildValue]) Read() []ChildValue {
	ids := l.position.Read()
	out := make([]ChildValue, 0, len(ids))
	for _, id := range ids {
		if child, ok := l.children[id]; ok {
			out = append(out, child.Read())
		}
	}
	return out
}
