package list

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

// Op is a position-addressed list operation over a generic value type,
// grounded on _examples/original_source/src/crdt/list/eg_walker.rs's
// List<V>::{Insert, Delete}. The Rust source resolves a position into a
// stable anchor by replaying the full op log at apply time on every
// replica (a two-pass insert/delete state machine); this rewrite
// resolves pos into Fugue-style origin anchors once, at prepare time,
// using the sender's own current Read() before the op is ever
// broadcast — the anchors embedded in the op are then integrated with
// exactly fugueDoc's order-independent algorithm, which is what
// actually gives this type its CRDT convergence guarantee. This is a
// deliberate simplification: it drops the Rust version's single-item
// rebased replay machinery in favor of reusing the already-correct
// Fugue integration rule, in exchange for a position-based Prepare
// step that must run locally before Send rather than at arbitrary
// delivery time.
type Op[V any] struct {
	kind        fugueKind
	value       V
	originLeft  *clock.EventID
	originRight *clock.EventID
	target      clock.EventID
}

type listItem[V any] struct {
	id          clock.EventID
	value       V
	originLeft  *clock.EventID
	originRight *clock.EventID
	deleted     bool
}

type doc[V any] struct {
	items []listItem[V]
}

func (d *doc[V]) indexOf(id clock.EventID) (int, bool) {
	for i, it := range d.items {
		if it.id == id {
			return i, true
		}
	}
	return 0, false
}

func (d *doc[V]) indexOfOpt(id *clock.EventID, fallback int) int {
	if id == nil {
		return fallback
	}
	if i, ok := d.indexOf(*id); ok {
		return i
	}
	return fallback
}

func (d *doc[V]) integrate(item listItem[V]) {
	leftIdx := -1
	if item.originLeft != nil {
		if i, ok := d.indexOf(*item.originLeft); ok {
			leftIdx = i
		}
	}
	rightIdx := d.indexOfOpt(item.originRight, len(d.items))

	destIdx := 0
	if leftIdx != -1 {
		destIdx = leftIdx + 1
	}
	scanning := false

	for i := destIdx; ; i++ {
		if !scanning {
			destIdx = i
		}
		if i == len(d.items) {
			break
		}
		if i == rightIdx {
			break
		}
		other := d.items[i]
		otherLeft := -1
		if other.originLeft != nil {
			if oi, ok := d.indexOf(*other.originLeft); ok {
				otherLeft = oi
			}
		}
		otherRight := d.indexOfOpt(other.originRight, len(d.items))

		if otherLeft < leftIdx || (otherLeft == leftIdx && otherRight == rightIdx && idLess(item.id, other.id)) {
			break
		}
		if otherLeft == leftIdx {
			scanning = otherRight < rightIdx
		}
	}

	d.items = append(d.items, listItem[V]{})
	copy(d.items[destIdx+1:], d.items[destIdx:])
	d.items[destIdx] = item
}

func (d *doc[V]) applyDelete(id clock.EventID) {
	if i, ok := d.indexOf(id); ok {
		d.items[i].deleted = true
	}
}

// visible returns the items currently visible, in document order, along
// with their event ids — used both for Read and for PrepareInsert's
// position resolution.
func (d *doc[V]) visible() []listItem[V] {
	out := make([]listItem[V], 0, len(d.items))
	for _, it := range d.items {
		if !it.deleted {
			out = append(out, it)
		}
	}
	return out
}

type rules[V any] struct{}

func (rules[V]) RedundantItself(clock.Tag, Op[V], struct{}, []crdtlog.TaggedOp[Op[V]]) bool {
	return false
}
func (rules[V]) RedundantByWhenRedundant(crdtlog.TaggedOp[Op[V]], bool, clock.Tag, Op[V]) bool {
	return false
}
func (rules[V]) RedundantByWhenNotRedundant(crdtlog.TaggedOp[Op[V]], bool, clock.Tag, Op[V]) bool {
	return false
}

type evaluator[V any] struct{}

func (evaluator[V]) Eval(_ struct{}, unstable []crdtlog.TaggedOp[Op[V]]) []V {
	d := &doc[V]{}
	for _, t := range unstable {
		switch t.Op.kind {
		case fugueInsert:
			d.integrate(listItem[V]{
				id:          t.Tag.ID,
				value:       t.Op.value,
				originLeft:  t.Op.originLeft,
				originRight: t.Op.originRight,
			})
		case fugueDelete:
			d.applyDelete(t.Op.target)
		}
	}
	out := make([]V, 0, len(d.items))
	for _, it := range d.visible() {
		out = append(out, it.value)
	}
	return out
}

// Log is a generic position-addressed list CRDT instance, stored in an
// event graph rather than a plain vector (spec.md §4.7's alternate
// storage strategy) — like Fugue it never stabilizes, since every item
// (including tombstones) must remain available for future position
// resolution and replay.
type Log[V any] struct {
	*crdtlog.EventGraph[Op[V], struct{}, []V]
}

// New constructs an empty list.
func New[V any]() *Log[V] {
	return &Log[V]{crdtlog.NewEventGraph[Op[V], struct{}, []V](
		rules[V]{}, nil, nil, evaluator[V]{}, func() struct{} { return struct{}{} })}
}

func (l *Log[V]) Stabilize(*clock.Version) {}

func (l *Log[V]) IsDefault() bool { return len(l.Read()) == 0 }

// PrepareInsert resolves pos against the list's current visible content
// and returns an Op ready to Send: an Insert anchored between the items
// currently at pos-1 and pos. pos == len(current) appends at the end;
// pos == 0 prepends.
func (l *Log[V]) PrepareInsert(pos int, value V) Op[V] {
	d := l.snapshot()
	visible := d.visible()
	var left, right *clock.EventID
	if pos > 0 && pos-1 < len(visible) {
		id := visible[pos-1].id
		left = &id
	}
	if pos < len(visible) {
		id := visible[pos].id
		right = &id
	}
	return Op[V]{kind: fugueInsert, value: value, originLeft: left, originRight: right}
}

// PrepareDelete resolves pos against the list's current visible content
// and returns an Op targeting that item's id.
func (l *Log[V]) PrepareDelete(pos int) Op[V] {
	visible := l.snapshot().visible()
	return Op[V]{kind: fugueDelete, target: visible[pos].id}
}

func (l *Log[V]) snapshot() *doc[V] {
	d := &doc[V]{}
	for _, t := range l.Unstable() {
		switch t.Op.kind {
		case fugueInsert:
			d.integrate(listItem[V]{
				id:          t.Tag.ID,
				value:       t.Op.value,
				originLeft:  t.Op.originLeft,
				originRight: t.Op.originRight,
			})
		case fugueDelete:
			d.applyDelete(t.Op.target)
		}
	}
	return d
}
