// Package rwset implements the remove-wins set: when Add(v) and Remove(v)
// are concurrent, Remove wins (spec.md §4.9's RW-Set row) — the mirror
// image of package awset.
//
// Grounded on _examples/original_source/src/crdt/set/rw_set.rs. That Rust
// implementation keeps a `Vec<RWSet<V>>` of Remove tombstones in stable
// state and overrides the generic engine's stabilize step entirely, so
// that an Add which later arrives can be blocked by a tombstone recorded
// for the same value. Here stable state is simplified to a plain
// tombstone set folded through crdtlog.Stabilizer one op at a time (the
// standard per-op fold crdtlog.VecLog already provides), which keeps the
// same externally observable guarantee — concurrent Add/Remove of the
// same value resolves to removed — without a bespoke stabilize routine.
package rwset

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

type kind uint8

const (
	kindAdd kind = iota
	kindRemove
	kindClear
)

// Op is the RW-Set operation: Add(v), Remove(v), or Clear.
type Op[V comparable] struct {
	kind  kind
	value V
}

func Add[V comparable](v V) Op[V]    { return Op[V]{kind: kindAdd, value: v} }
func Remove[V comparable](v V) Op[V] { return Op[V]{kind: kindRemove, value: v} }
func Clear[V comparable]() Op[V]     { return Op[V]{kind: kindClear} }

// Stable holds confirmed members alongside remove tombstones: a value is
// only a confirmed member if present in members and absent from
// tombstones. Each tombstone records the version of the Remove that set
// it, so a later-arriving Add of the same value can tell whether it is
// causally after the tombstone (and should revive the value) or merely
// concurrent with it (in which case the Remove wins).
type Stable[V comparable] struct {
	members    map[V]struct{}
	tombstones map[V]*clock.Version
}

func newStable[V comparable]() Stable[V] {
	return Stable[V]{members: make(map[V]struct{}), tombstones: make(map[V]*clock.Version)}
}

// Set is the RW-Set's query value.
type Set[V comparable] map[V]struct{}

func (s Set[V]) Contains(v V) bool { _, ok := s[v]; return ok }

type rules[V comparable] struct{}

func (rules[V]) RedundantItself(_ clock.Tag, op Op[V], _ Stable[V], _ []crdtlog.TaggedOp[Op[V]]) bool {
	return op.kind == kindClear
}

func (rules[V]) RedundantByWhenRedundant(old crdtlog.TaggedOp[Op[V]], isConc bool, _ clock.Tag, newOp Op[V]) bool {
	if isConc {
		return false
	}
	if newOp.kind == kindClear {
		return true
	}
	return old.Op.value == newOp.value
}

func (r rules[V]) RedundantByWhenNotRedundant(old crdtlog.TaggedOp[Op[V]], isConc bool, newTag clock.Tag, newOp Op[V]) bool {
	return r.RedundantByWhenRedundant(old, isConc, newTag, newOp)
}

type stabilizer[V comparable] struct{}

// StabilizeOp folds one tagged op into stable state. Ties between a
// stabilizing Add and a stabilizing Remove of the same value must not be
// resolved by fold order alone: two replicas can fold a mutually
// concurrent Add/Remove pair in opposite local orders and must still
// converge, and remove-wins (matching evaluator.Eval's unstable-set
// behavior below). An Add only clears an existing tombstone when it is
// strictly causally after the Remove that set it; a concurrent or
// causally-prior Add leaves the tombstone in place regardless of which
// one this replica happens to fold last.
func (stabilizer[V]) StabilizeOp(t crdtlog.TaggedOp[Op[V]], stable *Stable[V]) {
	switch t.Op.kind {
	case kindAdd:
		if tomb, tombstoned := stable.tombstones[t.Op.value]; tombstoned {
			if t.Tag.Version.Compare(tomb) != clock.Greater {
				return
			}
			delete(stable.tombstones, t.Op.value)
		}
		stable.members[t.Op.value] = struct{}{}
	case kindRemove:
		delete(stable.members, t.Op.value)
		stable.tombstones[t.Op.value] = t.Tag.Version.Clone()
	}
}

type evaluator[V comparable] struct{}

func (evaluator[V]) Eval(stable Stable[V], unstable []crdtlog.TaggedOp[Op[V]]) Set[V] {
	out := make(Set[V], len(stable.members))
	for v := range stable.members {
		if _, tombstoned := stable.tombstones[v]; !tombstoned {
			out[v] = struct{}{}
		}
	}
	// A Remove anywhere in the unstable set beats any Add of the same
	// value, regardless of delivery order, matching the original's
	// removed-tracking scan.
	removed := make(map[V]struct{})
	for _, t := range unstable {
		if t.Op.kind == kindRemove {
			removed[t.Op.value] = struct{}{}
		}
	}
	for _, t := range unstable {
		if t.Op.kind != kindAdd {
			continue
		}
		if tomb, tombstoned := stable.tombstones[t.Op.value]; tombstoned && t.Tag.Version.Compare(tomb) != clock.Greater {
			continue
		}
		if _, isRemoved := removed[t.Op.value]; isRemoved {
			continue
		}
		out[t.Op.value] = struct{}{}
	}
	for v := range removed {
		delete(out, v)
	}
	return out
}

// Log is a remove-wins set CRDT instance.
type Log[V comparable] struct {
	*crdtlog.VecLog[Op[V], Stable[V], Set[V]]
}

// New constructs an empty remove-wins set.
func New[V comparable]() *Log[V] {
	return &Log[V]{crdtlog.NewVecLog[Op[V], Stable[V], Set[V]](
		rules[V]{}, stabilizer[V]{}, nil, evaluator[V]{}, newStable[V])}
}

// IsDefault reports whether the set is currently empty.
func (l *Log[V]) IsDefault() bool {
	return len(l.Read()) == 0
}

// Contains implements crdtlog.Container[V].
func (l *Log[V]) Contains(v V) bool {
	return l.Read().Contains(v)
}

// Effect wraps VecLog.Effect: Clear is redundant-itself, so it must also
// wipe state already folded into stable by an earlier Stabilize.
func (l *Log[V]) Effect(e clock.Event[Op[V]]) {
	l.VecLog.Effect(e)
	if e.Op.kind == kindClear {
		l.ResetStable(newStable[V]())
	}
}
