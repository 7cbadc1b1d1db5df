// Package awset implements the add-wins set: concurrent Add and Remove of
// the same value resolve in favor of Add (spec.md §4.9's AW-Set row).
//
// Grounded on _examples/original_source/src/crdt/set/aw_set.rs, translated
// from a Rust enum matched by redundant_itself/redundant_by_when_* into a
// Go Op[V] tagged by kind, and from the Rust IsStableState impl into a
// crdtlog.Stabilizer.
package awset

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

// Op is the AW-Set operation: Add(v), Remove(v), or Clear.
type Op[V comparable] struct {
	kind  kind
	value V
}

// Add constructs an Add(v) operation.
func Add[V comparable](v V) Op[V] { return Op[V]{kind: kindAdd, value: v} }

// Remove constructs a Remove(v) operation.
func Remove[V comparable](v V) Op[V] { return Op[V]{kind: kindRemove, value: v} }

// Clear constructs a Clear operation.
func Clear[V comparable]() Op[V] { return Op[V]{kind: kindClear} }

// Set is the AW-Set's stable and query value: a plain membership set.
type Set[V comparable] map[V]struct{}

// Contains reports whether v is a member.
func (s Set[V]) Contains(v V) bool {
	_, ok := s[v]
	return ok
}

func (s Set[V]) clone() Set[V] {
	out := make(Set[V], len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

type rules[V comparable] struct{}

// RedundantItself: Remove and Clear are never stored, only consulted for
// their sweeping effect; only Add survives into the unstable log.
func (rules[V]) RedundantItself(_ clock.Tag, op Op[V], _ Set[V], _ []crdtlog.TaggedOp[Op[V]]) bool {
	return op.kind == kindRemove || op.kind == kindClear
}

func (rules[V]) RedundantByWhenRedundant(old crdtlog.TaggedOp[Op[V]], isConc bool, _ clock.Tag, newOp Op[V]) bool {
	if isConc {
		return false
	}
	if newOp.kind == kindClear {
		return true
	}
	if old.Op.kind != kindAdd {
		panic("awset: unstable log must only ever hold Add operations")
	}
	return old.Op.value == newOp.value
}

func (r rules[V]) RedundantByWhenNotRedundant(old crdtlog.TaggedOp[Op[V]], isConc bool, newTag clock.Tag, newOp Op[V]) bool {
	return r.RedundantByWhenRedundant(old, isConc, newTag, newOp)
}

type stabilizer[V comparable] struct{}

func (stabilizer[V]) StabilizeOp(t crdtlog.TaggedOp[Op[V]], stable *Set[V]) {
	if t.Op.kind == kindAdd {
		if *stable == nil {
			*stable = make(Set[V])
		}
		(*stable)[t.Op.value] = struct{}{}
	}
}

type evaluator[V comparable] struct{}

func (evaluator[V]) Eval(stable Set[V], unstable []crdtlog.TaggedOp[Op[V]]) Set[V] {
	out := stable.clone()
	for _, t := range unstable {
		if t.Op.kind == kindAdd {
			out[t.Op.value] = struct{}{}
		}
	}
	return out
}

// Log is an add-wins set CRDT instance, a crdtlog.Log[Op[V], Set[V]] that
// also implements crdtlog.Container[V] for membership queries.
type Log[V comparable] struct {
	*crdtlog.VecLog[Op[V], Set[V], Set[V]]
}

// New constructs an empty add-wins set.
func New[V comparable]() *Log[V] {
	return &Log[V]{crdtlog.NewVecLog[Op[V], Set[V], Set[V]](
		rules[V]{}, stabilizer[V]{}, nil, evaluator[V]{}, func() Set[V] { return make(Set[V]) })}
}

// IsDefault overrides VecLog's unstable-only check: an AW-Set is default
// only once its stable state has also gone back to empty (spec.md §4.9).
func (l *Log[V]) IsDefault() bool {
	return len(l.Stable()) == 0 && l.VecLog.IsDefault()
}

// Effect wraps VecLog.Effect: a Clear is redundant-itself (spec.md §4.9),
// so it sweeps the unstable ops that causally precede it (concurrent adds
// survive) but never reaches the Stabilizer —
// it must also wipe anything already folded into stable state directly.
func (l *Log[V]) Effect(e clock.Event[Op[V]]) {
	l.VecLog.Effect(e)
	if e.Op.kind == kindClear {
		l.ResetStable(make(Set[V]))
	}
}

// Contains implements crdtlog.Container[V].
func (l *Log[V]) Contains(v V) bool {
	return l.Read().Contains(v)
}
