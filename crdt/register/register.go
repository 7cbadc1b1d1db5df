// Package register implements the four register CRDTs of spec.md §4.9:
// MV (keep every concurrently-written value), LWW (keep the
// lexicographically greatest (lamport, origin) writer), TO (keep the
// maximum under a total order), and PO (keep the antichain of maximal
// values under a partial order).
//
// All four share the same redundancy shape, grounded on
// _examples/original_source/src/crdt/mv_register.rs,
// src/crdt/register/po_register.rs, and src/crdt/register/to_register.rs:
// Clear is redundant-itself, and any write is dropped the instant a
// causally later write (not a concurrent one — `!is_conc`) arrives, which is
// weaker than AW-Set's "same value" test since a register has exactly one
// logical slot. Only Eval differs per register kind, so it is the only
// piece specialized per constructor below; stable state for every kind
// keeps the tag (not just the value) because LWW's tie-break needs
// lamport/origin even for writes that already stabilized.
package register

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
	"golang.org/x/exp/constraints"
)

type kind uint8

const (
	kindWrite kind = iota
	kindClear
)

// Op is a register operation: Write(v) or Clear.
type Op[V any] struct {
	kind  kind
	value V
}

func Write[V any](v V) Op[V] { return Op[V]{kind: kindWrite, value: v} }
func Clear[V any]() Op[V]    { return Op[V]{kind: kindClear} }

// Set is the query value for MV- and PO-registers: the set of values that
// currently survive (concurrent writes, or a partial order's maximal
// antichain).
type Set[V comparable] map[V]struct{}

func (s Set[V]) Contains(v V) bool { _, ok := s[v]; return ok }

type stable[V any] []crdtlog.TaggedOp[Op[V]]

type rules[V any] struct{}

func (rules[V]) RedundantItself(_ clock.Tag, op Op[V], _ stable[V], _ []crdtlog.TaggedOp[Op[V]]) bool {
	return op.kind == kindClear
}

func (rules[V]) RedundantByWhenRedundant(_ crdtlog.TaggedOp[Op[V]], isConc bool, _ clock.Tag, _ Op[V]) bool {
	return !isConc
}

func (r rules[V]) RedundantByWhenNotRedundant(old crdtlog.TaggedOp[Op[V]], isConc bool, newTag clock.Tag, newOp Op[V]) bool {
	return r.RedundantByWhenRedundant(old, isConc, newTag, newOp)
}

type stabilizer[V any] struct{}

func (stabilizer[V]) StabilizeOp(t crdtlog.TaggedOp[Op[V]], s *stable[V]) {
	if t.Op.kind == kindWrite {
		*s = append(*s, t)
	}
}

func writes[V any](s stable[V], unstable []crdtlog.TaggedOp[Op[V]]) []crdtlog.TaggedOp[Op[V]] {
	out := make([]crdtlog.TaggedOp[Op[V]], 0, len(s)+len(unstable))
	for _, t := range s {
		if t.Op.kind == kindWrite {
			out = append(out, t)
		}
	}
	for _, t := range unstable {
		if t.Op.kind == kindWrite {
			out = append(out, t)
		}
	}
	return out
}

// base wraps the common Effect-override-on-Clear behavior shared by all
// four register kinds.
type base[V any, Value any] struct {
	*crdtlog.VecLog[Op[V], stable[V], Value]
}

func (b *base[V, Value]) Effect(e clock.Event[Op[V]]) {
	b.VecLog.Effect(e)
	if e.Op.kind == kindClear {
		b.ResetStable(nil)
	}
}

// --- MV-Register ---

type mvEval[V comparable] struct{}

func (mvEval[V]) Eval(s stable[V], unstable []crdtlog.TaggedOp[Op[V]]) Set[V] {
	out := make(Set[V])
	for _, t := range writes(s, unstable) {
		out[t.Op.value] = struct{}{}
	}
	return out
}

// MV is a multi-value register CRDT instance.
type MV[V comparable] struct{ base[V, Set[V]] }

// NewMV constructs an empty multi-value register.
func NewMV[V comparable]() *MV[V] {
	return &MV[V]{base[V, Set[V]]{crdtlog.NewVecLog[Op[V], stable[V], Set[V]](
		rules[V]{}, stabilizer[V]{}, nil, mvEval[V]{}, func() stable[V] { return nil })}}
}

func (l *MV[V]) IsDefault() bool { return len(l.Read()) == 0 }
func (l *MV[V]) Contains(v V) bool { return l.Read().Contains(v) }

// --- LWW-Register ---

type lwwEval[V any] struct{ zero V }

func lamportLess(a, b clock.Tag) bool {
	if a.Lamport != b.Lamport {
		return a.Lamport < b.Lamport
	}
	return a.ID.Origin < b.ID.Origin
}

func (e lwwEval[V]) Eval(s stable[V], unstable []crdtlog.TaggedOp[Op[V]]) V {
	all := writes(s, unstable)
	if len(all) == 0 {
		return e.zero
	}
	winner := all[0]
	for _, t := range all[1:] {
		if lamportLess(winner.Tag, t.Tag) {
			winner = t
		}
	}
	return winner.Op.value
}

// LWW is a last-writer-wins register CRDT instance: among concurrent
// writes, the greatest (lamport, origin) pair wins (spec.md §4.9).
type LWW[V any] struct{ base[V, V] }

// NewLWW constructs an LWW-register whose Read returns zero when never
// written.
func NewLWW[V any]() *LWW[V] {
	var zero V
	return &LWW[V]{base[V, V]{crdtlog.NewVecLog[Op[V], stable[V], V](
		rules[V]{}, stabilizer[V]{}, nil, lwwEval[V]{zero: zero}, func() stable[V] { return nil })}}
}

func (l *LWW[V]) IsDefault() bool {
	return len(writes(l.Stable(), l.Unstable())) == 0
}

// --- TO-Register ---

type toEval[V constraints.Ordered] struct{ zero V }

func (e toEval[V]) Eval(s stable[V], unstable []crdtlog.TaggedOp[Op[V]]) V {
	max := e.zero
	first := true
	for _, t := range writes(s, unstable) {
		if first || t.Op.value > max {
			max = t.Op.value
			first = false
		}
	}
	return max
}

// TO is a totally-ordered register CRDT instance: keeps the maximum write
// under V's natural order (spec.md §4.9).
type TO[V constraints.Ordered] struct{ base[V, V] }

// NewTO constructs a TO-register.
func NewTO[V constraints.Ordered]() *TO[V] {
	var zero V
	return &TO[V]{base[V, V]{crdtlog.NewVecLog[Op[V], stable[V], V](
		rules[V]{}, stabilizer[V]{}, nil, toEval[V]{zero: zero}, func() stable[V] { return nil })}}
}

func (l *TO[V]) IsDefault() bool {
	return len(writes(l.Stable(), l.Unstable())) == 0
}

// --- PO-Register ---

// Comparator reports how a relates to b in a partial order: -1 (a<b), 0
// (equal), 1 (a>b), or ok=false if the two are incomparable.
type Comparator[V any] func(a, b V) (cmp int, ok bool)

type poEval[V comparable] struct{ less Comparator[V] }

// Eval keeps only the maximal elements: a later write is inserted unless
// some value already in the set dominates it, and it evicts any value the
// new write dominates (spec.md §4.9's PO-Register row).
func (e poEval[V]) Eval(s stable[V], unstable []crdtlog.TaggedOp[Op[V]]) Set[V] {
	out := make(Set[V])
	for _, t := range writes(s, unstable) {
		v := t.Op.value
		dominated := false
		for existing := range out {
			if c, ok := e.less(existing, v); ok && c > 0 {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		for existing := range out {
			if c, ok := e.less(existing, v); ok && c < 0 {
				delete(out, existing)
			}
		}
		out[v] = struct{}{}
	}
	return out
}

// PO is a partially-ordered register CRDT instance.
type PO[V comparable] struct{ base[V, Set[V]] }

// NewPO constructs a PO-register over the partial order defined by cmp.
func NewPO[V comparable](cmp Comparator[V]) *PO[V] {
	return &PO[V]{base[V, Set[V]]{crdtlog.NewVecLog[Op[V], stable[V], Set[V]](
		rules[V]{}, stabilizer[V]{}, nil, poEval[V]{less: cmp}, func() stable[V] { return nil })}}
}

func (l *PO[V]) IsDefault() bool   { return len(l.Read()) == 0 }
func (l *PO[V]) Contains(v V) bool { return l.Read().Contains(v) }
