// Package counter implements a counter with reset: Inc/Dec fold into a
// running sum; Reset discards every causally preceding op and zeroes the
// stable sum, while concurrent increments survive (spec.md §4.9's
// "Counter with reset" row and its worked example in §8).
//
// Grounded on _examples/original_source/src/crdt/counter.rs for the
// fold-to-sum evaluation shape, generalized from that file's
// never-obsolete grow-only counter to support Reset, which has no
// standalone file in the kept source — it is described directly by
// spec.md §4.9/§8.
package counter

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
	"golang.org/x/exp/constraints"
)

type kind uint8

const (
	kindInc kind = iota
	kindDec
	kindReset
)

// Op is the counter operation: Inc(n), Dec(n), or Reset.
type Op[N constraints.Integer] struct {
	kind kind
	n    N
}

func Inc[N constraints.Integer](n N) Op[N] { return Op[N]{kind: kindInc, n: n} }
func Dec[N constraints.Integer](n N) Op[N] { return Op[N]{kind: kindDec, n: n} }
func Reset[N constraints.Integer]() Op[N]  { return Op[N]{kind: kindReset} }

type rules[N constraints.Integer] struct{}

func (rules[N]) RedundantItself(_ clock.Tag, op Op[N], _ N, _ []crdtlog.TaggedOp[Op[N]]) bool {
	return op.kind == kindReset
}

// RedundantByWhenRedundant is only invoked for a Reset (the only op that
// is ever itself redundant): every op causally preceding it is discarded;
// anything concurrent with the Reset survives.
func (rules[N]) RedundantByWhenRedundant(_ crdtlog.TaggedOp[Op[N]], isConc bool, _ clock.Tag, _ Op[N]) bool {
	return !isConc
}

// RedundantByWhenNotRedundant: Inc/Dec never render each other redundant.
func (rules[N]) RedundantByWhenNotRedundant(_ crdtlog.TaggedOp[Op[N]], _ bool, _ clock.Tag, _ Op[N]) bool {
	return false
}

type stabilizer[N constraints.Integer] struct{}

func (stabilizer[N]) StabilizeOp(t crdtlog.TaggedOp[Op[N]], stable *N) {
	switch t.Op.kind {
	case kindInc:
		*stable += t.Op.n
	case kindDec:
		*stable -= t.Op.n
	}
}

type evaluator[N constraints.Integer] struct{}

func (evaluator[N]) Eval(stable N, unstable []crdtlog.TaggedOp[Op[N]]) N {
	sum := stable
	for _, t := range unstable {
		switch t.Op.kind {
		case kindInc:
			sum += t.Op.n
		case kindDec:
			sum -= t.Op.n
		}
	}
	return sum
}

// Log is a counter-with-reset CRDT instance.
type Log[N constraints.Integer] struct {
	*crdtlog.VecLog[Op[N], N, N]
}

// New constructs a counter at zero.
func New[N constraints.Integer]() *Log[N] {
	return &Log[N]{crdtlog.NewVecLog[Op[N], N, N](rules[N]{}, stabilizer[N]{}, nil, evaluator[N]{}, func() N { var zero N; return zero })}
}

// IsDefault reports whether the counter currently reads zero and holds no
// unstable ops.
func (l *Log[N]) IsDefault() bool {
	return l.Read() == 0 && l.VecLog.IsDefault()
}

// Effect wraps VecLog.Effect: Reset is redundant-itself, so it must also
// wipe any sum already folded into stable state by an earlier Stabilize.
func (l *Log[N]) Effect(e clock.Event[Op[N]]) {
	l.VecLog.Effect(e)
	if e.Op.kind == kindReset {
		var zero N
		l.ResetStable(zero)
	}
}
