// Package flag implements the enable-wins flag: a concurrent Enable beats
// a concurrent Disable; Clear is self-redundant and resets to disabled
// (spec.md §4.9's "Enable-wins flag" row). It is the boolean-valued,
// singleton-value twin of package awset — Enable/Disable/Clear play
// exactly the role Add/Remove/Clear play there.
//
// There is no standalone ew_flag.rs in the kept source (only its
// composition into a set of flags, _examples/original_source/src/crdt/
// set/ewflag_set.rs, survived distillation); grounded on that file's
// Enable/Disable naming and on spec.md §4.9 directly for the predicate
// semantics, following the same redundancy shape as awset.go.
package flag

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
)

type kind uint8

const (
	kindEnable kind = iota
	kindDisable
	kindClear
)

// Op is the flag operation: Enable, Disable, or Clear.
type Op struct{ kind kind }

func Enable() Op  { return Op{kind: kindEnable} }
func Disable() Op { return Op{kind: kindDisable} }
func Clear() Op   { return Op{kind: kindClear} }

type rules struct{}

func (rules) RedundantItself(_ clock.Tag, op Op, _ bool, _ []crdtlog.TaggedOp[Op]) bool {
	return op.kind == kindDisable || op.kind == kindClear
}

func (rules) RedundantByWhenRedundant(_ crdtlog.TaggedOp[Op], isConc bool, _ clock.Tag, newOp Op) bool {
	if isConc {
		return false
	}
	// Any prior op (necessarily an Enable, since Disable/Clear are never
	// stored) is superseded by a causally later Disable or Clear.
	return true
}

func (r rules) RedundantByWhenNotRedundant(old crdtlog.TaggedOp[Op], isConc bool, newTag clock.Tag, newOp Op) bool {
	return r.RedundantByWhenRedundant(old, isConc, newTag, newOp)
}

type stabilizer struct{}

func (stabilizer) StabilizeOp(t crdtlog.TaggedOp[Op], stable *bool) {
	if t.Op.kind == kindEnable {
		*stable = true
	}
}

type evaluator struct{}

func (evaluator) Eval(stable bool, unstable []crdtlog.TaggedOp[Op]) bool {
	for _, t := range unstable {
		if t.Op.kind == kindEnable {
			return true
		}
	}
	return stable
}

// Log is an enable-wins flag CRDT instance.
type Log struct {
	*crdtlog.VecLog[Op, bool, bool]
}

// New constructs a flag starting disabled.
func New() *Log {
	return &Log{crdtlog.NewVecLog[Op, bool, bool](rules{}, stabilizer{}, nil, evaluator{}, func() bool { return false })}
}

// IsDefault reports whether the flag currently reads disabled.
func (l *Log) IsDefault() bool {
	return !l.Read()
}

// Effect wraps VecLog.Effect: Disable and Clear are redundant-itself, so
// they must also clear any Enable already folded into stable state.
func (l *Log) Effect(e clock.Event[Op]) {
	l.VecLog.Effect(e)
	if e.Op.kind == kindDisable || e.Op.kind == kindClear {
		l.ResetStable(false)
	}
}
