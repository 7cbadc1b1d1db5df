package crdtlog

import "github.com/CEA-LIST/Moirai-sub000/clock"

// VecLog is the PO-Log concrete storage strategy of spec.md §4.7: stable
// state is CRDT-specific, unstable state is an ordered slice of tagged
// operations. Effect scans the slice to evaluate redundancy; Stabilize
// folds qualifying entries into the stable state.
//
// Grounded structurally on the teacher's per-peer append-only log shape
// (dedis-tlc/go/tlc/minnet/node.go's `log [][]*logEntry`), generalized
// from "one slice per peer" to "one slice of tagged ops per CRDT
// instance" since a PO-Log's redundancy scan is over the whole unstable
// set at once, not per sender.
type VecLog[Op any, Stable any, Value any] struct {
	rules      Rules[Op, Stable]
	stabilizer Stabilizer[Op, Stable] // nil disables stabilize (DISABLE_STABILIZE)
	enabler    Enabler[Op, Stable]    // nil means always enabled
	eval       Evaluator[Op, Stable, Value]

	newZero func() Stable // produces a fresh default value, for RedundantByParent's reset

	stable        Stable
	stableVersion *clock.Version // join of every version ever folded into stable; nil if stable is still default
	unstable      []TaggedOp[Op]
}

// NewVecLog constructs a PO-Log with the given redundancy rules and
// evaluator. newZero produces the CRDT's default/zero Stable value; it is
// called once up front and again, internally, whenever RedundantByParent
// discovers that the whole of stable must be retracted — a fresh value
// each time, not a stored one, because a Stable type backed by a map
// (e.g. crdt/awset.Set) would otherwise alias the very state it is
// supposed to reset. stabilizer and enabler may be nil.
func NewVecLog[Op any, Stable any, Value any](
	rules Rules[Op, Stable],
	stabilizer Stabilizer[Op, Stable],
	enabler Enabler[Op, Stable],
	eval Evaluator[Op, Stable, Value],
	newZero func() Stable,
) *VecLog[Op, Stable, Value] {
	return &VecLog[Op, Stable, Value]{
		rules:      rules,
		stabilizer: stabilizer,
		enabler:    enabler,
		eval:       eval,
		newZero:    newZero,
		stable:     newZero(),
	}
}

// Stable returns the current compressed stable state.
func (l *VecLog[Op, Stable, Value]) Stable() Stable { return l.stable }

// Unstable returns the current unstable tagged operations. Callers must
// not mutate the returned slice.
func (l *VecLog[Op, Stable, Value]) Unstable() []TaggedOp[Op] { return l.unstable }

// Effect implements the generic engine's incoming-event state machine
// (spec.md §4.8): decide whether the new operation is redundant itself,
// then sweep the existing unstable set for ops it renders redundant.
func (l *VecLog[Op, Stable, Value]) Effect(e clock.Event[Op]) {
	isR := l.rules.RedundantItself(e.Tag, e.Op, l.stable, l.unstable)

	kept := l.unstable[:0]
	for _, old := range l.unstable {
		isConc := old.Tag.Version.IsConcurrent(e.Tag.Version)
		var drop bool
		if isR {
			drop = l.rules.RedundantByWhenRedundant(old, isConc, e.Tag, e.Op)
		} else {
			drop = l.rules.RedundantByWhenNotRedundant(old, isConc, e.Tag, e.Op)
		}
		if !drop {
			kept = append(kept, old)
		}
	}
	l.unstable = kept

	if !isR {
		l.unstable = append(l.unstable, TaggedOp[Op]{Tag: e.Tag, Op: e.Op})
	}
}

// Stabilize folds every tagged op whose version precedes version into the
// stable state (if a Stabilizer is configured) and removes it from the
// unstable set (spec.md §4.8 step 4).
func (l *VecLog[Op, Stable, Value]) Stabilize(version *clock.Version) {
	kept := l.unstable[:0]
	folded := false
	for _, t := range l.unstable {
		if t.Tag.ID.Precedes(version) {
			if l.stabilizer != nil {
				l.stabilizer.StabilizeOp(t, &l.stable)
			}
			folded = true
		} else {
			kept = append(kept, t)
		}
	}
	l.unstable = kept
	if folded {
		if l.stableVersion == nil {
			l.stableVersion = version.Clone()
		} else {
			l.stableVersion.Join(version)
		}
	}
}

// RedundantByParent removes every unstable op whose version is a
// predecessor of (or, if conservative, equal to) version — the mechanism
// behind remove-wins/update-wins composition (spec.md §4.6). Anything
// already folded into stable state is subject to the same rule: a
// replica's drain loop stabilizes after every batch of deliveries (see
// replica.Replica.drain), so by the time a parent-level Remove/Clear
// reaches a child this far behind, the child's non-concurrent updates
// have often already left unstable. stableVersion is the join of every
// version ever folded into stable, so it dominates every op stable
// actually holds; when it is itself a predecessor of (or, if
// conservative, equal to) version, none of stable can be concurrent with
// or newer than the parent op, and the whole of stable is safe to
// retract. A stableVersion that is concurrent with version may still mix
// in an update that is genuinely concurrent with the parent op, so it is
// left untouched rather than risk discarding a survivor.
func (l *VecLog[Op, Stable, Value]) RedundantByParent(version *clock.Version, conservative bool) {
	kept := l.unstable[:0]
	for _, t := range l.unstable {
		switch t.Tag.Version.Compare(version) {
		case clock.Less:
			continue
		case clock.Equal:
			if conservative {
				continue
			}
		}
		kept = append(kept, t)
	}
	l.unstable = kept

	if l.stableVersion == nil {
		return
	}
	switch l.stableVersion.Compare(version) {
	case clock.Less:
	case clock.Equal:
		if !conservative {
			return
		}
	default:
		return
	}
	l.stable = l.newZero()
	l.stableVersion = nil
}

// IsEnabled runs the CRDT's send precondition, if any.
func (l *VecLog[Op, Stable, Value]) IsEnabled(op Op) bool {
	if l.enabler == nil {
		return true
	}
	return l.enabler.IsEnabled(op, l.stable, l.unstable)
}

// IsDefault reports whether the log holds no unstable operations. Concrete
// CRDTs whose "default-ness" also depends on stable state override this
// via their own wrapper type.
func (l *VecLog[Op, Stable, Value]) IsDefault() bool {
	return len(l.unstable) == 0
}

// Read evaluates the log's current value.
func (l *VecLog[Op, Stable, Value]) Read() Value {
	return l.eval.Eval(l.stable, l.unstable)
}

// ResetStable replaces the stable state outright. Most CRDTs never need
// this: redundancy already sweeps anything a new op subsumes out of the
// unstable set. But an operation like Clear must also wipe state that was
// already folded into stable by an earlier Stabilize — concrete CRDTs
// whose operations reach that far (the AW-Set and RW-Set Clear, the
// counter's Reset, the flag's Disable/Clear, the registers' Clear) call
// this from their own Effect override.
func (l *VecLog[Op, Stable, Value]) ResetStable(zero Stable) {
	l.stable = zero
	l.stableVersion = nil
}
