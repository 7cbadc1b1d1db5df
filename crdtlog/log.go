// Package crdtlog implements the generic pure-CRDT log abstraction that
// every concrete replicated data type in package crdt is built on
// (spec.md §4.5–§4.8): the PureCRDT redundancy contract plus the IsLog
// generic operation store, and two concrete storage strategies — an
// ordered vector (PO-Log) and a causal DAG (event graph).
//
// There is no teacher precedent for this package: dedis-tlc implements a
// consensus protocol, not a replicated-data-type framework. The shape of
// Rules/Stabilizer/Enabler/Evaluator below is a direct generic-Go
// translation of the Rust traits in
// _examples/original_source/src/crdt/mod.rs (PureCRDT) and
// src/protocol/multilog.rs (IsLog) — each Rust trait method becomes a Go
// interface method, and the "declarative query" design note in spec.md §9
// is resolved as typed methods plus small optional interfaces (Getter,
// Container) rather than a single reflective execute_query dispatcher,
// since Go generics make the typed form both simpler and safer.
package crdtlog

import "github.com/CEA-LIST/Moirai-sub000/clock"

// TaggedOp is an operation paired with the tag it was delivered with
// (spec.md §3's "tagged operation").
type TaggedOp[Op any] struct {
	Tag clock.Tag
	Op  Op
}

// Rules implements the three redundancy predicates of PureCRDT
// (spec.md §4.5) for one concrete operation/stable-state pair.
type Rules[Op any, Stable any] interface {
	// RedundantItself reports whether the incoming operation is already
	// subsumed by the current state: if true, it is never stored, but is
	// still delivered so that clocks advance.
	RedundantItself(newTag clock.Tag, newOp Op, stable Stable, unstable []TaggedOp[Op]) bool

	// RedundantByWhenRedundant decides whether old should be dropped from
	// the log because newTag/newOp arrived, given that the new operation
	// was itself judged redundant.
	RedundantByWhenRedundant(old TaggedOp[Op], isConcurrent bool, newTag clock.Tag, newOp Op) bool

	// RedundantByWhenNotRedundant is the same decision for the case where
	// the new operation was not redundant.
	RedundantByWhenNotRedundant(old TaggedOp[Op], isConcurrent bool, newTag clock.Tag, newOp Op) bool
}

// Stabilizer folds one stabilized tagged operation into the compressed
// stable state (spec.md §4.5's optional `stabilize`). A log whose CRDT has
// no Stabilizer (DISABLE_STABILIZE) simply drops stabilized ops without
// updating any stable state.
type Stabilizer[Op any, Stable any] interface {
	StabilizeOp(t TaggedOp[Op], stable *Stable)
}

// Enabler implements the `send` precondition of spec.md §4.5's optional
// `is_enabled` (e.g. RemoveVertex requires the vertex to already exist).
// A log whose CRDT has no Enabler always allows the operation.
type Enabler[Op any, Stable any] interface {
	IsEnabled(op Op, stable Stable, unstable []TaggedOp[Op]) bool
}

// Evaluator computes a log's query Value from its stable and unstable
// state (the `Read` evaluation function of spec.md §4.5).
type Evaluator[Op any, Stable any, Value any] interface {
	Eval(stable Stable, unstable []TaggedOp[Op]) Value
}

// Log is the generic operation-store interface every concrete log
// implements (spec.md §4.6's IsLog trait), consumed by the replica façade
// and by composite parent logs (UW-Map, UW-multidigraph, JSON union).
type Log[Op any, Value any] interface {
	// Effect incorporates a causally-ready event into the log.
	Effect(e clock.Event[Op])

	// Stabilize applies stabilisation up to version: every tagged op whose
	// version is a predecessor of version is folded into stable state (or
	// simply dropped, for logs with no Stabilizer) and removed from the
	// unstable store.
	Stabilize(version *clock.Version)

	// RedundantByParent is invoked by a parent composite log to mark
	// everything causally strictly before version as redundant; conservative additionally
	// includes entries whose version is exactly equal. Used to implement
	// remove-wins / update-wins semantics on nested structures (spec.md §4.6).
	RedundantByParent(version *clock.Version, conservative bool)

	// IsEnabled is send's precondition check.
	IsEnabled(op Op) bool

	// IsDefault reports whether the log currently holds the CRDT's default
	// (empty) value — used by composite logs to decide whether a child is
	// worth reporting in a query result.
	IsDefault() bool

	// Read evaluates the log's current query value.
	Read() Value
}

// Getter is implemented by logs that support a keyed sub-query
// (spec.md §4.6's `Get(key)` / `NestedGet(key, subquery)`).
type Getter[K comparable, V any] interface {
	Get(key K) (V, bool)
}

// Container is implemented by logs that support a membership sub-query
// (spec.md §4.6's `Contains(x)`).
type Container[V any] interface {
	Contains(v V) bool
}
