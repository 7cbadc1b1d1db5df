// Package replica is the façade layer binding one crdtlog.Log instance
// to its own tcsb.TCSB broadcast instance (spec.md §4's L5 "Replica
// façade" row): the application only ever talks to a Replica — Send,
// Receive, Pull, Query — never to TCSB or the log directly.
//
// Grounded on the teacher's Node struct in dedis-tlc's
// go/tlc/minnet/node.go: one struct that owns both the causal-broadcast
// bookkeeping and a reference to the upper-layer state it drives,
// generalized here from a fixed Message/TLC-round shape to a generic
// crdtlog.Log so any CRDT in package crdt can be dropped in unchanged.
package replica

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/CEA-LIST/Moirai-sub000/crdtlog"
	"github.com/CEA-LIST/Moirai-sub000/tcsb"
	"github.com/sirupsen/logrus"
)

// Replica binds a TCSB broadcast instance to a concrete log, for
// operations of type Op producing query results of type Value.
type Replica[Op any, Value any] struct {
	name string
	tc   *tcsb.TCSB[Op]
	log  crdtlog.Log[Op, Value]
	lg   *logrus.Entry
}

// New constructs a replica identified by name, driving log.
func New[Op any, Value any](name string, log crdtlog.Log[Op, Value]) *Replica[Op, Value] {
	return &Replica[Op, Value]{
		name: name,
		tc:   tcsb.New[Op](name),
		log:  log,
		lg:   logrus.WithField("replica", name),
	}
}

// Name returns the replica's own application-level identifier.
func (r *Replica[Op, Value]) Name() string { return r.name }

// Resolver exposes the replica's interner, mapping replica identifiers to
// the local indices used in its events and version vectors.
func (r *Replica[Op, Value]) Resolver() *clock.Resolver { return r.tc.Resolver() }

// Send runs the log's precondition (spec.md §4's "replica asks the log
// whether it is enabled"), tags op via TCSB, applies the tagged event to
// the log immediately — "an event is created by send; it is immediately
// added to the outbox and applied to the local log" (spec.md's Lifecycle
// section) — and returns the message ready to broadcast.
func (r *Replica[Op, Value]) Send(op Op) (tcsb.EventMessage[Op], error) {
	if !r.log.IsEnabled(op) {
		return tcsb.EventMessage[Op]{}, tcsb.ErrDisabled
	}
	msg := r.tc.Send(op)
	r.log.Effect(localEvent(msg, r.tc.Resolver()))
	r.lg.WithField("op", msg.Event.EventID).Debug("replica: applied local send")
	return msg, nil
}

// Receive validates and buffers a remote event, then drains every event
// that becomes causally ready as a result — possibly a whole chain, not
// just msg's own event — applying each to the log in order, and runs
// stabilization if the stable version advanced.
func (r *Replica[Op, Value]) Receive(msg tcsb.EventMessage[Op]) error {
	if err := r.tc.Receive(msg); err != nil {
		return err
	}
	r.drain()
	return nil
}

// ReceiveBatch applies a pulled batch the same way Receive applies a
// single event.
func (r *Replica[Op, Value]) ReceiveBatch(from string, msg tcsb.BatchMessage[Op]) error {
	if err := r.tc.ReceiveBatch(from, msg); err != nil {
		return err
	}
	r.drain()
	return nil
}

// drain delivers every causally-ready event to the log in a fixed-point
// loop (spec.md §4.4's NextCausallyReady contract: one delivery can
// unblock another), then stabilizes the log if the matrix clock's
// column-wise minimum advanced.
func (r *Replica[Op, Value]) drain() {
	for {
		event, ok := r.tc.NextCausallyReady()
		if !ok {
			break
		}
		r.log.Effect(event)
	}
	if stable, changed := r.tc.IsStable(); changed {
		r.log.Stabilize(stable)
	}
}

// Since builds an anti-entropy request for this replica.
func (r *Replica[Op, Value]) Since() tcsb.SinceMessage { return r.tc.Since() }

// Pull answers an anti-entropy request from peer "from".
func (r *Replica[Op, Value]) Pull(from string, since tcsb.SinceMessage) (tcsb.BatchMessage[Op], error) {
	return r.tc.Pull(from, since)
}

// Query evaluates the log's current value.
func (r *Replica[Op, Value]) Query() Value { return r.log.Read() }

// Get runs a keyed sub-query against a replica whose log implements
// crdtlog.Getter[K, V] (e.g. crdt/uwmap), resolving spec.md §4.6's
// `Get(key)`. ok is false both when the key is absent and when the log
// does not support keyed queries at all.
func Get[K comparable, V any, Op any, Value any](r *Replica[Op, Value], key K) (V, bool) {
	g, ok := any(r.log).(crdtlog.Getter[K, V])
	if !ok {
		var zero V
		return zero, false
	}
	return g.Get(key)
}

// localEvent reconstructs the clock.Event a Send just tagged from the
// EventMessage TCSB handed back, instead of asking TCSB to expose the
// event directly: the wire encoding of a replica's own freshly-tagged
// event is already in that replica's own local index space (its Origin
// is the replica's own local index and its Version is the replica's own
// version vector read off index-for-index), so no peer-index translation
// is needed — only NewVersion/Set as tcsb's own fromWireVersion does
// internally for a foreign event.
func localEvent[Op any](msg tcsb.EventMessage[Op], resolver *clock.Resolver) clock.Event[Op] {
	we := msg.Event
	version := clock.NewVersion(we.EventID.Origin, resolver)
	for i, seq := range we.Version {
		version.Set(i, seq)
	}
	return clock.Event[Op]{
		Tag: clock.Tag{
			ID:      clock.EventID{Origin: we.EventID.Origin, Seq: we.EventID.Seq},
			Lamport: we.Lamport,
			Version: version,
		},
		Op: we.Op,
	}
}
