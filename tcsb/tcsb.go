// Package tcsb implements Tagged Causal-Stable Broadcast: the middleware
// layer that assigns per-replica metadata to every local operation,
// delivers remote operations in causal order, detects when an operation
// becomes causally stable, and serves anti-entropy pulls (spec.md §4.4).
//
// Grounded on the matrix-clock causal broadcast core in
// _examples/dedis-tlc/go/dist/causal.go (broadcastCausal/logCausal/
// receiveCausal/deliverCausal) and its network-attached twin
// _examples/dedis-tlc/go/tlc/minnet/gossip.go. The teacher's per-peer
// out-of-order slice (`n.oom [][]*Message`, indexed by sequence offset)
// is replaced by an EventID-keyed inbox map per spec.md §3's data model,
// since the spec's event identity already names the origin so a flat map
// is sufficient and avoids the slice-growing dance the teacher does.
package tcsb

import (
	"sync"

	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TCSB is a single replica's tagged causal-stable broadcast instance. It is
// single-owner: per spec.md §4.4's concurrency contract, its methods must
// not be called concurrently on the same instance; TCSB only protects its
// own bookkeeping with a mutex so that an application that does call it
// from multiple goroutines fails safely rather than corrupting state.
type TCSB[Op any] struct {
	mu sync.Mutex

	resolver *clock.Resolver
	matrix   *clock.MatrixClock

	inbox  map[clock.EventID]clock.Event[Op]
	outbox map[clock.EventID]clock.Event[Op]

	lastStable *clock.Version

	log     *logrus.Entry
	metrics *metrics
}

// New creates a TCSB instance for a replica identified by self.
func New[Op any](self string) *TCSB[Op] {
	resolver := clock.NewResolver(self)
	matrix := clock.NewMatrixClock(resolver.Self(), resolver)
	t := &TCSB[Op]{
		resolver: resolver,
		matrix:   matrix,
		inbox:    make(map[clock.EventID]clock.Event[Op]),
		outbox:   make(map[clock.EventID]clock.Event[Op]),
		log:      logrus.WithField("replica", self),
		metrics:  newMetrics(self),
	}
	t.lastStable = matrix.ColumnWiseMin()
	return t
}

// Resolver exposes the replica's interner, e.g. for a façade that needs to
// translate an application-level replica name into a local index.
func (t *TCSB[Op]) Resolver() *clock.Resolver { return t.resolver }

// Self returns this replica's own local index.
func (t *TCSB[Op]) Self() int { return t.resolver.Self() }

// LastStableVersion returns the most recently computed stable version.
func (t *TCSB[Op]) LastStableVersion() *clock.Version { return t.lastStable }

// Send tags a local operation with a fresh event identity and version,
// applies it to the outbox, and returns the message to broadcast
// (spec.md §4.4's `send`).
func (t *TCSB[Op]) Send(op Op) EventMessage[Op] {
	t.mu.Lock()
	defer t.mu.Unlock()

	origin := t.matrix.OriginVersion()
	seq := origin.Increment()
	version := origin.Clone()
	event := clock.NewEvent(t.Self(), seq, version, op)

	t.outbox[event.Tag.ID] = event
	t.metrics.sent()
	t.metrics.setOutbox(len(t.outbox))
	t.log.WithField("event", event.Tag.ID).Debug("tcsb: sent event")

	return EventMessage[Op]{Event: toWireEvent(event), Resolver: t.resolver.Snapshot()}
}

// Receive validates and buffers a remote event (spec.md §4.4's `receive`).
// The sender is always the event's own origin, per spec.md §6.
func (t *TCSB[Op]) Receive(msg EventMessage[Op]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Event.EventID.Origin < 0 || msg.Event.EventID.Origin >= len(msg.Resolver) {
		return errors.Wrap(ErrUnknownOrigin, "tcsb: event origin out of range of shipped resolver")
	}
	senderID := msg.Resolver[msg.Event.EventID.Origin]
	peerLocal, _ := t.resolver.Intern(senderID)
	t.matrix.AddReplica(peerLocal)
	for _, idx := range t.resolver.UpdateTranslation(peerLocal, msg.Resolver) {
		t.matrix.AddReplica(idx)
	}

	event, err := fromWireEvent[Op](msg.Event, peerLocal, t.resolver)
	if err != nil {
		return errors.Wrap(err, "tcsb: receive")
	}
	if err := t.acceptEvent(event); err != nil {
		t.log.WithError(err).Warn("tcsb: event rejected")
		return err
	}
	return nil
}

// ReceiveBatch applies a batch of (possibly relayed) events pulled from
// peer "from", advancing this replica's matrix row for that peer to the
// batch's own version vector once all events are applied (spec.md §6's
// BatchMessage doc: "the batch carries this replica's own version vector
// so the requester can advance its matrix-clock row for this peer
// atomically on receipt"). Unlike EventMessage, a batch can relay events
// whose origin differs from the peer that sent the batch, so the sending
// peer's identity must be supplied by the caller rather than derived from
// any single event in the batch.
func (t *TCSB[Op]) ReceiveBatch(from string, msg BatchMessage[Op]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	peerLocal, _ := t.resolver.Intern(from)
	t.matrix.AddReplica(peerLocal)
	for _, idx := range t.resolver.UpdateTranslation(peerLocal, msg.Resolver) {
		t.matrix.AddReplica(idx)
	}

	for _, we := range msg.Events {
		event, err := fromWireEvent[Op](we, peerLocal, t.resolver)
		if err != nil {
			t.log.WithError(err).Warn("tcsb: dropping unresolvable batch event")
			continue
		}
		if err := t.acceptEvent(event); err != nil {
			t.log.WithError(err).Debug("tcsb: batch event not accepted")
		}
	}

	peerVersion, err := fromWireVersion(msg.Version, peerLocal, t.resolver)
	if err != nil {
		return errors.Wrap(err, "tcsb: receive batch: translate sender version")
	}
	t.matrix.Row(peerLocal).Join(peerVersion)
	return nil
}

// acceptEvent runs the validation steps common to Receive and
// ReceiveBatch (spec.md §4.4 step 2, §7): reject our own events reflected
// back, duplicates, and stale events; otherwise buffer in both inbox and
// outbox.
func (t *TCSB[Op]) acceptEvent(event clock.Event[Op]) error {
	if event.Tag.ID.Origin == t.Self() {
		return errors.Wrap(ErrUnknownOrigin, "received an event purportedly from ourselves")
	}
	if event.Tag.ID.Seq <= t.matrix.Row(event.Tag.ID.Origin).Get(event.Tag.ID.Origin) {
		t.metrics.duplicate()
		return errors.Wrapf(ErrDuplicate, "event %s", event.Tag.ID)
	}
	if event.Tag.Version.Compare(t.lastStable) != clock.Greater {
		t.metrics.stale()
		return errors.Wrapf(ErrStale, "event %s", event.Tag.ID)
	}

	t.inbox[event.Tag.ID] = event
	t.outbox[event.Tag.ID] = event
	t.metrics.received()
	t.metrics.setInbox(len(t.inbox))
	t.metrics.setOutbox(len(t.outbox))
	return nil
}

// causallyReady implements spec.md §4.4's readiness test: for every
// (idx, seq) recorded in the event's version, if idx is the event's own
// origin our row must be exactly one behind seq (this is the very next
// event from that origin); otherwise our row must already be at least seq.
func (t *TCSB[Op]) causallyReady(event clock.Event[Op]) bool {
	selfRow := t.matrix.Row(t.Self())
	for idx := 0; idx < event.Tag.Version.Len(); idx++ {
		seq := event.Tag.Version.Get(idx)
		if idx == event.Tag.ID.Origin {
			if selfRow.Get(idx) != seq-1 {
				return false
			}
		} else if selfRow.Get(idx) < seq {
			return false
		}
	}
	return true
}

// NextCausallyReady removes and returns the first causally-ready event
// from the inbox, if any, advancing the matrix clock accordingly (spec.md
// §4.4). Callers should call it in a loop until it returns ok == false, to
// drain any chain of events that became ready as a side effect of the
// previous delivery — the same fixed-point loop as the teacher's
// deliverCausal in dedis-tlc/go/dist/causal.go.
func (t *TCSB[Op]) NextCausallyReady() (event clock.Event[Op], ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, ev := range t.inbox {
		if !t.causallyReady(ev) {
			continue
		}
		delete(t.inbox, id)
		t.metrics.setInbox(len(t.inbox))

		t.matrix.Row(t.Self()).Join(ev.Tag.Version)
		t.matrix.SetRow(ev.Tag.ID.Origin, ev.Tag.Version.Clone())
		t.metrics.delivered()
		return ev, true
	}
	return clock.Event[Op]{}, false
}

// IsStable recomputes the matrix's column-wise minimum. If it is unchanged
// from the cached last-stable version, it returns (nil, false). Otherwise
// it prunes every outbox event that now precedes the new stable version,
// caches it, and returns (newStable, true) (spec.md §4.4).
func (t *TCSB[Op]) IsStable() (*clock.Version, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	newStable := t.matrix.ColumnWiseMin()
	if newStable.Compare(t.lastStable) == clock.Equal {
		return nil, false
	}

	for id := range t.outbox {
		if id.Precedes(newStable) {
			delete(t.outbox, id)
		}
	}
	t.metrics.setOutbox(len(t.outbox))
	t.lastStable = newStable
	t.log.WithField("stable", newStable).Info("tcsb: stable version advanced")
	return newStable, true
}

// Since builds a request for operations not yet known to this replica
// (spec.md §4.4's `since`): the replica's current version plus the set of
// event ids already buffered in its inbox (so a server does not resend
// events already in flight).
func (t *TCSB[Op]) Since() SinceMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	except := make([]WireEventID, 0, len(t.inbox))
	for id := range t.inbox {
		except = append(except, WireEventID{Origin: id.Origin, Seq: id.Seq})
	}
	return SinceMessage{
		Version:  toWireVersion(t.matrix.OriginVersion()),
		Except:   except,
		Resolver: t.resolver.Snapshot(),
	}
}

// Pull answers an anti-entropy request from peer "from": every outbox
// event whose origin is not the requester and whose version is either
// greater than or concurrent with the requester's version, excluding
// anything the requester says it already has buffered (spec.md §4.4).
func (t *TCSB[Op]) Pull(from string, since SinceMessage) (BatchMessage[Op], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	requesterLocal, _ := t.resolver.Intern(from)
	t.matrix.AddReplica(requesterLocal)
	for _, idx := range t.resolver.UpdateTranslation(requesterLocal, since.Resolver) {
		t.matrix.AddReplica(idx)
	}

	sinceVersion, err := fromWireVersion(since.Version, requesterLocal, t.resolver)
	if err != nil {
		return BatchMessage[Op]{}, errors.Wrap(err, "tcsb: pull: translate requester version")
	}
	except := make(map[clock.EventID]bool, len(since.Except))
	for _, weid := range since.Except {
		localOrigin, err := t.resolver.Translate(requesterLocal, weid.Origin)
		if err != nil {
			continue
		}
		except[clock.EventID{Origin: localOrigin, Seq: weid.Seq}] = true
	}

	var events []WireEvent[Op]
	for id, ev := range t.outbox {
		if id.Origin == requesterLocal || except[id] {
			continue
		}
		switch ev.Tag.Version.Compare(sinceVersion) {
		case clock.Greater, clock.Concurrent:
			events = append(events, toWireEvent(ev))
		}
	}

	return BatchMessage[Op]{
		Events:   events,
		Version:  toWireVersion(t.matrix.OriginVersion()),
		Resolver: t.resolver.Snapshot(),
	}, nil
}
