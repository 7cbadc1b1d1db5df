package tcsb

import (
	"github.com/CEA-LIST/Moirai-sub000/clock"
	"github.com/pkg/errors"
)

// WireEventID is an event identity encoded in the sender's own local index
// space: Origin is an index into the accompanying message's Resolver
// slice, not yet translated into the receiver's index space (spec.md §6).
type WireEventID struct {
	Origin int
	Seq    uint64
}

// WireVersion is a version vector encoded densely, index-for-index, in
// the sender's own local index space.
type WireVersion []uint64

// WireEvent is the wire encoding of a clock.Event: spec.md §6's
// `{ event_id, lamport, op, version }`.
type WireEvent[Op any] struct {
	EventID WireEventID
	Lamport uint64
	Op      Op
	Version WireVersion
}

// EventMessage is the message a replica sends immediately after tagging a
// local operation (spec.md §6). The sender is always the event's own
// origin.
type EventMessage[Op any] struct {
	Event    WireEvent[Op]
	Resolver []string
}

// BatchMessage is the response to a pull: a batch of events the server
// believes the requester is missing, plus the server's own current
// version so the requester can advance its matrix-clock row for the
// server atomically on receipt (spec.md §6).
type BatchMessage[Op any] struct {
	Events   []WireEvent[Op]
	Version  WireVersion
	Resolver []string
}

// SinceMessage requests operations not yet known to the requester: its
// current version plus the set of event ids it has already buffered in
// its inbox, so the server does not resend events already in flight
// (spec.md §6).
type SinceMessage struct {
	Version  WireVersion
	Except   []WireEventID
	Resolver []string
}

// StateTransferMessage bootstraps a fresh replica (spec.md §6). LogState
// is intentionally typed as `any`: its shape is CRDT-specific and
// persistence/serialization of it is explicitly out of this runtime's
// scope (spec.md §1) — this type only fixes the envelope shape a
// transport needs to agree on.
type StateTransferMessage struct {
	Matrix        []WireVersion
	StableVersion WireVersion
	LogState      any
	Resolver      []string
}

func toWireVersion(v *clock.Version) WireVersion {
	out := make(WireVersion, v.Len())
	for i := range out {
		out[i] = v.Get(i)
	}
	return out
}

// fromWireVersion translates a version vector shipped in peerIndex's own
// index space into the local resolver's index space. peerIndex must
// already have a populated translation table (i.e. UpdateTranslation must
// have run for this peer first).
func fromWireVersion(wv WireVersion, peerIndex int, r *clock.Resolver) (*clock.Version, error) {
	v := clock.NewVersion(peerIndex, r)
	for remoteIdx, seq := range wv {
		localIdx, err := r.Translate(peerIndex, remoteIdx)
		if err != nil {
			return nil, errors.Wrap(err, "tcsb: translate version entry")
		}
		v.Set(localIdx, seq)
	}
	return v, nil
}

func toWireEvent[Op any](e clock.Event[Op]) WireEvent[Op] {
	return WireEvent[Op]{
		EventID: WireEventID{Origin: e.Tag.ID.Origin, Seq: e.Tag.ID.Seq},
		Lamport: e.Tag.Lamport,
		Op:      e.Op,
		Version: toWireVersion(e.Tag.Version),
	}
}

func fromWireEvent[Op any](we WireEvent[Op], peerIndex int, r *clock.Resolver) (clock.Event[Op], error) {
	originLocal, err := r.Translate(peerIndex, we.EventID.Origin)
	if err != nil {
		return clock.Event[Op]{}, errors.Wrap(err, "tcsb: translate event origin")
	}
	version, err := fromWireVersion(we.Version, peerIndex, r)
	if err != nil {
		return clock.Event[Op]{}, err
	}
	return clock.Event[Op]{
		Tag: clock.Tag{
			ID:      clock.EventID{Origin: originLocal, Seq: we.EventID.Seq},
			Lamport: we.Lamport,
			Version: version,
		},
		Op: we.Op,
	}, nil
}
