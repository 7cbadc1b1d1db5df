package clock

import "fmt"

// EventID identifies an event by its origin replica and that replica's
// local sequence number (spec.md §3). An event is a predecessor of a
// version V iff V.Get(origin) >= seq.
type EventID struct {
	Origin int
	Seq    uint64
}

func (id EventID) String() string {
	return fmt.Sprintf("%d:%d", id.Origin, id.Seq)
}

// Precedes reports whether this event id is a predecessor of v, i.e.
// whether v has already recorded at least id.Seq events from id.Origin.
func (id EventID) Precedes(v *Version) bool {
	return v.Get(id.Origin) >= id.Seq
}

// Tag is an event's identity metadata with the operation payload stripped
// out (spec.md §3): used by redundancy predicates and causal-readiness
// checks that only need metadata, never the operation itself.
type Tag struct {
	ID      EventID
	Lamport uint64
	Version *Version
}

// Event is a tagged operation: (event_id, lamport, operation, version)
// (spec.md §3). The operation is opaque to the clock and TCSB layers —
// they never inspect Op, only route it.
type Event[Op any] struct {
	Tag
	Op Op
}

// NewEvent builds an event for a freshly-sent operation: seq is the
// already-incremented origin sequence number, version is the sender's
// snapshot at that moment (origin entry already incremented).
func NewEvent[Op any](origin int, seq uint64, version *Version, op Op) Event[Op] {
	return Event[Op]{
		Tag: Tag{
			ID:      EventID{Origin: origin, Seq: seq},
			Lamport: version.Lamport(),
			Version: version,
		},
		Op: op,
	}
}

// Unfold rebuilds an event around a different (typically narrower)
// operation type while keeping the same tag — used by composite CRDTs
// (UW-Map, UW-multidigraph, JSON union) to route an event down to a child
// log. Mirrors original_source/src/crdt/map/uw_map.rs's `Event::unfold`.
func Unfold[From, To any](e Event[From], op To) Event[To] {
	return Event[To]{Tag: e.Tag, Op: op}
}
