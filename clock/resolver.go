// Package clock implements the replica-identity and causal-time primitives
// that the rest of the runtime is built on: a per-replica interner mapping
// opaque replica identifiers to dense local indices, version vectors, a
// matrix clock (one version vector per known replica), and the event
// identity / Lamport timestamp pair attached to every operation.
//
// Every replica owns exactly one Resolver. Indices it hands out are stable
// for the life of the replica: the interner only ever appends, it never
// renumbers or removes an identifier.
package clock

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrUnknownTranslation is returned by Resolver.Translate when the peer's
// shipped resolver does not contain an entry for the index the peer's
// version vector claims — a protocol error, not a data error (spec.md §4.1).
var ErrUnknownTranslation = errors.New("clock: peer resolver missing claimed index")

// Resolver is the bidirectional, append-only map between opaque replica
// identifiers and this replica's local dense index space (spec.md §3,
// §4.1). The zero value is not usable; use NewResolver.
//
// A Resolver is shared, read-mostly state: every Version, MatrixClock and
// Event stamped by this replica is indexed in this one Resolver's index
// space (they store plain indices, not a reference to it), so that
// index 3 always means the same replica identifier for the life of the
// process, mirroring how dedis-tlc/go/tlc/minnet/node.go addresses peers by
// a fixed integer index into the global All slice — the Resolver simply
// lets that index space grow as new replicas are learned.
type Resolver struct {
	mu    sync.RWMutex
	ids   []string          // index -> identifier, append-only
	index map[string]int    // identifier -> index
	self  int               // this replica's own index
	peers map[int][]int     // peer index -> (peer-local index -> our local index)
}

// NewResolver creates a resolver whose self-identifier is interned first,
// at index 0.
func NewResolver(self string) *Resolver {
	r := &Resolver{
		index: make(map[string]int),
		peers: make(map[int][]int),
	}
	idx, _ := r.intern(self)
	r.self = idx
	return r
}

// Self returns this replica's own local index.
func (r *Resolver) Self() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self
}

// Len returns the number of replica identifiers known so far.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// Identifier returns the replica identifier interned at index i.
func (r *Resolver) Identifier(i int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.ids) {
		return "", false
	}
	return r.ids[i], true
}

// Snapshot returns a copy of the canonical identifier order, suitable for
// shipping inside an outbound message as the sender's resolver (spec.md
// §6's EventMessage.resolver / BatchMessage.resolver / SinceMessage.resolver).
func (r *Resolver) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Intern returns the local index for id, assigning the next index if id has
// never been seen before. Intern is idempotent (spec.md §4.1).
func (r *Resolver) Intern(id string) (index int, isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intern(id)
}

func (r *Resolver) intern(id string) (int, bool) {
	if idx, ok := r.index[id]; ok {
		return idx, false
	}
	idx := len(r.ids)
	r.ids = append(r.ids, id)
	r.index[id] = idx
	return idx, true
}

// Translate maps a remote index, encoded in the index space of the peer
// identified by peerIndex, into this resolver's local index space. It only
// reads the translation table that UpdateTranslation built for that peer:
// it never interns an identifier itself, and a peer or remote index missing
// from the table yields ErrUnknownTranslation.
func (r *Resolver) Translate(peerIndex, remoteIndex int) (int, error) {
	r.mu.RLock()
	table, ok := r.peers[peerIndex]
	if ok && remoteIndex < len(table) {
		local := table[remoteIndex]
		r.mu.RUnlock()
		return local, nil
	}
	r.mu.RUnlock()
	return 0, errors.Wrapf(ErrUnknownTranslation, "peer %d remote index %d", peerIndex, remoteIndex)
}

// UpdateTranslation eagerly interns every identifier in a peer's shipped
// resolver and (re)builds the peer-index -> local-index translation table
// for that peer, returning the local indices that were newly introduced by
// this call so the caller's matrix clock can grow to match (spec.md §4.1).
func (r *Resolver) UpdateTranslation(peerIndex int, peerResolver []string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := make([]int, len(peerResolver))
	var introduced []int
	for remoteIdx, id := range peerResolver {
		local, isNew := r.intern(id)
		table[remoteIdx] = local
		if isNew {
			introduced = append(introduced, local)
		}
	}
	r.peers[peerIndex] = table
	return introduced
}
