package tcsb

import "github.com/pkg/errors"

// Error kinds named in spec.md §7. Duplicate, Stale and UnknownOrigin are
// logged and the offending message is dropped; Disabled is the only kind
// that surfaces to the application, as an error return from a replica's
// send. NotCausallyReady has no exported sentinel: an out-of-order event
// is simply buffered in the inbox and retried on the next delivery pass,
// never an error condition a caller observes.
var (
	ErrDuplicate     = errors.New("tcsb: duplicate event")
	ErrStale         = errors.New("tcsb: stale event")
	ErrUnknownOrigin = errors.New("tcsb: unknown or invalid origin")
	ErrDisabled      = errors.New("tcsb: operation disabled by log precondition")
)
