// Package main implements replicasim, a script-driven in-memory
// multi-replica harness for the replica/tcsb/crdt stack, for manually
// exercising the convergence scenarios in spec.md §8 without a real
// transport. Grounded on the teacher's own command-line shape in
// tools/qsc/main.go (a verb switched on whitespace-separated arguments,
// with a usage string printed on misuse) plus cdc-sink-redshift's
// pflag.FlagSet binding pattern for the handful of process-level flags.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CEA-LIST/Moirai-sub000/crdt/awset"
	"github.com/CEA-LIST/Moirai-sub000/replica"
	"github.com/CEA-LIST/Moirai-sub000/tcsb"
	"github.com/teris-io/shortid"
)

type demoReplica = replica.Replica[awset.Op[string], awset.Set[string]]

type peerKey struct{ from, to string }

// simulator drives a set of in-memory replicas, all sharing the single
// add-wins set CRDT (package crdt/awset) for the demo, and a global
// record of every message ever sent so "deliver" and "pull" can replay
// it against a named destination. It stands in for the network: a real
// deployment would carry EventMessage/BatchMessage over its own
// transport instead of an in-process slice.
type simulator struct {
	replicas  map[string]*demoReplica
	sent      map[string][]tcsb.EventMessage[awset.Op[string]]
	delivered map[peerKey]int
}

func newSimulator() *simulator {
	return &simulator{
		replicas:  make(map[string]*demoReplica),
		sent:      make(map[string][]tcsb.EventMessage[awset.Op[string]]),
		delivered: make(map[peerKey]int),
	}
}

func (s *simulator) ensure(name string) *demoReplica {
	r, ok := s.replicas[name]
	if !ok {
		r = replica.New[awset.Op[string], awset.Set[string]](name, awset.New[string]())
		s.replicas[name] = r
	}
	return r
}

// run parses and executes one script line, mutating the simulator and
// writing any query/deliver/pull output to out. Blank lines and lines
// starting with # are ignored.
func (s *simulator) run(line string, out func(format string, args ...any)) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "replica":
		switch len(fields) {
		case 1:
			name, err := shortid.Generate()
			if err != nil {
				return err
			}
			s.ensure(name)
			out("replica %s\n", name)
		case 2:
			s.ensure(fields[1])
		default:
			return fmt.Errorf("usage: replica [name]")
		}
		return nil

	case "send":
		return s.runSend(fields)

	case "deliver":
		if len(fields) != 3 {
			return fmt.Errorf("usage: deliver <from> <to>")
		}
		n, err := s.deliver(fields[1], fields[2])
		if err != nil {
			return err
		}
		out("delivered %d event(s) from %s to %s\n", n, fields[1], fields[2])
		return nil

	case "pull":
		if len(fields) != 3 {
			return fmt.Errorf("usage: pull <to> <from>")
		}
		n, err := s.pull(fields[1], fields[2])
		if err != nil {
			return err
		}
		out("pulled %d event(s) into %s from %s\n", n, fields[1], fields[2])
		return nil

	case "query":
		if len(fields) != 2 {
			return fmt.Errorf("usage: query <name>")
		}
		out("%s: %s\n", fields[1], formatSet(s.ensure(fields[1]).Query()))
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func (s *simulator) runSend(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("usage: send <name> add|remove|clear [value]")
	}
	name, verb := fields[1], fields[2]

	var op awset.Op[string]
	switch verb {
	case "add", "remove":
		if len(fields) != 4 {
			return fmt.Errorf("usage: send <name> %s <value>", verb)
		}
		if verb == "add" {
			op = awset.Add(fields[3])
		} else {
			op = awset.Remove(fields[3])
		}
	case "clear":
		if len(fields) != 3 {
			return fmt.Errorf("usage: send <name> clear")
		}
		op = awset.Clear[string]()
	default:
		return fmt.Errorf("send: unknown verb %q, want add|remove|clear", verb)
	}

	msg, err := s.ensure(name).Send(op)
	if err != nil {
		return err
	}
	s.sent[name] = append(s.sent[name], msg)
	return nil
}

// deliver replays every message from's replica has sent that to's
// replica has not yet received, in send order.
func (s *simulator) deliver(from, to string) (int, error) {
	key := peerKey{from: from, to: to}
	msgs := s.sent[from]
	idx := s.delivered[key]
	dst := s.ensure(to)

	n := 0
	for ; idx < len(msgs); idx++ {
		if err := dst.Receive(msgs[idx]); err != nil {
			return n, err
		}
		n++
	}
	s.delivered[key] = idx
	return n, nil
}

// pull runs an anti-entropy round: to asks from for everything it is
// missing, and applies whatever batch comes back.
func (s *simulator) pull(to, from string) (int, error) {
	dst := s.ensure(to)
	src := s.ensure(from)

	since := dst.Since()
	batch, err := src.Pull(to, since)
	if err != nil {
		return 0, err
	}
	if err := dst.ReceiveBatch(from, batch); err != nil {
		return 0, err
	}
	return len(batch.Events), nil
}

func formatSet(set awset.Set[string]) string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return "{" + strings.Join(values, ", ") + "}"
}
