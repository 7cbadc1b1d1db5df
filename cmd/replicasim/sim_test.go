package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, s *simulator, lines ...string) []string {
	t.Helper()
	var output []string
	for _, line := range lines {
		require.NoError(t, s.run(line, func(format string, args ...any) {
			output = append(output, fmt.Sprintf(format, args...))
		}))
	}
	return output
}

func TestDeliverConvergesTwoReplicas(t *testing.T) {
	s := newSimulator()
	runScript(t, s,
		"replica a",
		"replica b",
		"send a add x",
		"deliver a b",
	)

	assert.Equal(t, s.ensure("a").Query(), s.ensure("b").Query())
	assert.True(t, s.ensure("b").Query().Contains("x"))
}

func TestDeliverIsIncrementalAcrossCalls(t *testing.T) {
	s := newSimulator()
	runScript(t, s, "replica a", "replica b", "send a add x")

	n, err := s.deliver("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.deliver("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already-delivered events must not replay")

	require.NoError(t, s.run("send a add y", discard))

	n, err = s.deliver("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPullConvergesALateReplica(t *testing.T) {
	s := newSimulator()
	runScript(t, s, "replica a", "replica b", "send a add x", "send a add y")

	n, err := s.pull("b", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, s.ensure("a").Query(), s.ensure("b").Query())
}

func TestSendRejectsAnUnknownVerb(t *testing.T) {
	s := newSimulator()
	err := s.run("send a frobnicate x", discard)
	assert.Error(t, err)
}

func TestUnknownCommandIsRejected(t *testing.T) {
	s := newSimulator()
	err := s.run("levitate a", discard)
	assert.Error(t, err)
}

func TestReplicaWithNoNameGeneratesAShortid(t *testing.T) {
	s := newSimulator()
	var name string
	err := s.run("replica", func(format string, args ...any) {
		name = fmt.Sprintf(format, args...)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func discard(format string, args ...any) {}
