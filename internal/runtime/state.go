// Package runtime implements the Stateful Node Runtimes (spec §4.6, C8):
// the per-kind execute/reset/activeOutputHandles trait dispatched by the
// scheduler, plus the lifecycle state (memory register, timer tick count,
// schedule active flag, function input buffer) that lives alongside a
// node's attributes but is never serialized with it.
//
// Grounded on the teacher's internal/application/executor/state.go (a
// keyed store of per-node execution state separate from the node
// attributes themselves) and node_executors.go (per-kind dispatch).
package runtime

import "github.com/bacflow/dataflow/internal/domain"

// NodeState holds the kind-specific lifecycle state a node carries across
// ticks. Only the fields relevant to the node's kind are populated; the
// zero value is the correct initial state for every kind.
type NodeState struct {
	// Memory
	Stored      domain.Value
	Initialized bool

	// Timer
	TimerRunning   bool
	TimerTickCount int
	TimerLastInput domain.Value
	TimerStop      chan struct{}

	// Schedule
	ScheduleArmed  bool
	ScheduleActive bool

	// Function / message-bus input buffering
	Buffer map[domain.Handle]domain.Value

	// Function console capture, surfaced to the UI via a state-change hook.
	ConsoleLogs []string
}

// Store is the keyed collection of NodeState, one per node id. It is owned
// by the engine (scheduler or bus), not by the Graph, since this state is
// execution lifecycle, not canonical graph data (§4.2's "canonical state
// is exactly two keyed collections" excludes it).
type Store struct {
	states map[string]*NodeState
}

// NewStore returns an empty state store.
func NewStore() *Store {
	return &Store{states: make(map[string]*NodeState)}
}

// Get returns the state for id, lazily creating it on first access.
func (s *Store) Get(id string) *NodeState {
	st, ok := s.states[id]
	if !ok {
		st = &NodeState{}
		s.states[id] = st
	}
	return st
}

// Reset clears a single node's lifecycle state entirely. Stopping the
// engine uses Clear instead, and removing a node from the graph does not
// call Reset.
func (s *Store) Reset(id string) {
	delete(s.states, id)
}

// Clear drops every node's lifecycle state, used by Scheduler.Stop /
// Bus.Stop per §5's cancellation contract.
func (s *Store) Clear() {
	for id, st := range s.states {
		if st.TimerStop != nil {
			close(st.TimerStop)
		}
		delete(s.states, id)
	}
}
