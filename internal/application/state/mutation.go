package state

import (
	"sync/atomic"
)

// Phase tracks a mutation through its optimistic lifecycle. Phase one (the
// in-memory apply) always completes; the persistence follow-up either
// confirms or fails, and a failure never rolls phase one back.
type Phase int32

const (
	PhaseApplied Phase = iota
	PhasePersisting
	PhaseConfirmed
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseApplied:
		return "applied"
	case PhasePersisting:
		return "persisting"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Mutation is the lifecycle record of one optimistic write.
type Mutation struct {
	Op    string
	phase atomic.Int32
}

// NewMutation starts a mutation in the applied phase.
func NewMutation(op string) *Mutation {
	return &Mutation{Op: op}
}

// Phase returns the current lifecycle phase.
func (m *Mutation) Phase() Phase {
	return Phase(m.phase.Load())
}

// Persisting marks the durable write as in flight.
func (m *Mutation) Persisting() {
	m.phase.Store(int32(PhasePersisting))
}

// Confirm marks the durable write as acknowledged.
func (m *Mutation) Confirm() {
	m.phase.Store(int32(PhaseConfirmed))
}

// Fail records a terminal persistence failure. The in-memory state stands.
func (m *Mutation) Fail() {
	m.phase.Store(int32(PhaseFailed))
}
