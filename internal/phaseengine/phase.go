// internal/phaseengine/phase.go
// Phase state: one of none, APPLY, READ, WRITE. Backed by go.uber.org/atomic
// so phase checks in the hot capture/write path never take a lock.
package phaseengine

import "go.uber.org/atomic"

type Phase int32

const (
	PhaseNone Phase = iota
	PhaseApply
	PhaseRead
	PhaseWrite
)

func (p Phase) String() string {
	switch p {
	case PhaseApply:
		return "APPLY"
	case PhaseRead:
		return "READ"
	case PhaseWrite:
		return "WRITE"
	default:
		return "none"
	}
}

// PhaseState is one Coordinator's current phase, consulted by every
// phase-checked API to fail fast with PhaseViolation.
type PhaseState struct {
	v atomic.Int32
}

func (s *PhaseState) Current() Phase { return Phase(s.v.Load()) }

func (s *PhaseState) set(p Phase) { s.v.Store(int32(p)) }

func (s *PhaseState) require(want Phase, op string) error {
	if got := s.Current(); got != want {
		return &PhaseViolation{Op: op, Want: want, Got: got}
	}
	return nil
}

// PhaseViolation reports an operation invoked outside its legal phase. A
// write targeting a class other than the one currently being written is
// reported as CrossClassWrite instead.
type PhaseViolation struct {
	Op   string
	Want Phase
	Got  Phase
}

func (e *PhaseViolation) Error() string {
	return "phaseengine: " + e.Op + " is only legal in " + e.Want.String() + ", current phase is " + e.Got.String()
}
