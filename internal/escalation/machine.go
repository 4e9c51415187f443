// Package escalation pauses the conversational agent when the governance
// engine flags a crisis, and resumes it only on an explicit user override.
package escalation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brahmalabs/brahma/internal/audit"
	"github.com/brahmalabs/brahma/internal/store"
)

// StateKey is the store key holding the persisted escalation state.
const StateKey = "brahmaEscalationState"

// State is the escalation lifecycle position.
type State string

const (
	StateNormal  State = "normal"
	StateFlagged State = "flagged"
	StatePaused  State = "paused"
	StateResumed State = "resumed"
)

// ErrNoSentinel is returned when escalation is attempted without a
// configured Sentinel. The Sentinel is a hard dependency: without it the
// agent cannot actually be paused, so the call fails rather than degrades.
var ErrNoSentinel = errors.New("escalation: no sentinel configured")

// ErrNotPaused is returned when Override is called in any state but Paused.
var ErrNotPaused = errors.New("escalation: override only applies to the paused state")

// ErrPipeline wraps Sentinel handoff failures so callers can tell them
// apart from ordinary persistence faults.
var ErrPipeline = errors.New("escalation: crisis pipeline failed")

// CrisisPayload is handed to the Sentinel when the pipeline fires.
type CrisisPayload struct {
	DecisionID string `json:"decisionId"`
	Trigger    string `json:"trigger"`
	Timestamp  string `json:"timestamp"`
}

// Sentinel enforces the paused state and presents safety resources to the
// user. Its pause state is the sole source of truth for whether the agent
// may keep producing output.
type Sentinel interface {
	TriggerCrisisPipeline(payload CrisisPayload) error
}

// Machine is the crisis-escalation state machine. Transitions are
// one-directional: once Paused, the only reachable state is Resumed, and
// only through an explicit Override. State survives process restarts via
// the injected store.
type Machine struct {
	mu       sync.Mutex
	st       store.Store
	trail    *audit.Trail
	sentinel Sentinel
	state    State
}

// NewMachine creates a Machine, recovering persisted state. Missing or
// unrecognized persisted state starts at Normal.
func NewMachine(st store.Store, trail *audit.Trail, sentinel Sentinel) *Machine {
	m := &Machine{st: st, trail: trail, sentinel: sentinel, state: StateNormal}

	raw, ok, err := st.Get(StateKey)
	if err != nil || !ok {
		return m
	}
	switch State(raw) {
	case StateNormal, StateFlagged, StatePaused, StateResumed:
		m.state = State(raw)
	}
	return m
}

// State returns the current escalation state. The UI layer observes this;
// only Escalate and Override mutate it.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Escalate flags the given decision, records the transition in the audit
// trail, and hands off to the Sentinel before returning. The machine ends
// in Paused even when the Sentinel call fails (fail-closed); the failure
// is still reported to the caller. Escalating an already paused machine is
// a no-op.
func (m *Machine) Escalate(decisionID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Paused is terminal until an explicit override. A second crisis flag
	// while paused must not re-enter the pipeline or fire the Sentinel again.
	if m.state == StatePaused {
		return nil
	}

	if m.sentinel == nil {
		return ErrNoSentinel
	}

	// Flagged is transient and deliberately not persisted: a crash between
	// here and the pause must recover paused, never un-paused.
	m.state = StateFlagged

	// A persistence fault on the audit entry never blocks the escalation.
	_, _ = m.trail.Append("crisis_escalation", map[string]any{
		"trigger":    reason,
		"decisionId": decisionID,
	})

	// Persist the pause before the handoff so it outlives this process even
	// when the Sentinel call dies with it.
	m.setStateLocked(StatePaused)

	err := m.sentinel.TriggerCrisisPipeline(CrisisPayload{
		DecisionID: decisionID,
		Trigger:    reason,
		Timestamp:  time.Now().UTC().Format(audit.TimestampFormat),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPipeline, err)
	}
	return nil
}

// Override performs the single Paused -> Resumed transition. It is the
// only way out of Paused: no timeout, no automatic resume. There is no
// Resumed -> Normal transition; the system stays un-paused until the next
// flag.
func (m *Machine) Override() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePaused {
		return ErrNotPaused
	}
	m.setStateLocked(StateResumed)
	return nil
}

// setStateLocked updates and persists the state. Persist faults leave the
// in-memory state authoritative for this process.
func (m *Machine) setStateLocked(s State) {
	m.state = s
	_ = m.st.Put(StateKey, string(s))
}
