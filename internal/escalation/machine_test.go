package escalation

import (
	"errors"
	"testing"

	"github.com/brahmalabs/brahma/internal/audit"
	"github.com/brahmalabs/brahma/internal/store"
)

type fakeSentinel struct {
	calls []CrisisPayload
	err   error
}

func (f *fakeSentinel) TriggerCrisisPipeline(payload CrisisPayload) error {
	f.calls = append(f.calls, payload)
	return f.err
}

func newTestMachine(t *testing.T, sentinel Sentinel) (*Machine, *audit.Trail, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	trail, err := audit.NewTrail(st)
	if err != nil {
		t.Fatalf("NewTrail: %v", err)
	}
	return NewMachine(st, trail, sentinel), trail, st
}

func TestMachineStartsNormal(t *testing.T) {
	m, _, _ := newTestMachine(t, &fakeSentinel{})
	if got := m.State(); got != StateNormal {
		t.Fatalf("initial state = %q, want %q", got, StateNormal)
	}
}

func TestEscalateCallsSentinelOnce(t *testing.T) {
	sentinel := &fakeSentinel{}
	m, _, _ := newTestMachine(t, sentinel)

	if err := m.Escalate("d-1", "possible self-harm risk"); err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if len(sentinel.calls) != 1 {
		t.Fatalf("sentinel called %d times, want 1", len(sentinel.calls))
	}
	call := sentinel.calls[0]
	if call.DecisionID != "d-1" {
		t.Errorf("payload decision = %q, want %q", call.DecisionID, "d-1")
	}
	if call.Trigger != "possible self-harm risk" {
		t.Errorf("payload trigger = %q, want %q", call.Trigger, "possible self-harm risk")
	}
	if call.Timestamp == "" {
		t.Error("payload timestamp is empty")
	}
	if got := m.State(); got != StatePaused {
		t.Fatalf("state after escalate = %q, want %q", got, StatePaused)
	}
}

func TestEscalateRecordsAuditEntry(t *testing.T) {
	m, trail, _ := newTestMachine(t, &fakeSentinel{})

	if err := m.Escalate("d-7", "crisis language detected"); err != nil {
		t.Fatalf("Escalate: %v", err)
	}

	entries := trail.Entries()
	if len(entries) != 1 {
		t.Fatalf("trail has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != "crisis_escalation" {
		t.Errorf("action = %q, want crisis_escalation", e.Action)
	}
	if e.Payload["decisionId"] != "d-7" {
		t.Errorf("payload decisionId = %v, want d-7", e.Payload["decisionId"])
	}
	if e.Payload["trigger"] != "crisis language detected" {
		t.Errorf("payload trigger = %v", e.Payload["trigger"])
	}
}

func TestEscalateWithoutSentinel(t *testing.T) {
	m, trail, _ := newTestMachine(t, nil)

	err := m.Escalate("d-1", "anything")
	if !errors.Is(err, ErrNoSentinel) {
		t.Fatalf("err = %v, want ErrNoSentinel", err)
	}
	if got := m.State(); got != StateNormal {
		t.Errorf("state = %q, want %q", got, StateNormal)
	}
	if trail.Len() != 0 {
		t.Errorf("trail has %d entries, want 0", trail.Len())
	}
}

func TestEscalatePausesEvenWhenSentinelFails(t *testing.T) {
	sentinel := &fakeSentinel{err: errors.New("endpoint unreachable")}
	m, _, _ := newTestMachine(t, sentinel)

	err := m.Escalate("d-2", "possible self-harm risk")
	if err == nil {
		t.Fatal("expected error from failing sentinel")
	}
	if !errors.Is(err, ErrPipeline) {
		t.Errorf("err = %v, want ErrPipeline", err)
	}
	if got := m.State(); got != StatePaused {
		t.Fatalf("state = %q, want %q (fail-closed)", got, StatePaused)
	}
}

func TestEscalateWhilePausedIsNoOp(t *testing.T) {
	sentinel := &fakeSentinel{}
	m, trail, _ := newTestMachine(t, sentinel)

	if err := m.Escalate("d-1", "crisis"); err != nil {
		t.Fatalf("first Escalate: %v", err)
	}
	if err := m.Escalate("d-2", "crisis"); err != nil {
		t.Fatalf("Escalate while paused: %v", err)
	}

	if len(sentinel.calls) != 1 {
		t.Fatalf("sentinel called %d times, want 1", len(sentinel.calls))
	}
	if trail.Len() != 1 {
		t.Fatalf("trail has %d entries, want 1", trail.Len())
	}
	if got := m.State(); got != StatePaused {
		t.Fatalf("state = %q, want %q", got, StatePaused)
	}
}

// handoffSentinel records what state is persisted at the moment of the
// Sentinel call.
type handoffSentinel struct {
	st        *store.Memory
	persisted string
}

func (h *handoffSentinel) TriggerCrisisPipeline(CrisisPayload) error {
	h.persisted, _, _ = h.st.Get(StateKey)
	return nil
}

func TestPausePersistedBeforeSentinelHandoff(t *testing.T) {
	st := store.NewMemory()
	trail, err := audit.NewTrail(st)
	if err != nil {
		t.Fatalf("NewTrail: %v", err)
	}
	sentinel := &handoffSentinel{st: st}
	m := NewMachine(st, trail, sentinel)

	if err := m.Escalate("d-1", "harm"); err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if sentinel.persisted != string(StatePaused) {
		t.Fatalf("persisted state at handoff = %q, want %q", sentinel.persisted, StatePaused)
	}
}

func TestOverrideResumesOnlyFromPaused(t *testing.T) {
	m, _, _ := newTestMachine(t, &fakeSentinel{})

	if err := m.Override(); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("Override in Normal: err = %v, want ErrNotPaused", err)
	}

	if err := m.Escalate("d-3", "harm"); err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if err := m.Override(); err != nil {
		t.Fatalf("Override in Paused: %v", err)
	}
	if got := m.State(); got != StateResumed {
		t.Fatalf("state = %q, want %q", got, StateResumed)
	}

	// Resumed is terminal until the next flag.
	if err := m.Override(); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("Override in Resumed: err = %v, want ErrNotPaused", err)
	}
}

func TestOverrideLeavesNoAuditEntry(t *testing.T) {
	m, trail, _ := newTestMachine(t, &fakeSentinel{})

	if err := m.Escalate("d-4", "crisis"); err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	before := trail.Len()
	if err := m.Override(); err != nil {
		t.Fatalf("Override: %v", err)
	}
	if trail.Len() != before {
		t.Errorf("trail grew from %d to %d on override", before, trail.Len())
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	st := store.NewMemory()
	trail, err := audit.NewTrail(st)
	if err != nil {
		t.Fatalf("NewTrail: %v", err)
	}
	m := NewMachine(st, trail, &fakeSentinel{})
	if err := m.Escalate("d-5", "harm"); err != nil {
		t.Fatalf("Escalate: %v", err)
	}

	// New machine over the same store, as a fresh process would build.
	m2 := NewMachine(st, trail, &fakeSentinel{})
	if got := m2.State(); got != StatePaused {
		t.Fatalf("recovered state = %q, want %q", got, StatePaused)
	}
	if err := m2.Override(); err != nil {
		t.Fatalf("Override after recovery: %v", err)
	}
}

func TestNewMachineIgnoresUnknownPersistedState(t *testing.T) {
	st := store.NewMemory()
	if err := st.Put(StateKey, "garbage"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	trail, err := audit.NewTrail(st)
	if err != nil {
		t.Fatalf("NewTrail: %v", err)
	}
	m := NewMachine(st, trail, &fakeSentinel{})
	if got := m.State(); got != StateNormal {
		t.Fatalf("state = %q, want %q", got, StateNormal)
	}
}
