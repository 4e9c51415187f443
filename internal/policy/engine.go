// Package policy reviews flagged decisions against the governance rules and
// hands crisis cases to the escalation machine.
package policy

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brahmalabs/brahma/internal/audit"
	"github.com/brahmalabs/brahma/internal/escalation"
	"github.com/brahmalabs/brahma/internal/store"
)

// MemoryKey is the store key holding the agent's persisted memory, including
// the advice map consumed by DeleteAdvice.
const MemoryKey = "brahma-memory"

// crisisKeywords drive escalation. Matching is a case-insensitive substring
// check against the flag reason; the configured policy list is not consulted.
var crisisKeywords = []string{"harm", "crisis"}

// FlagPayload identifies a decision flagged for governance review.
type FlagPayload struct {
	DecisionID string `json:"decisionId"`
	Reason     string `json:"reason"`
}

// Message is one entry of the externally owned conversation list.
type Message struct {
	Role     string `json:"role"`
	AdviceID string `json:"adviceId,omitempty"`
	Content  string `json:"content"`
}

// Engine is the governance policy engine. It records every review in the
// audit trail and escalates crisis-flagged decisions.
type Engine struct {
	mu      sync.Mutex
	cfg     *Config
	trail   *audit.Trail
	machine *escalation.Machine
	st      store.Store
}

// NewEngine creates an Engine over the given collaborators.
func NewEngine(cfg *Config, trail *audit.Trail, machine *escalation.Machine, st store.Store) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, trail: trail, machine: machine, st: st}
}

// Policies returns the statically configured policy list unchanged.
func (e *Engine) Policies() []Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Policy, len(e.cfg.Policies))
	copy(out, e.cfg.Policies)
	return out
}

// PolicyByID returns the first policy whose ID matches.
func (e *Engine) PolicyByID(id string) (Policy, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.cfg.Policies {
		if p.ID == id {
			return p, true
		}
	}
	return Policy{}, false
}

// Reload swaps the active configuration. Used by the file watcher.
func (e *Engine) Reload(cfg *Config) {
	if cfg == nil {
		return
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

// ReviewFlaggedDecision records the flag in the audit trail, then escalates
// when the reason mentions a crisis keyword. The audit entry is written
// unconditionally, before the keyword check; an audit persistence fault does
// not stop the review. The escalation call completes before this returns.
func (e *Engine) ReviewFlaggedDecision(flag FlagPayload) error {
	e.mu.Lock()
	userID := e.cfg.UserID
	e.mu.Unlock()

	_, auditErr := e.trail.Append("flag_decision", map[string]any{
		"decisionId": flag.DecisionID,
		"reason":     flag.Reason,
		"userId":     userID,
	})

	reason := strings.ToLower(flag.Reason)
	for _, kw := range crisisKeywords {
		if strings.Contains(reason, kw) {
			if err := e.machine.Escalate(flag.DecisionID, flag.Reason); err != nil {
				return fmt.Errorf("policy: review %s: %w", flag.DecisionID, err)
			}
			break
		}
	}

	if auditErr != nil {
		return fmt.Errorf("policy: review %s: %w", flag.DecisionID, auditErr)
	}
	return nil
}

// DeleteAdvice removes the agent's advice from the conversation and from
// persisted memory, recording the deletion in the audit trail. The engine
// does not own the conversation list; it hands the filtered copy to the
// supplied replace callback. A persisted-memory fault does not roll back the
// replacement or the audit entry.
func (e *Engine) DeleteAdvice(adviceID string, conversation []Message, replace func([]Message)) (audit.Entry, error) {
	entry, auditErr := e.trail.Append("delete_advice", map[string]any{
		"adviceId":      adviceID,
		"timestamp":     time.Now().UTC().Format(audit.TimestampFormat),
		"userConfirmed": true,
	})

	kept := make([]Message, 0, len(conversation))
	for _, msg := range conversation {
		if msg.Role == "sage" && msg.AdviceID == adviceID {
			continue
		}
		kept = append(kept, msg)
	}
	if replace != nil {
		replace(kept)
	}

	memErr := e.deleteAdviceMemory(adviceID)

	switch {
	case auditErr != nil:
		return entry, fmt.Errorf("policy: delete advice %s: %w", adviceID, auditErr)
	case memErr != nil:
		return entry, fmt.Errorf("policy: delete advice %s: %w", adviceID, memErr)
	}
	return entry, nil
}

// deleteAdviceMemory removes the advice entry from the persisted memory
// blob. Absence of the blob, the advice map, or the entry is not an error.
func (e *Engine) deleteAdviceMemory(adviceID string) error {
	raw, ok, err := e.st.Get(MemoryKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var memory map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &memory); err != nil {
		return fmt.Errorf("corrupt memory blob: %w", err)
	}

	adviceRaw, ok := memory["advice"]
	if !ok {
		return nil
	}
	var advice map[string]json.RawMessage
	if err := json.Unmarshal(adviceRaw, &advice); err != nil {
		return fmt.Errorf("corrupt advice map: %w", err)
	}
	if _, ok := advice[adviceID]; !ok {
		return nil
	}
	delete(advice, adviceID)

	updated, err := json.Marshal(advice)
	if err != nil {
		return err
	}
	memory["advice"] = updated
	blob, err := json.Marshal(memory)
	if err != nil {
		return err
	}
	return e.st.Put(MemoryKey, string(blob))
}
