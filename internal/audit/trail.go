package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brahmalabs/brahma/internal/store"
)

// StoreKey is the store key holding the serialized audit trail.
const StoreKey = "brahma-audit-trail"

// ErrEmptyAction is returned when Append is called without an action.
var ErrEmptyAction = errors.New("audit: entry action must not be empty")

// Trail is the append-only audit log. It owns an in-memory sequence of
// entries mirrored to the injected store on every mutation. Entries are
// never edited or reordered; the only destructive operation is Clear.
type Trail struct {
	mu      sync.Mutex
	st      store.Store
	entries []Entry
	now     func() time.Time
}

// NewTrail creates a Trail over the given store, recovering any previously
// persisted entries. Malformed persisted data is treated as an empty trail;
// the returned error reports the fault without preventing use.
func NewTrail(st store.Store) (*Trail, error) {
	t := &Trail{st: st, now: time.Now}

	raw, ok, err := st.Get(StoreKey)
	if err != nil {
		return t, fmt.Errorf("audit: load trail: %w", err)
	}
	if !ok {
		return t, nil
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return t, fmt.Errorf("audit: corrupt persisted trail, starting empty: %w", err)
	}
	t.entries = entries
	return t, nil
}

// SetClock replaces the trail's time source. Intended for tests.
func (t *Trail) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Append stamps the current time, computes the integrity tag, appends the
// entry in memory, and persists the full trail. The in-memory append always
// succeeds for a valid action: a non-nil error alongside a non-zero Entry
// reports a persistence fault the caller may surface as a warning but must
// not treat as a failed append.
func (t *Trail) Append(action string, payload map[string]any) (Entry, error) {
	if action == "" {
		return Entry{}, ErrEmptyAction
	}
	if payload == nil {
		payload = map[string]any{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := Entry{
		Action:    action,
		Payload:   payload,
		Timestamp: t.now().UTC().Format(TimestampFormat),
	}
	tag, err := ContentTag(entry.Action, entry.Payload, entry.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: compute integrity tag: %w", err)
	}
	entry.IntegrityTag = tag

	t.entries = append(t.entries, entry)

	if err := t.persistLocked(); err != nil {
		return entry.clone(), fmt.Errorf("audit: persist trail: %w", err)
	}
	return entry.clone(), nil
}

// Entries returns a defensive copy of the trail in insertion order.
func (t *Trail) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of entries in the trail.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear atomically empties the trail and removes the persisted copy.
func (t *Trail) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = nil
	if err := t.st.Delete(StoreKey); err != nil {
		return fmt.Errorf("audit: clear persisted trail: %w", err)
	}
	return nil
}

// Snapshot is the exportable form of the full trail.
type Snapshot struct {
	System     string  `json:"system"`
	ExportedAt string  `json:"exportedAt"`
	Entries    []Entry `json:"entries"`
}

// ExportSnapshot serializes the full trail for offline download.
// It does not mutate the trail.
func (t *Trail) ExportSnapshot() Snapshot {
	t.mu.Lock()
	now := t.now().UTC().Format(TimestampFormat)
	t.mu.Unlock()

	return Snapshot{
		System:     "brahma-governance",
		ExportedAt: now,
		Entries:    t.Entries(),
	}
}

func (t *Trail) persistLocked() error {
	data, err := json.Marshal(t.entries)
	if err != nil {
		return err
	}
	return t.st.Put(StoreKey, string(data))
}
