package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/brahmalabs/brahma/internal/store"
)

// Config holds aggregator parameters. Zero values get defaults.
type Config struct {
	URL       string           // origin recorded on events
	UserAgent string           // client identifier, truncated to 100 chars
	Clock     func() time.Time // time source, defaults to time.Now
}

// Aggregator ingests events into the bounded buffer and keeps per-session
// statistics current. Every method degrades to best effort on store faults:
// the returned error reports the fault for callers that want it, but the
// operation itself never aborts partway on principle.
type Aggregator struct {
	mu  sync.Mutex
	st  store.Store
	now func() time.Time
	url string
	ua  string
}

// New creates an Aggregator over the given store.
func New(st store.Store, cfg Config) *Aggregator {
	if cfg.URL == "" {
		cfg.URL = "app://brahma"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "brahma-cli"
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Aggregator{
		st:  st,
		now: cfg.Clock,
		url: cfg.URL,
		ua:  truncateString(cfg.UserAgent, maxUserAgentLen),
	}
}

// StartSession is idempotent: it returns the persisted session identity if
// one exists, otherwise mints one and records its start time. It also
// ensures the event buffer exists. A non-nil error reports a persistence
// fault; the returned Session is valid either way.
func (a *Aggregator) StartSession() (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var faults []error

	id, ok, err := a.st.Get(SessionIDKey)
	if err != nil {
		faults = append(faults, err)
	}
	if ok && id != "" {
		start, _, err := a.st.Get(SessionStartKey)
		if err != nil {
			faults = append(faults, err)
		}
		faults = append(faults, a.ensureEventsLocked())
		return Session{ID: id, StartTime: start}, wrapFaults("start session", faults)
	}

	now := a.now().UTC()
	sess := Session{
		ID:        mintSessionID(now),
		StartTime: now.Format(timestampFormat),
	}
	if err := a.st.Put(SessionIDKey, sess.ID); err != nil {
		faults = append(faults, err)
	}
	if err := a.st.Put(SessionStartKey, sess.StartTime); err != nil {
		faults = append(faults, err)
	}
	faults = append(faults, a.ensureEventsLocked())
	return sess, wrapFaults("start session", faults)
}

// LogEvent fills in the event envelope from the given session and appends
// it to the bounded buffer, then rolls the event into the matching session
// record. A nil session attributes the event to the anonymous sentinel.
// Store faults are reported but never abort the pipeline.
func (a *Aggregator) LogEvent(sess *Session, e Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e.Timestamp = a.now().UTC().Format(timestampFormat)
	e.SessionID = AnonymousSession
	if sess != nil {
		e.SessionID = sess.ID
	}
	e.URL = a.url
	e.UserAgent = a.ua

	var faults []error

	events, err := a.loadEventsLocked()
	if err != nil {
		faults = append(faults, err)
	}
	events = append(events, e)
	if len(events) > MaxEvents {
		events = events[len(events)-MaxEvents:]
	}
	if err := a.putJSONLocked(EventsKey, events); err != nil {
		faults = append(faults, err)
	}

	if err := a.updateStatsLocked(sess, e); err != nil {
		faults = append(faults, err)
	}

	return wrapFaults("log event", faults)
}

// SessionStats returns the record for the given session, or nil when no
// events have been recorded for it.
func (a *Aggregator) SessionStats(sess *Session) (*SessionRecord, error) {
	if sess == nil {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stats, err := a.loadStatsLocked()
	if err != nil {
		return nil, fmt.Errorf("analytics: session stats: %w", err)
	}
	rec, ok := stats[sess.ID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Events returns the buffered events in ingestion order.
func (a *Aggregator) Events() ([]Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	events, err := a.loadEventsLocked()
	if err != nil {
		return events, fmt.Errorf("analytics: load events: %w", err)
	}
	return events, nil
}

// Clear removes the event buffer, all session statistics, and the active
// session identity.
func (a *Aggregator) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var faults []error
	for _, key := range []string{EventsKey, SessionStatsKey, SessionIDKey, SessionStartKey} {
		if err := a.st.Delete(key); err != nil {
			faults = append(faults, err)
		}
	}
	return wrapFaults("clear", faults)
}

// updateStatsLocked rolls one event into the session-stats map.
func (a *Aggregator) updateStatsLocked(sess *Session, e Event) error {
	stats, err := a.loadStatsLocked()
	if err != nil {
		return err
	}

	rec, ok := stats[e.SessionID]
	if !ok {
		rec = SessionRecord{
			SessionID:   e.SessionID,
			StartTime:   e.Timestamp,
			ModuleUsage: make(map[string]int),
		}
		if sess != nil {
			rec.StartTime = sess.StartTime
		}
	}
	if rec.ModuleUsage == nil {
		rec.ModuleUsage = make(map[string]int)
	}

	rec.EventCount++
	rec.LastActivity = e.Timestamp
	rec.Pages = addPage(rec.Pages, e.URL)
	if key, ok := normalizeModule(e.Module); ok {
		rec.ModuleUsage[key]++
	}
	if tag, ok := emotionalTag(e.Value); ok {
		rec.EmotionalTags = append(rec.EmotionalTags, tag)
	}

	stats[e.SessionID] = rec
	return a.putJSONLocked(SessionStatsKey, stats)
}

func (a *Aggregator) ensureEventsLocked() error {
	_, ok, err := a.st.Get(EventsKey)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return a.st.Put(EventsKey, "[]")
}

// loadEventsLocked reads the event buffer, treating absent or malformed
// data as empty.
func (a *Aggregator) loadEventsLocked() ([]Event, error) {
	raw, ok, err := a.st.Get(EventsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("corrupt event buffer, treating as empty: %w", err)
	}
	return events, nil
}

// loadStatsLocked reads the session-stats map, treating absent or
// malformed data as empty.
func (a *Aggregator) loadStatsLocked() (map[string]SessionRecord, error) {
	stats := make(map[string]SessionRecord)
	raw, ok, err := a.st.Get(SessionStatsKey)
	if err != nil {
		return stats, err
	}
	if !ok {
		return stats, nil
	}
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return make(map[string]SessionRecord), fmt.Errorf("corrupt session stats, treating as empty: %w", err)
	}
	return stats, nil
}

func (a *Aggregator) putJSONLocked(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.st.Put(key, string(data))
}

// addPage appends url to the insertion-ordered page set if absent.
func addPage(pages []string, url string) []string {
	for _, p := range pages {
		if p == url {
			return pages
		}
	}
	return append(pages, url)
}

// truncateString cuts s to at most n bytes without splitting a rune.
func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// wrapFaults joins collected store faults under an operation label.
// Nil entries are dropped; all-nil yields nil.
func wrapFaults(op string, faults []error) error {
	if err := errors.Join(faults...); err != nil {
		return fmt.Errorf("analytics: %s: %w", op, err)
	}
	return nil
}
