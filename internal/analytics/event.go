// Package analytics ingests user-interaction events and maintains a bounded
// event buffer plus per-session rolled-up statistics, all persisted to the
// injected store.
package analytics

import "strings"

// Store keys owned by this package.
const (
	EventsKey       = "brahmaEvents"
	SessionStatsKey = "brahmaSessionStats"
	SessionIDKey    = "brahmaSessionId"
	SessionStartKey = "brahmaSessionStart"
)

// MaxEvents caps the persisted event buffer. Ingestion beyond the cap
// evicts the oldest events, keeping the most recent MaxEvents.
const MaxEvents = 1000

// maxUserAgentLen truncates the recorded user agent string.
const maxUserAgentLen = 100

const timestampFormat = "2006-01-02T15:04:05.000Z"

// AnonymousSession is the session id recorded when no session is active.
const AnonymousSession = "anonymous"

// Event is one recorded user interaction.
type Event struct {
	Module    string `json:"module,omitempty"`
	Action    string `json:"action"`
	Value     any    `json:"value,omitempty"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	UserAgent string `json:"userAgent"`
}

// SessionRecord is the rolled-up statistics for one session.
// EventCount tracks every event ever attributed to the session, so the
// aggregate survives buffer eviction. Pages is an insertion-ordered set.
type SessionRecord struct {
	SessionID     string         `json:"sessionId"`
	StartTime     string         `json:"startTime"`
	LastActivity  string         `json:"lastActivity"`
	EventCount    int            `json:"eventCount"`
	ModuleUsage   map[string]int `json:"moduleUsage"`
	EmotionalTags []string       `json:"emotionalTags"`
	Pages         []string       `json:"pages"`
}

// knownModules is the fixed set of feature areas tracked in per-session
// usage counts. Modules outside this set are counted nowhere but never
// rejected.
var knownModules = map[string]bool{
	"sage":       true,
	"journal":    true,
	"voice":      true,
	"tts":        true,
	"meditation": true,
	"settings":   true,
}

// normalizeModule lower-cases the module name and strips every non-letter
// rune. Returns the known-module key and true, or "" and false when the
// result is not a known module.
func normalizeModule(module string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToLower(module) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if !knownModules[key] {
		return "", false
	}
	return key, true
}

// emotionalTag extracts the emotionalTag field from an event value,
// tolerating arbitrary value shapes.
func emotionalTag(value any) (string, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	tag, ok := m["emotionalTag"].(string)
	if !ok || tag == "" {
		return "", false
	}
	return tag, true
}
