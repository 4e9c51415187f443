package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one immutable record in the append-only audit trail.
// IntegrityTag authenticates this entry's content in isolation; entries
// are not chained to one another.
type Entry struct {
	Action       string         `json:"action"`
	Payload      map[string]any `json:"payload"`
	Timestamp    string         `json:"timestamp"`
	IntegrityTag string         `json:"integrityTag"`
}

// taggedContent is the serialized form the integrity tag is computed over:
// the entry's content plus its insertion timestamp. Struct fields keep
// json.Marshal field order deterministic; map payloads marshal with sorted
// keys, so the digest is reproducible.
type taggedContent struct {
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload"`
	Timestamp string         `json:"timestamp"`
}

// ContentTag computes the "sha256:<hex>" integrity tag over an entry's
// action, payload, and insertion timestamp.
func ContentTag(action string, payload map[string]any, timestamp string) (string, error) {
	line, err := json.Marshal(taggedContent{
		Action:    action,
		Payload:   payload,
		Timestamp: timestamp,
	})
	if err != nil {
		return "", err
	}
	return HashLine(line), nil
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// clone returns a deep copy of the entry so callers cannot mutate
// trail-internal state through the shared payload map.
func (e Entry) clone() Entry {
	if e.Payload == nil {
		return e
	}
	payload := make(map[string]any, len(e.Payload))
	for k, v := range e.Payload {
		payload[k] = v
	}
	e.Payload = payload
	return e
}
