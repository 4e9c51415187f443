package analytics

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Session identifies one period of user activity. It is minted once per
// device tab and passed explicitly to logging calls; nothing reads the
// session id ambiently from the store after bootstrap.
type Session struct {
	ID        string `json:"sessionId"`
	StartTime string `json:"startTime"`
}

// mintSessionID generates "session-<unix-millis>-<hex suffix>".
func mintSessionID(now time.Time) string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session-%d-%x", now.UnixMilli(), now.UnixNano()&0xffffff)
	}
	return fmt.Sprintf("session-%d-%s", now.UnixMilli(), hex.EncodeToString(b))
}
