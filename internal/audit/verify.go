package audit

import "fmt"

// VerifyResult holds the outcome of an integrity tag verification.
type VerifyResult struct {
	Valid      bool   `json:"valid"`
	Entries    int    `json:"entries"`
	Error      string `json:"error,omitempty"`
	ErrorIndex int    `json:"error_index,omitempty"`
}

// VerifyTags recomputes every entry's integrity tag from its content and
// insertion timestamp and reports the first mismatch. Tags authenticate
// individual entries only; deletion or reordering of whole entries is not
// detectable because entries are not chained.
func VerifyTags(entries []Entry) VerifyResult {
	for i, e := range entries {
		if e.Action == "" {
			return VerifyResult{
				Error:      "entry has empty action",
				ErrorIndex: i,
			}
		}
		want, err := ContentTag(e.Action, e.Payload, e.Timestamp)
		if err != nil {
			return VerifyResult{
				Error:      fmt.Sprintf("recompute tag: %v", err),
				ErrorIndex: i,
			}
		}
		if e.IntegrityTag != want {
			return VerifyResult{
				Error:      fmt.Sprintf("tag mismatch: expected %s, got %s", want, e.IntegrityTag),
				ErrorIndex: i,
			}
		}
	}
	return VerifyResult{Valid: true, Entries: len(entries)}
}
