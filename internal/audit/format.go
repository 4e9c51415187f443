package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders audit entries as a human-readable text timeline.
func FormatTimeline(entries []Entry) string {
	if len(entries) == 0 {
		return "Audit trail is empty.\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Audit trail | %s–%s UTC\n",
		formatTimeOnly(entries[0].Timestamp),
		formatTimeOnly(entries[len(entries)-1].Timestamp)))
	b.WriteString(separator + "\n")

	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%-13s %-18s %s\n",
			formatTimeOnly(e.Timestamp),
			e.Action,
			summarizePayload(e.Payload)))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatCounts(entries))
	return b.String()
}

// formatCounts renders per-action totals, most frequent first.
func formatCounts(entries []Entry) string {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Action]++
	}

	actions := make([]string, 0, len(counts))
	for a := range counts {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool {
		if counts[actions[i]] != counts[actions[j]] {
			return counts[actions[i]] > counts[actions[j]]
		}
		return actions[i] < actions[j]
	})

	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, fmt.Sprintf("%s=%d", a, counts[a]))
	}
	return fmt.Sprintf("%d entries | %s\n", len(entries), strings.Join(parts, " "))
}

// summarizePayload renders a payload as compact key=value pairs in sorted
// key order, truncated for timeline display.
func summarizePayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(payload[k])
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, truncate(string(v), 40)))
	}
	return strings.Join(parts, " ")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05.000")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
