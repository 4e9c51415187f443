package analytics

import "fmt"

// Summary aggregates the export payload.
type Summary struct {
	TotalEvents   int    `json:"totalEvents"`
	TotalSessions int    `json:"totalSessions"`
	FirstEvent    string `json:"firstEvent,omitempty"`
	LastEvent     string `json:"lastEvent,omitempty"`
}

// ExportPayload bundles all analytics state for offline download.
type ExportPayload struct {
	ExportTimestamp string                   `json:"exportTimestamp"`
	CurrentSession  *Session                 `json:"currentSession"`
	SessionStats    map[string]SessionRecord `json:"sessionStats"`
	Events          []Event                  `json:"events"`
	Summary         Summary                  `json:"summary"`
}

// Export bundles all events, all session statistics, and a summary.
// Writing the payload to disk is the caller's side of the contract.
func (a *Aggregator) Export(sess *Session) (ExportPayload, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var faults []error

	events, err := a.loadEventsLocked()
	if err != nil {
		faults = append(faults, err)
	}
	stats, err := a.loadStatsLocked()
	if err != nil {
		faults = append(faults, err)
	}

	payload := ExportPayload{
		ExportTimestamp: a.now().UTC().Format(timestampFormat),
		CurrentSession:  sess,
		SessionStats:    stats,
		Events:          events,
		Summary: Summary{
			TotalEvents:   len(events),
			TotalSessions: len(stats),
		},
	}
	if len(events) > 0 {
		payload.Summary.FirstEvent = events[0].Timestamp
		payload.Summary.LastEvent = events[len(events)-1].Timestamp
	}

	if err := wrapFaults("export", faults); err != nil {
		return payload, err
	}
	return payload, nil
}

// Usage reports how much of the durable store analytics and its neighbors
// occupy.
type Usage struct {
	Bytes     int    `json:"bytes"`
	Formatted string `json:"formatted"`
	ItemCount int    `json:"itemCount"`
}

// MemoryUsage sums the byte length of every key and value in the store.
func (a *Aggregator) MemoryUsage() (Usage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys, err := a.st.Keys()
	if err != nil {
		return Usage{Formatted: FormatBytes(0)}, fmt.Errorf("analytics: memory usage: %w", err)
	}

	var faults []error
	total := 0
	for _, k := range keys {
		v, _, err := a.st.Get(k)
		if err != nil {
			faults = append(faults, err)
			continue
		}
		total += len(k) + len(v)
	}

	usage := Usage{
		Bytes:     total,
		Formatted: FormatBytes(total),
		ItemCount: len(keys),
	}
	return usage, wrapFaults("memory usage", faults)
}
