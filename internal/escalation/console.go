package escalation

import (
	"fmt"
	"io"
)

// Console is the local Sentinel: it renders the pause notice and emergency
// resources directly to the attached terminal. Used when no webhook
// endpoint is configured.
type Console struct {
	Out io.Writer
}

// TriggerCrisisPipeline prints the pause notice and safety resources.
func (c *Console) TriggerCrisisPipeline(payload CrisisPayload) error {
	if c.Out == nil {
		return fmt.Errorf("escalation: console sentinel has no output")
	}

	fmt.Fprintln(c.Out, "── SAGE PAUSED ──────────────────────────────────────")
	fmt.Fprintf(c.Out, "A safety review paused the conversation (decision %s).\n", payload.DecisionID)
	fmt.Fprintf(c.Out, "Trigger: %s\n", payload.Trigger)
	fmt.Fprintln(c.Out, "")
	fmt.Fprintln(c.Out, "If you are in immediate danger, contact local emergency services.")
	fmt.Fprintln(c.Out, "Crisis support: call or text 988 (US) | findahelpline.com")
	fmt.Fprintln(c.Out, "")
	fmt.Fprintln(c.Out, "Run 'brahma override' to resume when you are ready.")
	fmt.Fprintln(c.Out, "─────────────────────────────────────────────────────")
	return nil
}
