package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brahmalabs/brahma/internal/escalation"
	"github.com/brahmalabs/brahma/internal/policy"
)

var (
	reviewDecisionID string
	reviewReason     string
)

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().StringVar(&reviewDecisionID, "decision-id", "", "Identifier of the flagged decision (required)")
	reviewCmd.Flags().StringVar(&reviewReason, "reason", "", "Reason the decision was flagged (required)")
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a flagged decision against governance policy",
	Long:  "Records the flag in the audit trail and escalates when the reason mentions harm or crisis. Escalation pauses the agent until an explicit override.",
	RunE:  runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	if reviewDecisionID == "" || reviewReason == "" {
		return fmt.Errorf("--decision-id and --reason are required")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	before := a.machine.State()
	reviewErr := a.engine.ReviewFlaggedDecision(policy.FlagPayload{
		DecisionID: reviewDecisionID,
		Reason:     reviewReason,
	})
	fmt.Println(reviewOutcome(before, a.machine.State()))

	// Escalation failures are user-visible; a store fault on the audit
	// entry is advisory only.
	if errors.Is(reviewErr, escalation.ErrPipeline) || errors.Is(reviewErr, escalation.ErrNoSentinel) {
		return reviewErr
	}
	warn(reviewErr)
	return nil
}

// reviewOutcome describes what this review did, not just the ambient state:
// a benign review while the agent is already paused must not claim it
// escalated anything.
func reviewOutcome(before, after escalation.State) string {
	switch {
	case after == escalation.StatePaused && before != escalation.StatePaused:
		return "Decision escalated: agent is PAUSED"
	case after == escalation.StatePaused:
		return "Decision recorded: agent is already PAUSED"
	default:
		return "Decision recorded: no escalation"
	}
}
