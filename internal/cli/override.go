package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brahmalabs/brahma/internal/escalation"
)

func init() {
	rootCmd.AddCommand(overrideCmd)
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Resume the paused agent",
	Long:  "Performs the explicit user override that moves the agent from Paused to Resumed. This is the only way out of the paused state.",
	RunE:  runOverride,
}

func runOverride(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.machine.Override(); err != nil {
		if errors.Is(err, escalation.ErrNotPaused) {
			return fmt.Errorf("agent is %s, nothing to override", a.machine.State())
		}
		return err
	}
	fmt.Println("Agent resumed")
	return nil
}
