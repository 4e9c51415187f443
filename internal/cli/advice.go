package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brahmalabs/brahma/internal/policy"
)

var conversationPath string

func init() {
	rootCmd.AddCommand(adviceCmd)
	adviceCmd.AddCommand(adviceDeleteCmd)
	adviceDeleteCmd.Flags().StringVar(&conversationPath, "conversation", "", "JSON file holding the conversation list; rewritten with the advice removed")
}

var adviceCmd = &cobra.Command{
	Use:   "advice",
	Short: "Manage advice the agent has given",
}

var adviceDeleteCmd = &cobra.Command{
	Use:   "delete <advice-id>",
	Short: "Delete one piece of advice from the conversation and persisted memory",
	Long:  "Records the deletion in the audit trail, removes the agent's messages carrying the advice id from the conversation file, and drops the advice from persisted memory.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdviceDelete,
}

func runAdviceDelete(cmd *cobra.Command, args []string) error {
	adviceID := args[0]

	var conversation []policy.Message
	if conversationPath != "" {
		data, err := os.ReadFile(conversationPath)
		if err != nil {
			return fmt.Errorf("read conversation: %w", err)
		}
		if err := json.Unmarshal(data, &conversation); err != nil {
			return fmt.Errorf("parse conversation: %w", err)
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var writeErr error
	replace := func(kept []policy.Message) {
		if conversationPath == "" {
			return
		}
		out, err := json.MarshalIndent(kept, "", "  ")
		if err != nil {
			writeErr = fmt.Errorf("marshal conversation: %w", err)
			return
		}
		writeErr = os.WriteFile(conversationPath, append(out, '\n'), 0644)
	}

	entry, delErr := a.engine.DeleteAdvice(adviceID, conversation, replace)
	warn(delErr)
	if writeErr != nil {
		return writeErr
	}

	fmt.Printf("Deleted advice %s (audit entry %s)\n", adviceID, entry.IntegrityTag)
	return nil
}
