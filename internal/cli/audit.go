package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brahmalabs/brahma/internal/audit"
)

var tailLines int

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditExportCmd)
	auditCmd.AddCommand(auditClearCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail operations",
	Long:  "Commands for inspecting, verifying, and exporting the append-only audit trail.",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent audit trail entries",
	RunE:  runAuditTail,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify integrity tags of the audit trail",
	Long:  "Recomputes every entry's integrity tag and validates it against the stored value.\nExits 0 if valid, 1 if any entry was tampered with.",
	RunE:  runAuditVerify,
}

var auditExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the full audit trail as a JSON snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditExport,
}

var auditClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the audit trail",
	RunE:  runAuditClear,
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	entries := a.trail.Entries()
	start := len(entries) - tailLines
	if start < 0 {
		start = 0
	}
	fmt.Print(audit.FormatTimeline(entries[start:]))
	return nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result := audit.VerifyTags(a.trail.Entries())
	if result.Valid {
		fmt.Printf("OK: %d entries verified\n", result.Entries)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at entry %d: %s\n", result.ErrorIndex, result.Error)
	os.Exit(1)
	return nil
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	snapshot := a.trail.ExportSnapshot()
	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if len(args) == 0 {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(args[0], append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	fmt.Printf("Exported %d entries to %s\n", len(snapshot.Entries), args[0])
	return nil
}

func runAuditClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.trail.Clear(); err != nil {
		return err
	}
	fmt.Println("Audit trail cleared")
	return nil
}
