package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsStatsCmd)
	analyticsCmd.AddCommand(analyticsEventsCmd)
	analyticsCmd.AddCommand(analyticsExportCmd)
	analyticsCmd.AddCommand(analyticsClearCmd)
	analyticsCmd.AddCommand(analyticsMemoryCmd)
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Session analytics operations",
	Long:  "Commands for inspecting and exporting the locally aggregated usage analytics.",
}

var analyticsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stats for the active session",
	RunE:  runAnalyticsStats,
}

var analyticsEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Dump the buffered event sequence",
	RunE:  runAnalyticsEvents,
}

var analyticsExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export all analytics data as a JSON snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyticsExport,
}

var analyticsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all events, session stats, and the session identity",
	RunE:  runAnalyticsClear,
}

var analyticsMemoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Report storage used by persisted state",
	RunE:  runAnalyticsMemory,
}

func runAnalyticsStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.agg.StartSession()
	warn(err)
	stats, err := a.agg.SessionStats(&sess)
	warn(err)
	if stats == nil {
		fmt.Println("No events recorded for the active session")
		return nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
	return nil
}

func runAnalyticsEvents(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.agg.Events()
	warn(err)
	out, _ := json.MarshalIndent(events, "", "  ")
	fmt.Println(string(out))
	return nil
}

func runAnalyticsExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.agg.StartSession()
	warn(err)
	payload, err := a.agg.Export(&sess)
	warn(err)

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analytics export: %w", err)
	}
	if len(args) == 0 {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(args[0], append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("write analytics export: %w", err)
	}
	fmt.Printf("Exported %d events to %s\n", payload.Summary.TotalEvents, args[0])
	return nil
}

func runAnalyticsClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.agg.Clear(); err != nil {
		return err
	}
	fmt.Println("Analytics data cleared")
	return nil
}

func runAnalyticsMemory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	usage, err := a.agg.MemoryUsage()
	warn(err)
	fmt.Printf("%s across %d stored items (%d bytes)\n", usage.Formatted, usage.ItemCount, usage.Bytes)
	return nil
}
