package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brahmalabs/brahma/internal/policy"
)

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyInitCmd)
	policyCmd.AddCommand(policyWatchCmd)
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Governance policy operations",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active governance policies",
	RunE:  runPolicyShow,
}

var policyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default policy.yaml with comments",
	Long:  "Creates ~/.brahma/policy.yaml with the default governance policies and sentinel config.\nEdit this file to customize governance behavior.",
	RunE:  runPolicyInit,
}

var policyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the config file and hot-reload on change",
	Long:  "Blocks watching the governance config and reloads it when it changes.\nUseful while tuning policies alongside a running session.",
	RunE:  runPolicyWatch,
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Config hash: %s\n", a.cfgHash)
	out, _ := json.MarshalIndent(a.engine.Policies(), "", "  ")
	fmt.Println(string(out))
	return nil
}

func runPolicyInit(cmd *cobra.Command, args []string) error {
	dir := dataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	path := filepath.Join(dir, "policy.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("policy.yaml already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(policy.DefaultConfigYAML()), 0644); err != nil {
		return fmt.Errorf("failed to write policy.yaml: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}

func runPolicyWatch(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = filepath.Join(dataDir(), "policy.yaml")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	reloader, err := policy.NewReloader(a.engine, path)
	if err != nil {
		return err
	}

	fmt.Printf("Watching %s\n", path)
	return reloader.Run(cmd.Context())
}
