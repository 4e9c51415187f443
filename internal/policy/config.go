package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/brahmalabs/brahma/internal/escalation"
)

// Policy is one governance policy from the configured list. Policies are
// read-only at runtime and informational: the keyword decision in
// ReviewFlaggedDecision does not consult them.
type Policy struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// Config holds all configurable governance parameters.
type Config struct {
	UserID   string                   `yaml:"user_id"`
	Policies []Policy                 `yaml:"policies"`
	Sentinel escalation.WebhookConfig `yaml:"sentinel"`
}

// DefaultConfig returns the built-in governance config.
func DefaultConfig() *Config {
	return &Config{
		UserID: "local",
		Policies: []Policy{
			{
				ID:          "crisis-response",
				Name:        "Crisis Response",
				Version:     "1.0",
				Description: "Pause the agent and surface emergency resources when a flagged decision mentions harm or crisis.",
			},
			{
				ID:          "advice-retention",
				Name:        "Advice Retention",
				Version:     "1.0",
				Description: "Users may delete any advice the agent has given; deletions are recorded in the audit trail.",
			},
			{
				ID:          "session-privacy",
				Name:        "Session Privacy",
				Version:     "1.0",
				Description: "Analytics stay on the local device; no event leaves the machine without an explicit export.",
			},
		},
	}
}

// LoadConfig loads governance configuration from a YAML file.
// Empty path falls back to ~/.brahma/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads governance configuration and returns its SHA-256
// hash, computed over the raw YAML bytes on disk. When no file exists
// (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), emptyHash(), nil
		}
		path = filepath.Join(home, ".brahma", "policy.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("policy: read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("policy: parse config: %w", err)
	}

	return cfg, hash, nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented YAML string for policy init.
func DefaultConfigYAML() string {
	return `# brahma governance configuration
# Generated by: brahma policy init
#
# Flagged decisions whose reason mentions "harm" or "crisis" always trigger
# the escalation pipeline. The policies listed here describe the governance
# surface to the user; they do not change the keyword decision.

# Identity recorded on flag_decision audit entries.
user_id: local

policies:
  - id: crisis-response
    name: Crisis Response
    version: "1.0"
    description: "Pause the agent and surface emergency resources when a flagged decision mentions harm or crisis."
  - id: advice-retention
    name: Advice Retention
    version: "1.0"
    description: "Users may delete any advice the agent has given; deletions are recorded in the audit trail."
  - id: session-privacy
    name: Session Privacy
    version: "1.0"
    description: "Analytics stay on the local device; no event leaves the machine without an explicit export."

# Crisis webhook. When url is set, escalations POST the crisis payload to it
# instead of printing the pause notice to the terminal.
sentinel:
  url: ""
  timeout_seconds: 5
  headers: {}
`
}
