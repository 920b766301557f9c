// Package config loads, validates, and resolves the specsync configuration.
// A file named specsync.yaml, specsync.yml, or specsync.toml is discovered
// by walking upward from the working directory; its values are layered with
// built-in defaults, SPECSYNC_* environment variables, and CLI flags, with
// every resolved key tracking which layer supplied it.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure. Tags cover the YAML and
// TOML decoders plus the JSON the config command emits; the key spelling
// follows the front-matter convention (snake_case).
type Config struct {
	// Platform selects the tracker adapter: github, jira, or asana.
	Platform string `yaml:"platform" toml:"platform" json:"platform"`

	// AutoSync enables the implicit tree-wide sync. Nil means unset
	// (defaults to on); use AutoSyncEnabled.
	AutoSync *bool `yaml:"auto_sync" toml:"auto_sync" json:"auto_sync,omitempty"`

	// ConflictStrategy is the default conflict resolution mode:
	// manual, theirs, ours, or interactive.
	ConflictStrategy string `yaml:"conflict_strategy" toml:"conflict_strategy" json:"conflict_strategy"`

	// SpecsRoot is the directory scanned for spec documents.
	SpecsRoot string `yaml:"specs_root" toml:"specs_root" json:"specs_root"`

	// Concurrency bounds parallel batch operations. Zero means unset.
	Concurrency int `yaml:"concurrency" toml:"concurrency" json:"concurrency"`

	// Ignore lists doublestar globs for directories the scanner skips,
	// matched against names under SpecsRoot.
	Ignore []string `yaml:"ignore" toml:"ignore" json:"ignore,omitempty"`

	// GitHub configures the reference adapter.
	GitHub *GitHubConfig `yaml:"github" toml:"github" json:"github,omitempty"`
}

// AutoSyncEnabled reports the effective auto_sync setting; absent means on.
func (c *Config) AutoSyncEnabled() bool {
	return c.AutoSync == nil || *c.AutoSync
}

// GitHubConfig maps the github block: repository coordinates, credential
// mode, and push decoration defaults.
type GitHubConfig struct {
	// Owner and Repo pin the repository. When empty the adapter
	// auto-detects the coordinate from the CLI or the git remote.
	Owner string `yaml:"owner" toml:"owner" json:"owner"`
	Repo  string `yaml:"repo" toml:"repo" json:"repo"`

	// Auth selects the credential mode: cli, token, or app.
	Auth string `yaml:"auth" toml:"auth" json:"auth"`

	// Token backs auth mode "token". ${VAR} references are expanded
	// against the environment during resolve.
	Token string `yaml:"token" toml:"token" json:"token,omitempty"`

	// Labels maps a file kind (spec, plan, research, task, quickstart,
	// datamodel, contracts) or "common" to the labels applied on push.
	// Each value may be a single string or a list.
	Labels map[string]StringList `yaml:"labels" toml:"labels" json:"labels,omitempty"`

	// Assignees and Milestone are defaults applied when creating issues.
	Assignees []string `yaml:"assignees" toml:"assignees" json:"assignees,omitempty"`
	Milestone int      `yaml:"milestone" toml:"milestone" json:"milestone,omitempty"`
}

// LabelMap converts the label configuration to the plain-slice shape the
// adapter consumes. Returns nil when no labels are configured.
func (g *GitHubConfig) LabelMap() map[string][]string {
	if g == nil || len(g.Labels) == 0 {
		return nil
	}
	out := make(map[string][]string, len(g.Labels))
	for kind, labels := range g.Labels {
		out[kind] = append([]string(nil), labels...)
	}
	return out
}

// StringList accepts either a single string or a list of strings in the
// configuration file and always presents itself as a list.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("line %d: must be a string or a list of strings", value.Line)
	}
}

// UnmarshalTOML implements toml.Unmarshaler for the same string-or-list
// flexibility in TOML files.
func (s *StringList) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*s = StringList{val}
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("must contain only strings, got %T", item)
			}
			out = append(out, str)
		}
		*s = StringList(out)
		return nil
	default:
		return fmt.Errorf("must be a string or a list of strings, got %T", v)
	}
}
