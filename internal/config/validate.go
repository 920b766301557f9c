package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// ValidationSeverity indicates whether a validation issue is an error or warning.
type ValidationSeverity string

const (
	// SeverityError indicates a fatal validation issue; the configuration is unusable.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates an informational validation issue; the configuration works
	// but may have problems.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity `json:"severity"`
	Field    string             `json:"field"` // dotted path, e.g. "github.auth"
	Message  string             `json:"message"`
}

// ValidationResult holds all validation findings.
type ValidationResult struct {
	Issues []ValidationIssue `json:"issues"`
}

// HasErrors returns true if any issue has error severity.
func (vr *ValidationResult) HasErrors() bool {
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if any issue has warning severity.
func (vr *ValidationResult) HasWarnings() bool {
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (vr *ValidationResult) Errors() []ValidationIssue {
	var errs []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (vr *ValidationResult) Warnings() []ValidationIssue {
	var warns []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityWarning {
			warns = append(warns, issue)
		}
	}
	return warns
}

// recognizedPlatforms is the set of valid values for platform.
var recognizedPlatforms = map[string]bool{
	"github": true,
	"jira":   true,
	"asana":  true,
}

// builtinAdapters names the platforms this build ships an adapter for.
var builtinAdapters = map[string]bool{
	"github": true,
}

// validStrategies is the set of valid values for conflict_strategy.
var validStrategies = map[string]bool{
	"":            true,
	"manual":      true,
	"theirs":      true,
	"ours":        true,
	"interactive": true,
}

// validAuthModes is the set of valid values for github.auth.
var validAuthModes = map[string]bool{
	"":      true,
	"cli":   true,
	"token": true,
	"app":   true,
}

// knownLabelKinds are the file kinds a label mapping may key, plus "common".
var knownLabelKinds = map[string]bool{
	"spec":       true,
	"plan":       true,
	"research":   true,
	"task":       true,
	"quickstart": true,
	"datamodel":  true,
	"contracts":  true,
	"common":     true,
}

// Validate checks the configuration for correctness and completeness.
// It performs structural validation, semantic validation, and unknown key
// detection for TOML files.
//
// Parameters:
//   - cfg: the configuration to validate (normally the resolved config)
//   - meta: TOML metadata from LoadFromFile (nil for YAML files or when no
//     file was loaded)
//
// Returns validation results. Check HasErrors() to determine if the config is usable.
func Validate(cfg *Config, meta *toml.MetaData) *ValidationResult {
	vr := &ValidationResult{}

	if cfg == nil {
		addError(vr, "", "configuration is nil")
		return vr
	}

	validateCore(vr, cfg)
	validateGitHub(vr, cfg.GitHub)
	validateUnknownKeys(vr, meta)

	return vr
}

// validateCore checks the top-level fields.
func validateCore(vr *ValidationResult, cfg *Config) {
	// Error: platform must be recognized.
	if cfg.Platform == "" {
		addError(vr, "platform", "must not be empty")
	} else if !recognizedPlatforms[cfg.Platform] {
		addError(vr, "platform",
			fmt.Sprintf("unrecognized platform %q; must be one of: github, jira, asana", cfg.Platform))
	} else if !builtinAdapters[cfg.Platform] {
		// Warning: recognized but not shipped in this build.
		addWarning(vr, "platform",
			fmt.Sprintf("platform %q has no built-in adapter in this build; only github ships one", cfg.Platform))
	}

	// Error: conflict_strategy must be a recognized value.
	if !validStrategies[cfg.ConflictStrategy] {
		addError(vr, "conflict_strategy",
			fmt.Sprintf("unrecognized strategy %q; must be one of: manual, theirs, ours, interactive, or empty", cfg.ConflictStrategy))
	}

	// Error: concurrency must not be negative (zero means default).
	if cfg.Concurrency < 0 {
		addError(vr, "concurrency",
			fmt.Sprintf("must not be negative, got %d", cfg.Concurrency))
	}

	// Error: ignore patterns must be valid doublestar globs.
	for i, pattern := range cfg.Ignore {
		if pattern == "" {
			addError(vr, fmt.Sprintf("ignore[%d]", i), "must not be an empty string")
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			addError(vr, fmt.Sprintf("ignore[%d]", i),
				fmt.Sprintf("invalid glob pattern %q", pattern))
		}
	}

	// Warning: specs_root does not exist.
	if cfg.SpecsRoot != "" {
		if _, err := os.Stat(cfg.SpecsRoot); err != nil {
			addWarning(vr, "specs_root",
				fmt.Sprintf("directory %q does not exist", cfg.SpecsRoot))
		}
	}
}

// validateGitHub checks the github block.
func validateGitHub(vr *ValidationResult, g *GitHubConfig) {
	if g == nil {
		return
	}

	// Error: auth must be a recognized mode.
	if !validAuthModes[g.Auth] {
		addError(vr, "github.auth",
			fmt.Sprintf("unrecognized auth mode %q; must be one of: cli, token, app, or empty", g.Auth))
	}

	// Error: token auth needs a token (after ${VAR} expansion).
	if g.Auth == "token" && g.Token == "" {
		addError(vr, "github.token",
			"auth mode \"token\" requires a token; set github.token or a ${VAR} reference")
	}

	// Warning: app auth has no native support.
	if g.Auth == "app" {
		addWarning(vr, "github.auth",
			"auth mode \"app\" has no native support; the tracker CLI's own credentials are used")
	}

	// Warning: a token configured under a non-token mode is ignored.
	if g.Token != "" && g.Auth != "token" && g.Auth != "" {
		addWarning(vr, "github.token",
			fmt.Sprintf("token is set but auth mode is %q; the token will not be used", g.Auth))
	}

	// Warning: owner and repo only pin the repository together.
	if (g.Owner == "") != (g.Repo == "") {
		addWarning(vr, "github.owner",
			"owner and repo must be set together to pin the repository; the partial value is ignored")
	}

	// Labels: unknown kinds warn, empty label strings are errors.
	for kind, labels := range g.Labels {
		field := "github.labels." + kind
		if !knownLabelKinds[kind] {
			addWarning(vr, field,
				fmt.Sprintf("unknown label kind %q; known kinds: spec, plan, research, task, quickstart, datamodel, contracts, common", kind))
		}
		for i, label := range labels {
			if strings.TrimSpace(label) == "" {
				addError(vr, fmt.Sprintf("%s[%d]", field, i), "label must not be empty")
			}
		}
	}

	// Error: assignee entries must not be empty strings.
	for i, assignee := range g.Assignees {
		if strings.TrimSpace(assignee) == "" {
			addError(vr, fmt.Sprintf("github.assignees[%d]", i), "must not be an empty string")
		}
	}

	// Error: milestone is an issue-tracker number.
	if g.Milestone < 0 {
		addError(vr, "github.milestone",
			fmt.Sprintf("must not be negative, got %d", g.Milestone))
	}
}

// validateUnknownKeys checks for TOML keys that did not map to any config struct field.
func validateUnknownKeys(vr *ValidationResult, meta *toml.MetaData) {
	if meta == nil {
		return
	}

	for _, key := range meta.Undecoded() {
		path := strings.Join(key, ".")
		addWarning(vr, path, "unknown configuration key")
	}
}

// addError appends an error-severity issue to the validation result.
func addError(vr *ValidationResult, field, message string) {
	vr.Issues = append(vr.Issues, ValidationIssue{
		Severity: SeverityError,
		Field:    field,
		Message:  message,
	})
}

// addWarning appends a warning-severity issue to the validation result.
func addWarning(vr *ValidationResult, field, message string) {
	vr.Issues = append(vr.Issues, ValidationIssue{
		Severity: SeverityWarning,
		Field:    field,
		Message:  message,
	})
}
