package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/config"
)

// configFlags holds the flag values for the config command.
type configFlags struct {
	Validate bool
	JSON     bool
}

// configOutput is the JSON output type for the config command.
type configOutput struct {
	Path    string                         `json:"path,omitempty"`
	Config  *config.Config                 `json:"config"`
	Sources map[string]config.ConfigSource `json:"sources"`
}

// newConfigCmd creates the "specsync config" command.
func newConfigCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or validate the resolved configuration",
		Long: `Display the fully-resolved configuration with the source of each value
(cli flag, environment variable, config file, or default), or check it
for errors and warnings with --validate.`,
		Example: `  # Show every value and where it came from
  specsync config

  # Check the configuration before a sync
  specsync config --validate

  # Structured output for scripting
  specsync config --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.Validate, "validate", false, "Validate the configuration and report issues")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output as JSON to stdout")

	return cmd
}

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

// runConfig is the config command's RunE function.
func runConfig(cmd *cobra.Command, flags configFlags) error {
	resolved, meta, err := loadAndResolveConfig(cliOverrides(cmd))
	if err != nil {
		return err
	}

	if flags.Validate {
		result := config.Validate(resolved.Config, meta)
		if flags.JSON {
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			printValidationResult(cmd.ErrOrStderr(), result)
		}
		if result.HasErrors() {
			return fmt.Errorf("configuration has %d error(s)", len(result.Errors()))
		}
		return nil
	}

	if flags.JSON {
		return writeJSON(cmd.OutOrStdout(), configOutput{
			Path:    resolved.Path,
			Config:  redactedConfig(resolved.Config),
			Sources: resolved.Sources,
		})
	}

	printResolvedConfig(cmd.ErrOrStderr(), resolved)
	return nil
}

// loadAndResolveConfig loads and resolves the configuration from all sources
// (file, env, CLI flags). It returns the resolved config, the TOML metadata
// (nil for YAML files or when no file was found), and any loading error.
//
// When flagConfig is set, that path is used directly. Otherwise,
// config.FindConfigFile searches upward from the current directory.
func loadAndResolveConfig(overrides *config.CLIOverrides) (*config.ResolvedConfig, *toml.MetaData, error) {
	var (
		fileCfg *config.Config
		meta    *toml.MetaData
		cfgPath string
	)

	if flagConfig != "" {
		// Explicit --config path provided.
		cfgPath = flagConfig
	} else {
		// Auto-detect specsync.yaml/.yml/.toml by walking up from cwd.
		found, err := config.FindConfigFile(".")
		if err != nil {
			return nil, nil, fmt.Errorf("finding config file: %w", err)
		}
		cfgPath = found
	}

	if cfgPath != "" {
		fc, md, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		fileCfg = fc
		meta = md
	}

	resolved := config.Resolve(config.NewDefaults(), fileCfg, os.LookupEnv, overrides)
	resolved.Path = cfgPath

	return resolved, meta, nil
}

// redactedConfig returns a copy with the token masked so structured output
// never leaks the credential it was resolved from.
func redactedConfig(cfg *config.Config) *config.Config {
	if cfg.GitHub == nil || cfg.GitHub.Token == "" {
		return cfg
	}
	out := *cfg
	gh := *cfg.GitHub
	gh.Token = maskToken(gh.Token)
	out.GitHub = &gh
	return &out
}

// maskToken hides all but identifying edges of a credential.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

// ---- Lipgloss styles --------------------------------------------------------

// sourceStyle returns a lipgloss style for a given ConfigSource.
// When --no-color is active, lipgloss automatically strips ANSI because
// the root PersistentPreRunE sets the color profile to Ascii.
func sourceStyle(src config.ConfigSource) lipgloss.Style {
	switch src {
	case config.SourceFile:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // bright blue
	case config.SourceEnv:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // bright yellow
	case config.SourceCLI:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // bright red
	default: // SourceDefault
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // bright green
	}
}

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleSection  = lipgloss.NewStyle().Bold(true)
	styleErrorLbl = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red
	styleWarnLbl  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true) // yellow
	styleSuccess  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // green
)

// ---- printResolvedConfig ----------------------------------------------------

const fieldWidth = 20 // column width for field names

// printResolvedConfig writes the formatted resolved configuration to out.
func printResolvedConfig(out io.Writer, rc *config.ResolvedConfig) {
	header := styleHeader.Render("Resolved Configuration")
	fmt.Fprintln(out, header)
	fmt.Fprintln(out, strings.Repeat("=", len("Resolved Configuration")))
	fmt.Fprintln(out)

	if rc.Path != "" {
		fmt.Fprintf(out, "Config file: %s\n", rc.Path)
	} else {
		fmt.Fprintln(out, "Config file: none found")
	}
	fmt.Fprintln(out)

	cfg := rc.Config
	printField(out, "platform", fmtStr(cfg.Platform), rc.Sources["platform"])
	printField(out, "auto_sync", strconv.FormatBool(cfg.AutoSyncEnabled()), rc.Sources["auto_sync"])
	printField(out, "conflict_strategy", fmtStr(cfg.ConflictStrategy), rc.Sources["conflict_strategy"])
	printField(out, "specs_root", fmtStr(cfg.SpecsRoot), rc.Sources["specs_root"])
	printField(out, "concurrency", strconv.Itoa(cfg.Concurrency), rc.Sources["concurrency"])
	printField(out, "ignore", fmtSlice(cfg.Ignore), rc.Sources["ignore"])
	fmt.Fprintln(out)

	gh := cfg.GitHub
	if gh == nil {
		return
	}
	fmt.Fprintln(out, styleSection.Render("[github]"))
	printField(out, "owner", fmtStr(gh.Owner), rc.Sources["github.owner"])
	printField(out, "repo", fmtStr(gh.Repo), rc.Sources["github.repo"])
	printField(out, "auth", fmtStr(gh.Auth), rc.Sources["github.auth"])
	printField(out, "token", fmtStr(maskToken(gh.Token)), rc.Sources["github.token"])
	printField(out, "assignees", fmtSlice(gh.Assignees), rc.Sources["github.assignees"])
	printField(out, "milestone", strconv.Itoa(gh.Milestone), rc.Sources["github.milestone"])

	// Labels sorted by kind for determinism.
	if len(gh.Labels) > 0 {
		kinds := make([]string, 0, len(gh.Labels))
		for kind := range gh.Labels {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			printField(out, "labels."+kind, fmtSlice(gh.Labels[kind]), rc.Sources["github.labels."+kind])
		}
	}
	fmt.Fprintln(out)
}

// printField writes a single key = value (source: ...) line.
func printField(out io.Writer, name, value string, src config.ConfigSource) {
	padded := fmt.Sprintf("  %-*s", fieldWidth, name)
	srcLabel := sourceStyle(src).Render(fmt.Sprintf("(source: %s)", src))
	fmt.Fprintf(out, "%s = %-40s %s\n", padded, value, srcLabel)
}

// fmtStr formats a string value for display (quoted).
func fmtStr(s string) string {
	return fmt.Sprintf("%q", s)
}

// fmtSlice formats a string slice for display.
func fmtSlice(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ---- printValidationResult --------------------------------------------------

// printValidationResult writes the formatted validation report to out.
func printValidationResult(out io.Writer, result *config.ValidationResult) {
	header := styleHeader.Render("Configuration Validation")
	fmt.Fprintln(out, header)
	fmt.Fprintln(out, strings.Repeat("=", len("Configuration Validation")))
	fmt.Fprintln(out)

	errs := result.Errors()
	warns := result.Warnings()

	if len(errs) == 0 && len(warns) == 0 {
		fmt.Fprintln(out, styleSuccess.Render("No issues found."))
		return
	}

	if len(errs) > 0 {
		fmt.Fprintln(out, styleErrorLbl.Render("Errors:"))
		for _, issue := range errs {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Field, issue.Message)
		}
		fmt.Fprintln(out)
	}

	if len(warns) > 0 {
		fmt.Fprintln(out, styleWarnLbl.Render("Warnings:"))
		for _, issue := range warns {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Field, issue.Message)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d error(s), %d warning(s)\n", len(errs), len(warns))
}
