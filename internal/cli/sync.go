package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/config"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/engine"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/git"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/github"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/logging"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

var logger = logging.New("cli")

// syncFlags holds the flag values for the sync command.
type syncFlags struct {
	DryRun      bool
	Force       bool
	Spec        string
	Concurrency int
	JSON        bool
	Strategy    strategyValue
}

// strategyValue is a pflag.Value that accepts only the known conflict
// strategies, so a typo fails at flag-parse time instead of mid-run.
type strategyValue tracker.ConflictStrategy

func (s *strategyValue) String() string { return string(*s) }

func (s *strategyValue) Set(v string) error {
	switch tracker.ConflictStrategy(v) {
	case "", tracker.StrategyManual, tracker.StrategyOurs, tracker.StrategyTheirs, tracker.StrategyInteractive:
		*s = strategyValue(v)
		return nil
	}
	return errors.New("must be one of: manual, ours, theirs, interactive")
}

func (s *strategyValue) Type() string { return "strategy" }

// newSyncCmd creates the "specsync sync" command.
func newSyncCmd() *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push local spec changes to the tracker",
		Long: `Scan the spec tree and synchronize every eligible document with the
remote tracker. New specs create issues, edited specs update them, and
specs where both sides changed are conflicts handled per --strategy.

The exit code is non-zero when any spec fails, including conflicts a dry
run would have had to resolve.`,
		Example: `  # Preview what a sync would do
  specsync sync --dry-run

  # Sync one feature directory
  specsync sync --spec "001-*"

  # Take the local side of every conflict
  specsync sync --strategy ours`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Report planned actions without pushing or writing")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "Push past skips, auto_sync opt-outs, and conflict checks")
	cmd.Flags().StringVar(&flags.Spec, "spec", "", "Only sync spec directories matching this glob")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", 0, "Parallel creates in a batch (0 = adapter default)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Write the run result as JSON to stdout")
	cmd.Flags().Var(&flags.Strategy, "strategy", "Conflict strategy: manual, ours, theirs, or interactive")

	return cmd
}

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

// runSync is the sync command's RunE function.
func runSync(cmd *cobra.Command, flags syncFlags) error {
	overrides := cliOverrides(cmd)
	if cmd.Flags().Changed("strategy") {
		s := string(flags.Strategy)
		overrides.Strategy = &s
	}
	if cmd.Flags().Changed("concurrency") {
		overrides.Concurrency = &flags.Concurrency
	}

	eng, resolved, err := buildEngine(overrides)
	if err != nil {
		return err
	}
	cfg := resolved.Config

	// A tree-wide sync respects the config-level auto_sync opt-out. Naming
	// a glob or forcing is an explicit ask and proceeds; per-file opt-outs
	// are the engine's business.
	if !cfg.AutoSyncEnabled() && !flags.Force && flags.Spec == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "auto_sync is disabled in configuration; pass --spec or --force to sync anyway")
		return nil
	}

	res, err := eng.SyncAll(cmd.Context(), engine.SyncOptions{
		DryRun:      flags.DryRun,
		Force:       flags.Force,
		Concurrency: cfg.Concurrency,
		Filter:      flags.Spec,
		Strategy:    tracker.ConflictStrategy(cfg.ConflictStrategy),
	})
	if err != nil {
		return err
	}

	if flags.JSON {
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		printSyncResult(cmd.ErrOrStderr(), res)
	}

	if !res.Success {
		return errors.New(res.Message)
	}
	return nil
}

// newAdapter builds the tracker adapter for a resolved configuration.
// Tests swap this out to avoid shelling out to the real tracker CLI.
var newAdapter = githubAdapter

// githubAdapter assembles the reference adapter from the github config
// block. The git client is the repo-detection fallback of last resort; it
// runs in the working directory the spec tree lives in.
func githubAdapter(cfg *config.Config) tracker.Adapter {
	gh := cfg.GitHub
	if gh == nil {
		gh = &config.GitHubConfig{}
	}
	return github.New(github.Options{
		Git:         git.NewClient(""),
		Owner:       gh.Owner,
		Repo:        gh.Repo,
		Auth:        gh.Auth,
		Token:       gh.Token,
		Labels:      gh.LabelMap(),
		Assignees:   gh.Assignees,
		Milestone:   gh.Milestone,
		Concurrency: cfg.Concurrency,
	})
}

// buildEngine wires the scanner, adapter registry, and engine for the
// resolved configuration. It is shared by sync, status, and pull. Config
// validation errors abort here so no command runs against a config the
// validate command would reject.
func buildEngine(overrides *config.CLIOverrides) (*engine.Engine, *config.ResolvedConfig, error) {
	resolved, meta, err := loadAndResolveConfig(overrides)
	if err != nil {
		return nil, nil, err
	}

	result := config.Validate(resolved.Config, meta)
	for _, issue := range result.Warnings() {
		logger.Warn("config", "field", issue.Field, "warning", issue.Message)
	}
	if result.HasErrors() {
		for _, issue := range result.Errors() {
			logger.Error("config", "field", issue.Field, "error", issue.Message)
		}
		return nil, nil, fmt.Errorf("configuration has %d error(s); run \"specsync config --validate\"", len(result.Errors()))
	}

	registry := tracker.NewRegistry()
	if err := registry.Register(newAdapter(resolved.Config)); err != nil {
		return nil, nil, fmt.Errorf("registering adapter: %w", err)
	}
	adapter, err := registry.Get(resolved.Config.Platform)
	if err != nil {
		return nil, nil, fmt.Errorf("platform %q: %w", resolved.Config.Platform, err)
	}

	scanner := spec.NewScanner(resolved.Config.SpecsRoot, resolved.Config.Ignore...)
	eng := engine.New(engine.Options{
		Scanner: scanner,
		Adapter: adapter,
		Prompt:  promptStrategy,
	})
	return eng, resolved, nil
}

// ---- sync result rendering ----------------------------------------------

var (
	styleCreated = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleUpdated = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // bright blue
	styleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // dark gray
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleMessage = lipgloss.NewStyle().Bold(true)
)

// printSyncResult writes the per-spec outcomes and the summary line.
func printSyncResult(out io.Writer, res *engine.Result) {
	for _, name := range res.Details.Created {
		fmt.Fprintf(out, "  %s  %s\n", styleCreated.Render("created"), name)
	}
	for _, name := range res.Details.Updated {
		fmt.Fprintf(out, "  %s  %s\n", styleUpdated.Render("updated"), name)
	}
	for _, name := range res.Details.Skipped {
		fmt.Fprintf(out, "  %s  %s\n", styleSkipped.Render("skipped"), name)
	}
	for _, msg := range res.Details.Errors {
		fmt.Fprintf(out, "  %s    %s\n", styleFailed.Render("error"), msg)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(out, "  %s  %s\n", styleWarning.Render("warning"), warning)
	}
	fmt.Fprintln(out, styleMessage.Render(res.Message))
}
