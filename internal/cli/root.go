// Package cli implements the specsync command tree: sync, status, pull,
// config, version, and completion, plus the persistent flags and config
// resolution they share. Command output follows one contract throughout:
// human-readable rendering goes to stderr, structured JSON to stdout.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/config"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/logging"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose   bool
	flagQuiet     bool
	flagConfig    string
	flagDir       string
	flagNoColor   bool
	flagPlatform  string
	flagSpecsRoot string
)

// rootCmd is the base command for specsync.
var rootCmd = &cobra.Command{
	Use:   "specsync",
	Short: "Keep spec documents and tracker issues in lockstep",
	Long: `Specsync synchronizes Markdown spec documents with a remote issue tracker.
Each spec directory becomes one parent issue and its subtask-eligible files
become linked sub-issues. Identity lives in YAML front-matter and in a
marker embedded in every issue body, so renames, hand edits, and lost
front-matter never orphan an issue.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check env vars for flags not explicitly set on command line.
		if !cmd.Flags().Changed("verbose") && os.Getenv("SPECSYNC_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Flags().Changed("quiet") && os.Getenv("SPECSYNC_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Flags().Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("SPECSYNC_NO_COLOR") != "") {
			flagNoColor = true
		}

		// Initialize logging.
		jsonFormat := os.Getenv("SPECSYNC_JSON_LOGS") != ""
		logging.Setup(flagVerbose, flagQuiet, jsonFormat)

		// Handle --no-color: disable colored output.
		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		// Handle --dir (change working directory).
		if flagDir != "" {
			if err := os.Chdir(flagDir); err != nil {
				return fmt.Errorf("changing directory to %s: %w", flagDir, err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) output (env: SPECSYNC_VERBOSE)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all output except errors (env: SPECSYNC_QUIET)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to specsync.yaml or specsync.toml config file")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Override working directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output (env: SPECSYNC_NO_COLOR, NO_COLOR)")
	rootCmd.PersistentFlags().StringVar(&flagPlatform, "platform", "", "Override the configured tracker platform")
	rootCmd.PersistentFlags().StringVar(&flagSpecsRoot, "specs-root", "", "Override the spec tree root directory")
}

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// cliOverrides collects root-level flag overrides for config resolution.
// Only flags the user actually set participate, so file and env values are
// not masked by flag defaults.
func cliOverrides(cmd *cobra.Command) *config.CLIOverrides {
	o := &config.CLIOverrides{}
	if cmd.Flags().Changed("platform") {
		o.Platform = &flagPlatform
	}
	if cmd.Flags().Changed("specs-root") {
		o.SpecsRoot = &flagSpecsRoot
	}
	return o
}

// writeJSON writes v as indented JSON. Structured output always goes to
// stdout so it pipes cleanly into jq while logs stay on stderr.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewRootCmd returns a new instance of the root command for use in external
// tools such as the shell completion generator and man page generator. It
// initialises a fresh cobra command tree with the same persistent flags and
// PersistentPreRunE as the global rootCmd so that generated docs and
// completions include all flags.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               rootCmd.Use,
		Short:             rootCmd.Short,
		Long:              rootCmd.Long,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rootCmd.PersistentPreRunE,
	}

	// Register the same persistent flags that the global rootCmd carries.
	// These use local variables (not the package-level flags) so the
	// exported command is safe for concurrent use by generators.
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) output (env: SPECSYNC_VERBOSE)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors (env: SPECSYNC_QUIET)")
	cmd.PersistentFlags().String("config", "", "Path to specsync.yaml or specsync.toml config file")
	cmd.PersistentFlags().String("dir", "", "Override working directory")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output (env: SPECSYNC_NO_COLOR, NO_COLOR)")
	cmd.PersistentFlags().String("platform", "", "Override the configured tracker platform")
	cmd.PersistentFlags().String("specs-root", "", "Override the spec tree root directory")

	// Attach all registered subcommands from the global tree.
	for _, child := range rootCmd.Commands() {
		cmd.AddCommand(child)
	}
	return cmd
}
