package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pullFlags holds the flag values for the pull command.
type pullFlags struct {
	Issue int
	Force bool
}

// newPullCmd creates the "specsync pull" command.
func newPullCmd() *cobra.Command {
	var flags pullFlags

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull a tracker issue into the spec tree",
		Long: `Fetch one issue and its sub-issues from the tracker and materialize
them as spec files. An issue already tied to a local spec updates that
spec in place; anything else creates a new NNN-name directory.

Local files with unsynced edits refuse to be overwritten unless --force
is given.`,
		Example: `  # Pull issue 42 and its sub-issues
  specsync pull --issue 42

  # Overwrite local edits with the remote content
  specsync pull --issue 42 --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.Issue, "issue", 0, "Issue number to pull (required)")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "Overwrite local files even when they have unsynced edits")
	_ = cmd.MarkFlagRequired("issue")

	return cmd
}

func init() {
	rootCmd.AddCommand(newPullCmd())
}

// runPull is the pull command's RunE function.
func runPull(cmd *cobra.Command, flags pullFlags) error {
	if flags.Issue <= 0 {
		return fmt.Errorf("--issue must be a positive issue number, got %d", flags.Issue)
	}

	eng, _, err := buildEngine(cliOverrides(cmd))
	if err != nil {
		return err
	}

	doc, err := eng.PullIssue(cmd.Context(), flags.Issue, flags.Force)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "pulled issue #%d into %s (%d file(s))\n", flags.Issue, doc.Name, len(doc.Files))
	return nil
}
