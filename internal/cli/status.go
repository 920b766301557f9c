package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/engine"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	Spec string
	JSON bool
}

// statusRowOutput is the JSON output type for a single spec.
type statusRowOutput struct {
	Spec       string   `json:"spec"`
	State      string   `json:"state"`
	Issue      int      `json:"issue,omitempty"`
	HasChanges bool     `json:"has_changes"`
	LastSync   string   `json:"last_sync,omitempty"`
	Conflicts  []string `json:"conflicts,omitempty"`
}

// statusProblemOutput is the JSON output type for an unscannable spec.
type statusProblemOutput struct {
	Spec  string `json:"spec"`
	Error string `json:"error"`
}

// statusOutput is the top-level JSON output type for the status command.
type statusOutput struct {
	Specs     []statusRowOutput     `json:"specs"`
	Problems  []statusProblemOutput `json:"problems,omitempty"`
	Total     int                   `json:"total"`
	Synced    int                   `json:"synced"`
	Conflicts int                   `json:"conflicts"`
}

// newStatusCmd creates the "specsync status" command.
func newStatusCmd() *cobra.Command {
	var flags statusFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync state of every spec",
		Long: `Classify each spec against the tracker without changing anything.
The table shows the spec's state (local, draft, synced, conflict, or
unknown), its issue number, whether local edits are pending, and the
last successful sync.

Use --json for structured output suitable for scripting.`,
		Example: `  # Show all specs
  specsync status

  # Show one feature directory
  specsync status --spec "001-*"

  # Structured JSON output
  specsync status --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Spec, "spec", "", "Only show spec directories matching this glob")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output structured JSON to stdout")

	return cmd
}

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

// runStatus is the status command's RunE function.
func runStatus(cmd *cobra.Command, flags statusFlags) error {
	eng, _, err := buildEngine(cliOverrides(cmd))
	if err != nil {
		return err
	}

	statuses, problems, err := eng.StatusAll(cmd.Context(), flags.Spec)
	if err != nil {
		return err
	}

	// JSON output mode: write to stdout.
	if flags.JSON {
		return writeJSON(cmd.OutOrStdout(), buildStatusOutput(statuses, problems))
	}

	// Human-readable output goes to stderr, keeping stdout clean for JSON.
	out := cmd.ErrOrStderr()
	if len(statuses) == 0 && len(problems) == 0 {
		fmt.Fprintln(out, "No specs found.")
		return nil
	}

	fmt.Fprint(out, renderStatusTable(statuses))
	if len(problems) > 0 {
		fmt.Fprint(out, renderProblems(problems))
	}
	fmt.Fprint(out, renderStatusSummary(statuses))
	return nil
}

// buildStatusOutput shapes engine results for JSON serialization.
func buildStatusOutput(statuses []engine.SpecStatus, problems []spec.Problem) statusOutput {
	out := statusOutput{
		Specs: make([]statusRowOutput, 0, len(statuses)),
		Total: len(statuses),
	}
	for _, st := range statuses {
		row := statusRowOutput{
			Spec:       st.Doc.Name,
			State:      string(st.Status.State),
			Issue:      st.Status.RemoteNumber,
			HasChanges: st.Status.HasChanges,
			Conflicts:  st.Status.Conflicts,
		}
		if !st.Status.LastSync.IsZero() {
			row.LastSync = st.Status.LastSync.UTC().Format(time.RFC3339)
		}
		out.Specs = append(out.Specs, row)
		switch st.Status.State {
		case tracker.SyncStateSynced:
			out.Synced++
		case tracker.SyncStateConflict:
			out.Conflicts++
		}
	}
	for _, p := range problems {
		out.Problems = append(out.Problems, statusProblemOutput{Spec: p.Dir, Error: p.Err.Error()})
	}
	return out
}

// ---- table rendering ------------------------------------------------------

var (
	styleColHeader = lipgloss.NewStyle().Bold(true)
	styleSynced    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleDraft     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleConflict  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleUnknown   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // dark gray
)

// stateStyle returns the lipgloss style for a sync state.
func stateStyle(state tracker.SyncState) lipgloss.Style {
	switch state {
	case tracker.SyncStateSynced:
		return styleSynced
	case tracker.SyncStateDraft:
		return styleDraft
	case tracker.SyncStateConflict:
		return styleConflict
	case tracker.SyncStateUnknown:
		return styleUnknown
	default: // SyncStateLocal
		return lipgloss.NewStyle()
	}
}

// renderStatusTable formats one row per spec. The state column is styled but
// padded before styling so ANSI escapes do not break the alignment.
func renderStatusTable(statuses []engine.SpecStatus) string {
	nameWidth := len("SPEC")
	for _, st := range statuses {
		if len(st.Doc.Name) > nameWidth {
			nameWidth = len(st.Doc.Name)
		}
	}

	var sb strings.Builder
	sb.WriteString(styleColHeader.Render(fmt.Sprintf("%-*s  %-8s  %-6s  %-7s  %s",
		nameWidth, "SPEC", "STATE", "ISSUE", "CHANGES", "LAST SYNC")))
	sb.WriteString("\n")

	for _, st := range statuses {
		issue := "-"
		if st.Status.RemoteNumber > 0 {
			issue = "#" + strconv.Itoa(st.Status.RemoteNumber)
		}
		changes := "-"
		if st.Status.HasChanges {
			changes = "yes"
		}
		lastSync := "never"
		if !st.Status.LastSync.IsZero() {
			lastSync = st.Status.LastSync.UTC().Format("2006-01-02 15:04")
		}
		state := stateStyle(st.Status.State).Render(fmt.Sprintf("%-8s", st.Status.State))
		sb.WriteString(fmt.Sprintf("%-*s  %s  %-6s  %-7s  %s\n",
			nameWidth, st.Doc.Name, state, issue, changes, lastSync))
	}
	return sb.String()
}

// renderProblems lists spec directories the scanner had to skip.
func renderProblems(problems []spec.Problem) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(styleConflict.Render("Problems:"))
	sb.WriteString("\n")
	for _, p := range problems {
		sb.WriteString(fmt.Sprintf("  %s: %v\n", p.Dir, p.Err))
	}
	return sb.String()
}

// renderStatusSummary returns the synced fraction with a static progress bar.
//
//	████████████░░░░░░░░ 60% (12/20 synced)
func renderStatusSummary(statuses []engine.SpecStatus) string {
	const progressBarWidth = 40

	total := len(statuses)
	synced, conflicts := 0, 0
	for _, st := range statuses {
		switch st.Status.State {
		case tracker.SyncStateSynced:
			synced++
		case tracker.SyncStateConflict:
			conflicts++
		}
	}

	frac := 0.0
	if total > 0 {
		frac = float64(synced) / float64(total)
	}

	// Static progress bar using bubbles/progress ViewAs. WithoutPercentage
	// because the percentage is rendered in the fraction text ourselves.
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(progressBarWidth),
		progress.WithoutPercentage(),
	)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(bar.ViewAs(frac))
	sb.WriteString(fmt.Sprintf(" %.0f%% (%d/%d synced)\n", frac*100, synced, total))
	if conflicts > 0 {
		sb.WriteString(styleConflict.Render(fmt.Sprintf("%d conflict(s) need attention", conflicts)))
		sb.WriteString("\n")
	}
	return sb.String()
}
