package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// promptWidth caps the conflict form so it stays readable on wide terminals.
const promptWidth = 72

// promptStrategy asks the user how to resolve one conflicted spec. The
// engine calls it per document under the interactive strategy. Returning an
// empty strategy (the skip choice, or a cancelled form) leaves the spec
// untouched.
func promptStrategy(ctx context.Context, doc *spec.Document, status *tracker.SyncStatus) (tracker.ConflictStrategy, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	title := fmt.Sprintf("Conflict in %s", doc.Name)
	if status.RemoteNumber > 0 {
		title = fmt.Sprintf("Conflict in %s (issue #%d)", doc.Name, status.RemoteNumber)
	}

	choice := string(tracker.StrategyOurs)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Description(conflictSummary(status)).
				Options(
					huh.NewOption("Keep local content (push over the remote)", string(tracker.StrategyOurs)),
					huh.NewOption("Take remote content (overwrite local files)", string(tracker.StrategyTheirs)),
					huh.NewOption("Skip this spec", ""),
				).
				Value(&choice),
		),
	).
		WithTheme(huh.ThemeCharm()).
		WithWidth(promptWidth)

	if err := form.Run(); err != nil {
		// Ctrl+C on one spec skips it; the rest of the run continues.
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", fmt.Errorf("conflict prompt: %w", err)
	}
	return tracker.ConflictStrategy(choice), nil
}

// conflictSummary folds the per-file conflict list into a short description.
func conflictSummary(status *tracker.SyncStatus) string {
	if len(status.Conflicts) == 0 {
		return "Both sides changed since the last sync."
	}
	return "Both sides changed: " + strings.Join(status.Conflicts, ", ")
}
