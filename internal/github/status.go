package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/ghcli"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/mapper"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// GetStatus classifies doc against its remote counterpart:
//
//   - local: no identity fields at all.
//   - draft: identity but no remote issue, or only one side changed.
//   - synced: local hash matches sync_hash and the remote is not newer.
//   - conflict: embedded UUIDs disagree, or both sides changed since the
//     last sync.
//   - unknown: the probe itself failed.
//
// The probe never mutates anything; failures are reported as the unknown
// state rather than as errors so callers can still render status tables.
func (a *Adapter) GetStatus(ctx context.Context, doc *spec.Document) (*tracker.SyncStatus, error) {
	a.ensureRepo(ctx)

	specFile := doc.SpecFile()
	hasChanges := specFile == nil || specFile.HasChanges()

	var localID string
	var number int
	var lastSync time.Time
	if specFile != nil && specFile.Frontmatter != nil {
		fm := specFile.Frontmatter
		localID = fm.SpecID
		lastSync = fm.LastSync
		if fm.GitHub != nil {
			number = fm.GitHub.IssueNumber
		}
	}

	status := &tracker.SyncStatus{HasChanges: hasChanges, LastSync: lastSync}

	if localID == "" && number == 0 {
		status.State = tracker.SyncStateLocal
		return status, nil
	}

	var remote *ghcli.Issue
	if localID != "" {
		matches, err := a.findByMarker(ctx, localID)
		if err != nil {
			logger.Warn("status probe failed", "spec", doc.Name, "err", err)
			status.State = tracker.SyncStateUnknown
			return status, nil
		}
		switch len(matches) {
		case 0:
		case 1:
			remote = &matches[0]
		default:
			logger.Warn("multiple issues carry the same spec_id marker",
				"spec", doc.Name, "spec_id", localID, "count", len(matches))
		}
	}

	if remote == nil && number > 0 {
		issue, err := a.client.ViewIssue(ctx, number)
		switch {
		case errors.Is(err, ghcli.ErrNotFound):
			// Stale pointer; treated like no remote at all.
		case err != nil:
			logger.Warn("status probe failed", "spec", doc.Name, "issue", number, "err", err)
			status.State = tracker.SyncStateUnknown
			return status, nil
		default:
			remoteID := mapper.ExtractSpecID(issue.Body)
			if remoteID != "" && localID != "" && remoteID != localID {
				status.State = tracker.SyncStateConflict
				status.RemoteNumber = issue.Number
				status.Conflicts = append(status.Conflicts, fmt.Sprintf(
					"issue #%d carries spec_id %s but local front-matter has %s",
					issue.Number, remoteID, localID))
				return status, nil
			}
			remote = issue
		}
	}

	if remote == nil {
		status.State = tracker.SyncStateDraft
		return status, nil
	}

	status.RemoteNumber = remote.Number
	remoteNewer := !remote.UpdatedAt.IsZero() &&
		(lastSync.IsZero() || remote.UpdatedAt.After(lastSync))

	switch {
	case hasChanges && remoteNewer:
		status.State = tracker.SyncStateConflict
		status.Conflicts = append(status.Conflicts, fmt.Sprintf(
			"both sides changed since the last sync: issue #%d updated %s, last sync %s",
			remote.Number,
			remote.UpdatedAt.UTC().Format(time.RFC3339),
			formatLastSync(lastSync)))
	case !hasChanges && !remoteNewer:
		status.State = tracker.SyncStateSynced
	default:
		// One side moved: local edits pending push, or remote edits pending
		// pull. Either way the spec is not clean and not conflicted.
		status.State = tracker.SyncStateDraft
	}
	return status, nil
}

func formatLastSync(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
