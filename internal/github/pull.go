package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/ghcli"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/mapper"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// Pull fetches the referenced parent issue (and, when requested, its linked
// subtasks) and projects everything into a fresh in-memory document marked
// as synced. Writing it to disk is the caller's decision.
func (a *Adapter) Pull(ctx context.Context, ref tracker.RemoteRef, opts tracker.PullOptions) (*spec.Document, error) {
	a.ensureRepo(ctx)

	issue, err := a.client.ViewIssue(ctx, ref.Number)
	if err != nil {
		if errors.Is(err, ghcli.ErrNotFound) {
			return nil, fmt.Errorf("github: pulling issue #%d: %w", ref.Number, err)
		}
		return nil, tracker.ErrRemoteUnavailable(fmt.Sprintf("pulling issue #%d", ref.Number), err)
	}

	now := a.now()
	doc := mapper.IssueToSpec(toTrackerIssue(issue), now)

	if opts.Subtasks {
		subs, err := a.client.ListSubIssues(ctx, issue.Number)
		switch {
		case errors.Is(err, ghcli.ErrSubIssuesUnavailable):
			logger.Warn("sub-issue listing unavailable; pulling the parent only", "issue", issue.Number)
		case err != nil:
			logger.Warn("listing subtasks failed; pulling the parent only", "issue", issue.Number, "err", err)
		default:
			for i := range subs {
				f := mapper.SubtaskToFile(toTrackerIssue(&subs[i]), issue.Number, now)
				if f == nil {
					logger.Debug("skipping subtask without a recognized title prefix",
						"issue", subs[i].Number, "title", subs[i].Title)
					continue
				}
				doc.Files[f.Filename] = f
			}
		}
	}

	return doc, nil
}
