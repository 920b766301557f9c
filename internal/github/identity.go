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

// pushTarget is the result of identity resolution for one document.
type pushTarget struct {
	// number is the issue to update; 0 means create a new one.
	number int

	// issue is the fetched remote, nil on the create path.
	issue *ghcli.Issue

	// specID is the identity to embed in the generated body: the local
	// spec_id, the one adopted from the remote, or empty (push mints one).
	specID string

	// injectMarker forces a body update because the remote lacks the
	// identity marker.
	injectMarker bool
}

// resolveTarget finds the remote issue a push should address.
//
// Order: a spec_id match via the embedded marker wins when it is unique;
// then the recorded issue_number, with the embedded remote UUID compared
// against the local one; otherwise a new issue is created. A UUID mismatch
// fails the push unless force is set, in which case the existing issue is
// abandoned and a fresh one created.
func (a *Adapter) resolveTarget(ctx context.Context, doc *spec.Document, force bool) (*pushTarget, error) {
	localID := tracker.DocumentSpecID(doc)

	if localID != "" {
		matches, err := a.findByMarker(ctx, localID)
		if err != nil {
			return nil, err
		}
		if len(matches) == 1 {
			issue := matches[0]
			return &pushTarget{number: issue.Number, issue: &issue, specID: localID}, nil
		}
		if len(matches) > 1 {
			logger.Warn("multiple issues carry the same spec_id marker; falling back to the recorded issue number",
				"spec", doc.Name, "spec_id", localID, "count", len(matches))
		}
	}

	if number := tracker.DocumentIssueNumber(doc); number > 0 {
		issue, err := a.client.ViewIssue(ctx, number)
		switch {
		case errors.Is(err, ghcli.ErrNotFound):
			// Stale pointer: the recorded issue is gone, create a new one.
			logger.Warn("recorded issue no longer exists; creating a new one",
				"spec", doc.Name, "issue", number)
		case err != nil:
			return nil, tracker.ErrRemoteUnavailable(fmt.Sprintf("fetching issue #%d", number), err)
		default:
			remoteID := mapper.ExtractSpecID(issue.Body)
			switch {
			case remoteID == "":
				// The remote never had a marker; the update injects one.
				return &pushTarget{number: issue.Number, issue: issue, specID: localID, injectMarker: true}, nil
			case localID == "":
				// Adopt the remote identity; the engine writes it back.
				return &pushTarget{number: issue.Number, issue: issue, specID: remoteID}, nil
			case remoteID == localID:
				return &pushTarget{number: issue.Number, issue: issue, specID: localID}, nil
			default:
				if !force {
					return nil, tracker.ErrUUIDMismatch(number, localID, remoteID)
				}
				logger.Warn("spec_id mismatch overridden by force; abandoning the recorded issue",
					"spec", doc.Name, "issue", number, "local", localID, "remote", remoteID)
			}
		}
	}

	return &pushTarget{specID: localID}, nil
}

// findByMarker searches for issues whose body embeds exactly the given
// spec_id. Search results are verified by re-extracting the marker; the
// tracker's text search may over-match.
func (a *Adapter) findByMarker(ctx context.Context, specID string) ([]ghcli.Issue, error) {
	query := fmt.Sprintf("%q in:body", specID)
	issues, err := a.client.ListIssues(ctx, ghcli.ListIssuesOptions{Search: query})
	if err != nil {
		return nil, tracker.ErrRemoteUnavailable("searching for the spec_id marker", err)
	}

	var matches []ghcli.Issue
	for _, issue := range issues {
		if mapper.ExtractSpecID(issue.Body) == specID {
			matches = append(matches, issue)
		}
	}
	return matches, nil
}
