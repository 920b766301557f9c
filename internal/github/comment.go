package github

import (
	"context"
	"fmt"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// AddComment posts a comment on the referenced issue.
func (a *Adapter) AddComment(ctx context.Context, ref tracker.RemoteRef, body string) error {
	a.ensureRepo(ctx)
	if err := a.client.CommentIssue(ctx, ref.Number, body); err != nil {
		return fmt.Errorf("github: commenting on issue #%d: %w", ref.Number, err)
	}
	return nil
}

// Close closes the referenced issue.
func (a *Adapter) Close(ctx context.Context, ref tracker.RemoteRef) error {
	a.ensureRepo(ctx)
	if err := a.client.CloseIssue(ctx, ref.Number); err != nil {
		return fmt.Errorf("github: closing issue #%d: %w", ref.Number, err)
	}
	return nil
}

// Reopen reopens the referenced issue.
func (a *Adapter) Reopen(ctx context.Context, ref tracker.RemoteRef) error {
	a.ensureRepo(ctx)
	if err := a.client.ReopenIssue(ctx, ref.Number); err != nil {
		return fmt.Errorf("github: reopening issue #%d: %w", ref.Number, err)
	}
	return nil
}
