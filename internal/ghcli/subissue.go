package ghcli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/jsonutil"
)

// AddSubIssue links child under parent via the sub-issue extension. A
// missing extension wraps ErrSubIssuesUnavailable so callers can downgrade
// to a warning; the child issue itself already exists either way.
func (c *Client) AddSubIssue(ctx context.Context, parent, child int) error {
	args := []string{"sub-issue", "add", strconv.Itoa(parent), strconv.Itoa(child)}

	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		if isUnknownCommand(err) {
			return fmt.Errorf("ghcli: sub-issue add: %w", ErrSubIssuesUnavailable)
		}
		return fmt.Errorf("ghcli: sub-issue add #%d under #%d: %w", child, parent, err)
	}
	return nil
}

// ListSubIssues returns the issues linked under parent. A missing extension
// wraps ErrSubIssuesUnavailable.
func (c *Client) ListSubIssues(ctx context.Context, parent int) ([]Issue, error) {
	args := []string{"sub-issue", "list", strconv.Itoa(parent), "--json", issueFields}

	out, err := c.run(ctx, c.pullTimeout, c.withRepo(args)...)
	if err != nil {
		if isUnknownCommand(err) {
			return nil, fmt.Errorf("ghcli: sub-issue list: %w", ErrSubIssuesUnavailable)
		}
		return nil, fmt.Errorf("ghcli: sub-issue list #%d: %w", parent, err)
	}

	var issues []Issue
	if err := jsonutil.ExtractInto(out, &issues); err != nil {
		return nil, fmt.Errorf("ghcli: sub-issue list #%d: %w", parent, err)
	}
	return issues, nil
}
