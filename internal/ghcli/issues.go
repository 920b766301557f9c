package ghcli

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/jsonutil"
)

// issueURLRe extracts the issue number from the URL printed by issue create.
var issueURLRe = regexp.MustCompile(`/(\d+)$`)

// CreateIssueOptions are the fields applied when creating an issue.
type CreateIssueOptions struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string
	Milestone int
}

// EditIssueOptions carries the fields to change on an existing issue. Nil
// pointers and empty lists leave the field untouched; labels and assignees
// are add-only (the client never removes either).
type EditIssueOptions struct {
	Title        *string
	Body         *string
	AddLabels    []string
	AddAssignees []string
	Milestone    int
}

// empty reports whether the edit would change nothing.
func (o EditIssueOptions) empty() bool {
	return o.Title == nil && o.Body == nil &&
		len(o.AddLabels) == 0 && len(o.AddAssignees) == 0 && o.Milestone == 0
}

// CreateIssue creates an issue and returns its number and URL. The number is
// parsed from the trailing path segment of the URL the CLI prints.
func (c *Client) CreateIssue(ctx context.Context, opts CreateIssueOptions) (int, string, error) {
	bodyFile, err := writeBodyFile(opts.Body)
	if err != nil {
		return 0, "", err
	}
	defer os.Remove(bodyFile) //nolint:errcheck

	args := []string{"issue", "create", "--title", opts.Title, "--body-file", bodyFile}
	for _, label := range opts.Labels {
		args = append(args, "--label", label)
	}
	for _, assignee := range opts.Assignees {
		args = append(args, "--assignee", assignee)
	}
	if opts.Milestone > 0 {
		args = append(args, "--milestone", strconv.Itoa(opts.Milestone))
	}

	out, err := c.run(ctx, c.callTimeout, c.withRepo(args)...)
	if err != nil {
		return 0, "", fmt.Errorf("ghcli: issue create: %w", err)
	}

	url := lastNonEmptyLine(out)
	m := issueURLRe.FindStringSubmatch(url)
	if m == nil {
		return 0, "", fmt.Errorf("ghcli: issue create: no issue number in output %q", url)
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", fmt.Errorf("ghcli: issue create: parsing issue number from %q: %w", url, err)
	}
	return number, url, nil
}

// EditIssue applies the given changes to one issue. A no-op edit returns nil
// without spawning a subprocess.
func (c *Client) EditIssue(ctx context.Context, number int, opts EditIssueOptions) error {
	if opts.empty() {
		return nil
	}

	args := []string{"issue", "edit", strconv.Itoa(number)}

	var bodyFile string
	if opts.Body != nil {
		var err error
		bodyFile, err = writeBodyFile(*opts.Body)
		if err != nil {
			return err
		}
		defer os.Remove(bodyFile) //nolint:errcheck
		args = append(args, "--body-file", bodyFile)
	}
	if opts.Title != nil {
		args = append(args, "--title", *opts.Title)
	}
	args = appendEditFields(args, opts)

	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		return fmt.Errorf("ghcli: issue edit #%d: %w", number, err)
	}
	return nil
}

// EditIssues applies add-only common fields (labels, assignees, milestone)
// to several issues in a single subprocess. Title and Body are per-issue
// fields and are ignored here.
func (c *Client) EditIssues(ctx context.Context, numbers []int, opts EditIssueOptions) error {
	if len(numbers) == 0 {
		return nil
	}
	common := EditIssueOptions{
		AddLabels:    opts.AddLabels,
		AddAssignees: opts.AddAssignees,
		Milestone:    opts.Milestone,
	}
	if common.empty() {
		return nil
	}

	args := []string{"issue", "edit"}
	for _, n := range numbers {
		args = append(args, strconv.Itoa(n))
	}
	args = appendEditFields(args, common)

	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		return fmt.Errorf("ghcli: issue edit batch (%d issues): %w", len(numbers), err)
	}
	return nil
}

// appendEditFields appends the add-only edit flags shared by single and
// batch edits.
func appendEditFields(args []string, opts EditIssueOptions) []string {
	for _, label := range opts.AddLabels {
		args = append(args, "--add-label", label)
	}
	for _, assignee := range opts.AddAssignees {
		args = append(args, "--add-assignee", assignee)
	}
	if opts.Milestone > 0 {
		args = append(args, "--milestone", strconv.Itoa(opts.Milestone))
	}
	return args
}

// ViewIssue fetches one issue with the full field projection. A missing
// issue wraps ErrNotFound.
func (c *Client) ViewIssue(ctx context.Context, number int) (*Issue, error) {
	args := []string{"issue", "view", strconv.Itoa(number), "--json", issueFields}

	out, err := c.run(ctx, c.pullTimeout, c.withRepo(args)...)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("ghcli: issue #%d: %w", number, ErrNotFound)
		}
		return nil, fmt.Errorf("ghcli: issue view #%d: %w", number, err)
	}

	var issue Issue
	if err := jsonutil.ExtractInto(out, &issue); err != nil {
		return nil, fmt.Errorf("ghcli: issue view #%d: %w", number, err)
	}
	return &issue, nil
}

// ListIssuesOptions narrows a ListIssues call.
type ListIssuesOptions struct {
	// Search is the tracker search query (e.g. a body substring filter).
	Search string
	// State filters by issue state. Defaults to "all".
	State string
	// Limit caps the number of results. Defaults to 100.
	Limit int
}

// ListIssues returns issues matching the options, newest first per the CLI's
// default ordering.
func (c *Client) ListIssues(ctx context.Context, opts ListIssuesOptions) ([]Issue, error) {
	state := opts.State
	if state == "" {
		state = "all"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	args := []string{"issue", "list", "--state", state, "--limit", strconv.Itoa(limit), "--json", issueFields}
	if opts.Search != "" {
		args = append(args, "--search", opts.Search)
	}

	out, err := c.run(ctx, c.pullTimeout, c.withRepo(args)...)
	if err != nil {
		return nil, fmt.Errorf("ghcli: issue list: %w", err)
	}

	var issues []Issue
	if err := jsonutil.ExtractInto(out, &issues); err != nil {
		return nil, fmt.Errorf("ghcli: issue list: %w", err)
	}
	return issues, nil
}

// CloseIssue closes an issue.
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	args := []string{"issue", "close", strconv.Itoa(number)}
	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		return fmt.Errorf("ghcli: issue close #%d: %w", number, err)
	}
	return nil
}

// ReopenIssue reopens a closed issue.
func (c *Client) ReopenIssue(ctx context.Context, number int) error {
	args := []string{"issue", "reopen", strconv.Itoa(number)}
	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		return fmt.Errorf("ghcli: issue reopen #%d: %w", number, err)
	}
	return nil
}

// CommentIssue adds a comment to an issue. The body goes through a temp
// file like every other multi-line payload.
func (c *Client) CommentIssue(ctx context.Context, number int, body string) error {
	bodyFile, err := writeBodyFile(body)
	if err != nil {
		return err
	}
	defer os.Remove(bodyFile) //nolint:errcheck

	args := []string{"issue", "comment", strconv.Itoa(number), "--body-file", bodyFile}
	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		return fmt.Errorf("ghcli: issue comment #%d: %w", number, err)
	}
	return nil
}
